package core

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed mirrors.yaml
var builtinCatalogYAML []byte

// Catalog lists the download sources known to the installer.
type Catalog struct {
	ArchiveMirrors []string      `yaml:"archiveMirrors"`
	CloneSources   []CloneSource `yaml:"cloneSources"`
}

// BuiltinCatalog returns the embedded catalog. The embedded file is part of
// the binary, so a parse failure is a build defect and panics.
func BuiltinCatalog() Catalog {
	cat, err := ParseCatalog(builtinCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded mirrors.yaml: %v", err))
	}
	return cat
}

// ParseCatalog decodes a YAML catalog and drops blank entries.
func ParseCatalog(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog: %w", err)
	}

	mirrors := cat.ArchiveMirrors[:0]
	for _, m := range cat.ArchiveMirrors {
		if m = strings.TrimSpace(m); m != "" {
			mirrors = append(mirrors, m)
		}
	}
	cat.ArchiveMirrors = mirrors

	sources := cat.CloneSources[:0]
	for _, s := range cat.CloneSources {
		if strings.TrimSpace(s.URL) == "" {
			continue
		}
		if s.Name == "" {
			s.Name = s.URL
		}
		sources = append(sources, s)
	}
	cat.CloneSources = sources
	return cat, nil
}

// ExpandArchiveTemplate fills an archive URL template for one repository.
func ExpandArchiveTemplate(tmpl string, info RepoInfo, sha string) string {
	r := strings.NewReplacer(
		"{owner}", info.Owner,
		"{repo}", info.Repo,
		"{branch}", info.Branch,
		"{sha}", sha,
	)
	return r.Replace(tmpl)
}
