package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Markers of a bot checkout.
const (
	packageMarker    = "zhenxun"
	entryPointMarker = "bot.py"
	pyprojectFile    = "pyproject.toml"
)

// ValidateInstallation returns ErrInvalidInstallation unless dir holds the
// zhenxun package directory and bot.py.
func ValidateInstallation(dir string) error {
	if !dirExists(dir) {
		return fmt.Errorf("%w: %s does not exist", ErrInvalidInstallation, dir)
	}
	if !dirExists(filepath.Join(dir, packageMarker)) {
		return fmt.Errorf("%w: %s has no %s directory", ErrInvalidInstallation, dir, packageMarker)
	}
	if !fileExists(filepath.Join(dir, entryPointMarker)) {
		return fmt.Errorf("%w: %s has no %s", ErrInvalidInstallation, dir, entryPointMarker)
	}
	return nil
}

type pyprojectDoc struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// LoadPyProject reads name and version from dir/pyproject.toml, preferring
// [tool.poetry] over [project]. It returns nil without error when the file
// does not exist.
func LoadPyProject(dir string) (*PyProject, error) {
	path := filepath.Join(dir, pyprojectFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc pyprojectDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	p := &PyProject{Name: doc.Tool.Poetry.Name, Version: doc.Tool.Poetry.Version}
	if p.Name == "" {
		p.Name = doc.Project.Name
	}
	if p.Version == "" {
		p.Version = doc.Project.Version
	}
	return p, nil
}
