package core

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5/pgconn"
)

// EnvTemplateVersion identifies the .env.dev template whose literal tokens
// ConfigureEnv replaces. Bump it together with the tokens below when the
// upstream template changes.
const EnvTemplateVersion = 1

const (
	envFileName = ".env.dev"

	superusersToken = `SUPERUSERS=[""]`
	dbURLToken      = `DB_URL = ""`

	// DefaultDBURL is written when no database URL is given.
	DefaultDBURL = "sqlite:data/db/zhenxun.db"
	defaultDBDir = "data/db"
)

// EnvResult reports which tokens ConfigureEnv replaced.
type EnvResult struct {
	Path              string
	SuperusersWritten bool
	DBURL             string // value written, empty when the token was absent
}

// ConfigureEnv patches <projectDir>/.env.dev with the given settings. The
// file is treated as text: only the two known tokens are replaced. A missing
// file returns ErrEnvFileMissing.
func ConfigureEnv(projectDir string, settings EnvSettings) (*EnvResult, error) {
	path := filepath.Join(projectDir, envFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrEnvFileMissing, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := ValidateSuperusers(settings.Superusers); err != nil {
		return nil, err
	}
	if err := ValidateDBURL(settings.DBURL); err != nil {
		return nil, err
	}

	res := &EnvResult{Path: path}
	content := data

	if ids := strings.Fields(settings.Superusers); len(ids) > 0 {
		replacement := `SUPERUSERS=["` + strings.Join(ids, `", "`) + `"]`
		if bytes.Contains(content, []byte(superusersToken)) {
			content = bytes.ReplaceAll(content, []byte(superusersToken), []byte(replacement))
			res.SuperusersWritten = true
		}
	}

	dbURL := strings.TrimSpace(settings.DBURL)
	if dbURL == "" {
		if err := os.MkdirAll(filepath.Join(projectDir, filepath.FromSlash(defaultDBDir)), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dbURL = DefaultDBURL
	}
	if bytes.Contains(content, []byte(dbURLToken)) {
		content = bytes.ReplaceAll(content, []byte(dbURLToken), []byte(`DB_URL = "`+dbURL+`"`))
		res.DBURL = dbURL
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return res, nil
}

// ValidateSuperusers accepts whitespace separated numeric account ids. An
// empty value is valid and leaves the template untouched.
func ValidateSuperusers(s string) error {
	for _, id := range strings.Fields(s) {
		for _, r := range id {
			if !unicode.IsDigit(r) || r > unicode.MaxASCII {
				return fmt.Errorf("superuser %q must contain digits only", id)
			}
		}
	}
	return nil
}

// ValidateDBURL checks a database URL against the drivers the bot ships
// with. An empty value selects the bundled sqlite database.
func ValidateDBURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	scheme, _, ok := strings.Cut(raw, ":")
	if !ok || scheme == "" {
		return fmt.Errorf("database URL %q has no scheme", raw)
	}

	switch strings.ToLower(scheme) {
	case "sqlite":
		return nil
	case "postgres", "postgresql":
		if _, err := pgconn.ParseConfig(raw); err != nil {
			return fmt.Errorf("invalid postgres URL: %w", err)
		}
		return nil
	case "mysql":
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid mysql URL: %w", err)
		}
		if u.Host == "" {
			return fmt.Errorf("mysql URL %q has no host", raw)
		}
		return nil
	default:
		return fmt.Errorf("unsupported database %q (want sqlite, postgres or mysql)", scheme)
	}
}
