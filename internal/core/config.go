package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tailscale/hujson"
)

const (
	configDirName  = ".zhenxun"
	configFileName = "config.json"

	// ConfigDirEnv overrides the configuration directory.
	ConfigDirEnv = "ZHENXUN_CONFIG_DIR"

	// DefaultRepository is the upstream tree URL of the bot project.
	DefaultRepository = "https://github.com/HibiKier/zhenxun_bot/tree/main"

	// DefaultIndexURL is the pip mirror used when installing poetry.
	DefaultIndexURL = "https://mirrors.aliyun.com/pypi/simple/"

	defaultAPIBaseURL      = "https://api.github.com"
	defaultDownloadTimeout = 30 * time.Second
)

// ConfigManager handles reading and writing the installer configuration.
// The file is JSONC: comments and trailing commas are accepted on load.
type ConfigManager struct {
	configDir string
	mu        sync.RWMutex
}

// NewConfigManager creates a ConfigManager using $ZHENXUN_CONFIG_DIR or ~/.zhenxun/.
func NewConfigManager() (*ConfigManager, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return &ConfigManager{configDir: dir}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	return &ConfigManager{
		configDir: filepath.Join(home, configDirName),
	}, nil
}

// NewConfigManagerWithDir creates a ConfigManager using a custom config directory.
func NewConfigManagerWithDir(dir string) *ConfigManager {
	return &ConfigManager{configDir: dir}
}

// ConfigDir returns the configuration directory path.
func (cm *ConfigManager) ConfigDir() string {
	return cm.configDir
}

// ConfigPath returns the full path to the config file.
func (cm *ConfigManager) ConfigPath() string {
	return filepath.Join(cm.configDir, configFileName)
}

// Load reads the config from disk. Returns the default config if the file
// doesn't exist. Fields left empty in the file are filled from the defaults.
func (cm *ConfigManager) Load() (*Config, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	data, err := os.ReadFile(cm.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (cm *ConfigManager) Save(cfg *Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := os.MkdirAll(cm.configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	tmpPath := cm.ConfigPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmpPath, cm.ConfigPath()); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Repository == "" {
		c.Repository = DefaultRepository
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.IndexURL == "" {
		c.IndexURL = DefaultIndexURL
	}
	if c.DownloadTimeoutSeconds <= 0 {
		c.DownloadTimeoutSeconds = int(defaultDownloadTimeout / time.Second)
	}
	if len(c.ArchiveMirrors) == 0 || len(c.CloneSources) == 0 {
		cat := BuiltinCatalog()
		if len(c.ArchiveMirrors) == 0 {
			c.ArchiveMirrors = cat.ArchiveMirrors
		}
		if len(c.CloneSources) == 0 {
			c.CloneSources = cat.CloneSources
		}
	}
}
