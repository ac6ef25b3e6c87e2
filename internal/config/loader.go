package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	projectFileName = "pdfish.yaml"
	localFileName   = "pdfish.local.yaml"

	// DefaultBufferSize is the copy chunk size used when none is configured.
	DefaultBufferSize = 4 * 1024
)

// Fallback frames the generated file name used when a document reports no
// display name: <Prefix><epoch-millis><Suffix>.
type Fallback struct {
	Prefix string `yaml:"prefix,omitempty"`
	Suffix string `yaml:"suffix,omitempty"`
}

// Git configures the repository-backed resource provider.
type Git struct {
	ReposDir string `yaml:"repos_dir,omitempty"`
	Offline  bool   `yaml:"offline,omitempty"`
}

// Log configures diagnostic logging.
type Log struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// Config aggregates all pdfish configuration.
type Config struct {
	CacheDir   string   `yaml:"cache_dir,omitempty"`
	BufferSize int      `yaml:"buffer_size,omitempty"`
	Fallback   Fallback `yaml:"fallback,omitempty"`
	Grants     []string `yaml:"grants,omitempty"`
	Git        Git      `yaml:"git,omitempty"`
	Log        Log      `yaml:"log,omitempty"`
}

// Load reads configuration from the following locations (lowest precedence → highest):
//  1. User-level config (~/.pdfish/config.yaml or path from $PDFISH_USER_CONFIG)
//  2. Project config (<projectDir>/pdfish.yaml)
//  3. Local overrides (<projectDir>/pdfish.local.yaml)
//
// Scalar settings in later files override earlier ones; grants accumulate.
// $PDFISH_CACHE_DIR overrides cache_dir from every file.
func Load(projectDir string) (*Config, error) {
	paths := []string{userConfigPath(), filepath.Join(projectDir, projectFileName), filepath.Join(projectDir, localFileName)}

	var cfg Config
	for _, p := range paths {
		if err := readConfigFile(p, &cfg); err != nil {
			return nil, err
		}
	}

	if env := os.Getenv("PDFISH_CACHE_DIR"); env != "" {
		cfg.CacheDir = env
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	c.CacheDir = ExpandHome(c.CacheDir)
	c.Git.ReposDir = ExpandHome(c.Git.ReposDir)
	c.Log.File = ExpandHome(c.Log.File)

	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.Fallback.Prefix == "" {
		c.Fallback.Prefix = "pdf_"
	}
	if c.Fallback.Suffix == "" {
		c.Fallback.Suffix = ".pdf"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// userConfigPath resolves the user-level configuration path, allowing override
// via $PDFISH_USER_CONFIG for easier testing.
func userConfigPath() string {
	if p := os.Getenv("PDFISH_USER_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "" // will be ignored by the caller
	}
	return filepath.Join(home, ".pdfish", "config.yaml")
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "pdfish")
	}
	return filepath.Join(os.TempDir(), "pdfish")
}

// readConfigFile parses a YAML config file and merges it into dst.
// Missing files are silently ignored so tests don't need to create every file.
func readConfigFile(path string, dst *Config) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // ignored
		}
		return err
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return err
	}
	dst.merge(parsed)
	return nil
}

// merge overlays the settings present in src onto c.
func (c *Config) merge(src Config) {
	if src.CacheDir != "" {
		c.CacheDir = src.CacheDir
	}
	if src.BufferSize > 0 {
		c.BufferSize = src.BufferSize
	}
	if src.Fallback.Prefix != "" {
		c.Fallback.Prefix = src.Fallback.Prefix
	}
	if src.Fallback.Suffix != "" {
		c.Fallback.Suffix = src.Fallback.Suffix
	}
	if src.Git.ReposDir != "" {
		c.Git.ReposDir = src.Git.ReposDir
	}
	if src.Git.Offline {
		c.Git.Offline = true
	}
	if src.Log.Level != "" {
		c.Log.Level = src.Log.Level
	}
	if src.Log.File != "" {
		c.Log.File = src.Log.File
	}

	seen := make(map[string]bool, len(c.Grants))
	for _, g := range c.Grants {
		seen[g] = true
	}
	for _, g := range src.Grants {
		if !seen[g] {
			c.Grants = append(c.Grants, g)
			seen[g] = true
		}
	}
}
