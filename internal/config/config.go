// Package config loads and saves xpdash settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/theirongolddev/xpdash/internal/category"
)

// Environment variables that override the config file.
const (
	EnvToken      = "XPDASH_TOKEN"
	EnvIdentifier = "XPDASH_IDENTIFIER"
	EnvPassword   = "XPDASH_PASSWORD"
	EnvBaseURL    = "XPDASH_BASE_URL"
)

// Config holds all xpdash configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Platform   PlatformConfig   `toml:"platform"`
	Appearance AppearanceConfig `toml:"appearance"`
	Categories CategoriesConfig `toml:"categories"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	RecentDays      int `toml:"recent_days"`
	TopProjects     int `toml:"top_projects"`
	CacheTTLMinutes int `toml:"cache_ttl_minutes"`
}

// PlatformConfig holds the platform endpoint and credentials.
type PlatformConfig struct {
	BaseURL    string `toml:"base_url,omitempty"`
	Identifier string `toml:"identifier,omitempty"`
	Token      string `toml:"token,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// CategoriesConfig replaces the built-in category rules. RulesFile wins
// over inline rules; with neither set the defaults apply.
type CategoriesConfig struct {
	RulesFile string              `toml:"rules_file,omitempty"`
	Rules     []category.Rule     `toml:"rules,omitempty"`
	Overrides map[string][]string `toml:"overrides,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			RecentDays:      180,
			TopProjects:     5,
			CacheTTLMinutes: 15,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "xpdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "xpdash")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path with owner-only permissions.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// LoadEnv reads a .env file from the working directory if one exists.
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// GetToken returns the token from env var or config, in that order.
func GetToken(cfg Config) string {
	if tok := os.Getenv(EnvToken); tok != "" {
		return tok
	}
	return cfg.Platform.Token
}

// GetBaseURL returns the platform URL from env var or config.
func GetBaseURL(cfg Config) string {
	if u := os.Getenv(EnvBaseURL); u != "" {
		return u
	}
	return cfg.Platform.BaseURL
}

// GetCredentials returns the identifier and password from env vars,
// falling back to the configured identifier. The password is never stored.
func GetCredentials(cfg Config) (identifier, password string) {
	identifier = os.Getenv(EnvIdentifier)
	if identifier == "" {
		identifier = cfg.Platform.Identifier
	}
	return identifier, os.Getenv(EnvPassword)
}

// CacheTTL returns how long fetched records stay fresh.
func (c Config) CacheTTL() time.Duration {
	if c.General.CacheTTLMinutes < 0 {
		return 0
	}
	return time.Duration(c.General.CacheTTLMinutes) * time.Minute
}

// RuleSet returns the effective category rules.
func (c Config) RuleSet() (category.RuleSet, error) {
	cc := c.Categories
	if path := strings.TrimSpace(cc.RulesFile); path != "" {
		return category.LoadRuleSet(expandHome(path))
	}
	if len(cc.Rules) == 0 {
		rs := category.DefaultRuleSet()
		for k, v := range cc.Overrides {
			rs.Overrides[k] = v
		}
		return rs, nil
	}
	rs := category.RuleSet{Rules: cc.Rules, Overrides: cc.Overrides}
	if err := rs.Validate(); err != nil {
		return category.RuleSet{}, fmt.Errorf("config categories: %w", err)
	}
	return rs, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
