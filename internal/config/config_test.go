package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/xpdash/internal/category"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.False(t, Exists())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.RecentDays = 90
	cfg.Platform.Identifier = "jdoe"
	cfg.Platform.Token = "abc.def.ghi"
	cfg.Appearance.Theme = "catppuccin-mocha"
	require.NoError(t, Save(cfg))
	require.True(t, Exists())

	info, err := os.Stat(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90, got.General.RecentDays)
	assert.Equal(t, "jdoe", got.Platform.Identifier)
	assert.Equal(t, "abc.def.ghi", got.Platform.Token)
	assert.Equal(t, "catppuccin-mocha", got.Appearance.Theme)
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general]\nrecent_days = 30\n"), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.General.RecentDays)
	assert.Equal(t, 5, cfg.General.TopProjects)
	assert.Equal(t, "flexoki-dark", cfg.Appearance.Theme)
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general\n"), 0o600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Platform.Token = "from-config"
	cfg.Platform.Identifier = "config-user"
	cfg.Platform.BaseURL = "https://config.example"

	t.Setenv(EnvToken, "")
	t.Setenv(EnvIdentifier, "")
	t.Setenv(EnvPassword, "")
	t.Setenv(EnvBaseURL, "")
	assert.Equal(t, "from-config", GetToken(cfg))
	assert.Equal(t, "https://config.example", GetBaseURL(cfg))
	id, pw := GetCredentials(cfg)
	assert.Equal(t, "config-user", id)
	assert.Empty(t, pw)

	t.Setenv(EnvToken, "from-env")
	t.Setenv(EnvIdentifier, "env-user")
	t.Setenv(EnvPassword, "hunter2")
	t.Setenv(EnvBaseURL, "https://env.example")
	assert.Equal(t, "from-env", GetToken(cfg))
	assert.Equal(t, "https://env.example", GetBaseURL(cfg))
	id, pw = GetCredentials(cfg)
	assert.Equal(t, "env-user", id)
	assert.Equal(t, "hunter2", pw)
}

func TestLoadEnv_MissingFileIsNotAnError(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadEnv_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("XPDASH_IDENTIFIER=dotenv-user\n"), 0o600))
	t.Setenv(EnvIdentifier, "")
	require.NoError(t, os.Unsetenv(EnvIdentifier))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "dotenv-user", os.Getenv(EnvIdentifier))
}

func TestCacheTTL(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL())

	cfg.General.CacheTTLMinutes = -3
	assert.Equal(t, time.Duration(0), cfg.CacheTTL())
}

func TestRuleSet_DefaultWhenUnset(t *testing.T) {
	rs, err := DefaultConfig().RuleSet()
	require.NoError(t, err)
	assert.Equal(t, category.DefaultRuleSet(), rs)
}

func TestRuleSet_InlineOverridesMergeIntoDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Categories.Overrides = map[string][]string{"my-blog": {category.Frontend}}

	rs, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, []string{category.Frontend}, rs.Overrides["my-blog"])
	assert.Contains(t, rs.Overrides, "lem-in")
}

func TestRuleSet_InlineRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[[categories.rules]]
name = "Systems"
patterns = ["kernel", "shell"]

[[categories.rules]]
name = "Web"
patterns = ["html"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	rs, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"Systems", "Web"}, rs.Categories())
}

func TestRuleSet_InlineDuplicateRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Categories.Rules = []category.Rule{
		{Category: "A", Patterns: []string{"a"}},
		{Category: "A", Patterns: []string{"b"}},
	}
	_, err := cfg.RuleSet()
	assert.ErrorIs(t, err, category.ErrDuplicateCategory)
}

func TestRuleSet_FileWinsOverInline(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("rules:\n  - name: Ops\n    patterns: [docker]\n"), 0o600))

	cfg := DefaultConfig()
	cfg.Categories.RulesFile = rules
	cfg.Categories.Rules = []category.Rule{{Category: "Ignored", Patterns: []string{"x"}}}

	rs, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ops"}, rs.Categories())
}
