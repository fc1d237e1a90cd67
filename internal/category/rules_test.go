package category

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleSet_Categories(t *testing.T) {
	rs := DefaultRuleSet()

	assert.Equal(t, []string{Backend, Frontend, Algorithms, Databases, SystemDesign}, rs.Categories())
	assert.NoError(t, rs.Validate())
	assert.False(t, rs.IsZero())
}

func TestDefaultRuleSet_FreshCopy(t *testing.T) {
	a := DefaultRuleSet()
	a.Rules[0].Category = "changed"

	b := DefaultRuleSet()
	assert.Equal(t, Backend, b.Rules[0].Category)
}

func TestValidate(t *testing.T) {
	err := RuleSet{Rules: []Rule{{Category: " "}}}.Validate()
	assert.ErrorIs(t, err, ErrEmptyCategory)

	err = RuleSet{Rules: []Rule{{Category: "A"}, {Category: "A"}}}.Validate()
	assert.ErrorIs(t, err, ErrDuplicateCategory)
}

func writeRules(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRuleSet_TOML(t *testing.T) {
	path := writeRules(t, "rules.toml", `
[[rules]]
name = "Graphics"
patterns = ["canvas", "svg"]

[[rules]]
name = "Backend"
patterns = ["go"]

[overrides]
"make-your-game" = ["Graphics"]
`)

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Graphics", "Backend"}, rs.Categories())
	assert.Equal(t, []string{"Graphics"}, rs.Overrides["make-your-game"])
}

func TestLoadRuleSet_YAML(t *testing.T) {
	path := writeRules(t, "rules.yaml", `
rules:
  - name: Graphics
    patterns: [canvas, svg]
overrides:
  make-your-game: [Graphics]
`)

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Graphics"}, rs.Categories())
	assert.Equal(t, []string{"canvas", "svg"}, rs.Rules[0].Patterns)

	c := NewClassifier(rs)
	assert.Equal(t, []string{"Graphics"}, c.Classify("make-your-game"))
}

func TestLoadRuleSet_Errors(t *testing.T) {
	_, err := LoadRuleSet(writeRules(t, "rules.json", `{}`))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadRuleSet(writeRules(t, "dup.yml", "rules:\n  - name: A\n  - name: A\n"))
	assert.ErrorIs(t, err, ErrDuplicateCategory)

	_, err = LoadRuleSet(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
