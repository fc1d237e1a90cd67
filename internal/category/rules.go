// Package category classifies project names into skill categories.
package category

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Category names used by the default rule set.
const (
	Backend      = "Backend"
	Frontend     = "Frontend"
	Algorithms   = "Algorithms"
	Databases    = "Databases"
	SystemDesign = "System Design"
)

var (
	// ErrEmptyCategory is returned for a rule with no category name.
	ErrEmptyCategory = errors.New("category: rule has empty category name")
	// ErrDuplicateCategory is returned when two rules name the same category.
	ErrDuplicateCategory = errors.New("category: duplicate category")
	// ErrUnsupportedFormat is returned by LoadRuleSet for unknown file extensions.
	ErrUnsupportedFormat = errors.New("category: unsupported rule file format")
)

// Rule files a category when any pattern is a substring of the
// lower-cased project name.
type Rule struct {
	Category string   `toml:"name" yaml:"name"`
	Patterns []string `toml:"patterns" yaml:"patterns"`
}

// RuleSet is an ordered list of rules plus exact-name overrides.
// Override categories are merged with pattern matches, never replacing them.
type RuleSet struct {
	Rules     []Rule              `toml:"rules" yaml:"rules"`
	Overrides map[string][]string `toml:"overrides" yaml:"overrides"`
}

// DefaultRuleSet returns a fresh copy of the built-in rules.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Rules: []Rule{
			{Category: Backend, Patterns: []string{"go", "api", "server", "net-cat", "forum-backend", "groupie-tracker", "real-time-forum"}},
			{Category: Frontend, Patterns: []string{"js", "javascript", "dom", "web", "html", "css", "forum-frontend", "stylize"}},
			{Category: Algorithms, Patterns: []string{"sort", "algorithm", "ascii-art", "blockchain", "push-swap"}},
			{Category: Databases, Patterns: []string{"sql", "database", "forum", "social-network"}},
			{Category: SystemDesign, Patterns: []string{"docker", "architecture", "lem-in", "real-time-forum", "forum", "groupie-tracker", "social-network"}},
		},
		Overrides: map[string][]string{
			"real-time-forum": {Backend, Frontend, SystemDesign, Databases},
			"forum":           {Backend, SystemDesign, Databases},
			"social-network":  {Backend, Frontend, SystemDesign, Databases},
			"groupie-tracker": {Backend, Frontend, SystemDesign},
			"lem-in":          {Algorithms, SystemDesign},
		},
	}
}

// Categories returns the closed category set in rule order.
func (rs RuleSet) Categories() []string {
	out := make([]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		out = append(out, r.Category)
	}
	return out
}

// IsZero reports whether the rule set has no rules and no overrides.
func (rs RuleSet) IsZero() bool {
	return len(rs.Rules) == 0 && len(rs.Overrides) == 0
}

// Validate checks that every rule has a unique, non-empty category name.
// Overrides may name categories outside the rule list; those are ignored
// during aggregation.
func (rs RuleSet) Validate() error {
	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		name := strings.TrimSpace(r.Category)
		if name == "" {
			return fmt.Errorf("%w (rule %d)", ErrEmptyCategory, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		seen[name] = true
	}
	return nil
}

// LoadRuleSet reads a rule set from a .toml, .yaml or .yml file.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("reading rules: %w", err)
	}

	var rs RuleSet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &rs)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rs)
	default:
		return RuleSet{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return RuleSet{}, fmt.Errorf("parsing rules %s: %w", path, err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}
