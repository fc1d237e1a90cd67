package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_DefaultRules(t *testing.T) {
	c := NewClassifier(DefaultRuleSet())

	tests := []struct {
		name string
		want []string
	}{
		{"real-time-forum", []string{Backend, Frontend, Databases, SystemDesign}},
		{"forum", []string{Backend, Databases, SystemDesign}},
		{"social-network", []string{Backend, Frontend, Databases, SystemDesign}},
		{"groupie-tracker", []string{Backend, Frontend, SystemDesign}},
		{"lem-in", []string{Algorithms, SystemDesign}},
		{"push-swap", []string{Algorithms}},
		{"make-your-game", nil},
		{"unrelated-xyz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.name))
		})
	}
}

func TestClassify_PatternUnion(t *testing.T) {
	c := NewClassifier(DefaultRuleSet())

	assert.Contains(t, c.Classify("api-server"), Backend)
	// "ascii-art-web" hits both Algorithms and Frontend.
	assert.ElementsMatch(t, []string{Frontend, Algorithms}, c.Classify("ascii-art-web"))
}

func TestClassify_PatternsCaseInsensitive(t *testing.T) {
	c := NewClassifier(DefaultRuleSet())

	assert.Equal(t, []string{Frontend}, c.Classify("HTML-Page"))
}

func TestClassify_OverrideIsExactMatch(t *testing.T) {
	c := NewClassifier(DefaultRuleSet())

	// Override keys are case-sensitive, so only pattern matches apply.
	got := c.Classify("Lem-In")
	assert.Equal(t, []string{SystemDesign}, got)
}

func TestClassify_OverrideUnknownCategoryAppended(t *testing.T) {
	rs := RuleSet{
		Rules: []Rule{
			{Category: "A", Patterns: []string{"alpha"}},
			{Category: "B", Patterns: []string{"beta"}},
		},
		Overrides: map[string][]string{
			"alpha-beta": {"Z", "A", "Z"},
		},
	}
	c := NewClassifier(rs)

	assert.Equal(t, []string{"A", "B", "Z"}, c.Classify("alpha-beta"))
	assert.True(t, c.Known("A"))
	assert.False(t, c.Known("Z"))
}

func TestClassify_DeterministicOrder(t *testing.T) {
	c := NewClassifier(DefaultRuleSet())

	first := c.Classify("social-network")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Classify("social-network"))
	}
}

func TestNewClassifier_DoesNotAliasRuleSet(t *testing.T) {
	rs := DefaultRuleSet()
	c := NewClassifier(rs)

	rs.Overrides["lem-in"][0] = "Mutated"
	rs.Rules[0].Patterns[0] = "zzz"

	assert.Equal(t, []string{Algorithms, SystemDesign}, c.Classify("lem-in"))
	assert.Contains(t, c.Classify("go-reloaded"), Backend)
}
