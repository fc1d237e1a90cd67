package category

import "strings"

// Classifier maps project names to categories using one RuleSet.
// It is safe for concurrent use once built.
type Classifier struct {
	rules     []Rule
	order     map[string]int
	overrides map[string][]string
}

// NewClassifier prepares rs for classification. Patterns are lower-cased once.
func NewClassifier(rs RuleSet) *Classifier {
	c := &Classifier{
		rules:     make([]Rule, len(rs.Rules)),
		order:     make(map[string]int, len(rs.Rules)),
		overrides: make(map[string][]string, len(rs.Overrides)),
	}
	for i, r := range rs.Rules {
		patterns := make([]string, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			if p = strings.ToLower(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		c.rules[i] = Rule{Category: r.Category, Patterns: patterns}
		if _, ok := c.order[r.Category]; !ok {
			c.order[r.Category] = i
		}
	}
	for k, v := range rs.Overrides {
		c.overrides[k] = append([]string(nil), v...)
	}
	return c
}

// Categories returns the classifier's closed category set in rule order.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r.Category)
	}
	return out
}

// Known reports whether name is one of the rule-set categories.
func (c *Classifier) Known(name string) bool {
	_, ok := c.order[name]
	return ok
}

// Classify returns every category subjectName belongs to, or nil.
// Pattern matches are case-insensitive; the override lookup is exact.
// Categories come back in rule order, followed by any override-only
// categories in the order the override lists them.
func (c *Classifier) Classify(subjectName string) []string {
	lower := strings.ToLower(subjectName)

	hit := make([]bool, len(c.rules))
	for i, r := range c.rules {
		for _, p := range r.Patterns {
			if strings.Contains(lower, p) {
				hit[i] = true
				break
			}
		}
	}

	var extra []string
	for _, name := range c.overrides[subjectName] {
		if idx, ok := c.order[name]; ok {
			hit[idx] = true
			continue
		}
		if !containsString(extra, name) {
			extra = append(extra, name)
		}
	}

	var out []string
	for i, r := range c.rules {
		if hit[i] && !containsString(out, r.Category) {
			out = append(out, r.Category)
		}
	}
	return append(out, extra...)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
