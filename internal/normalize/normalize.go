// Package normalize collapses raw vendor descriptions into canonical labels.
package normalize

import (
	"strings"
)

// Rule maps a lower-case description prefix to a canonical label.
type Rule struct {
	Prefix string `yaml:"prefix"`
	Label  string `yaml:"label"`
}

// Table is an ordered list of rules. The first matching rule wins.
type Table []Rule

// Normalizer maps descriptions through a fixed Table.
type Normalizer struct {
	rules Table
}

// New creates a Normalizer owning a copy of table.
func New(table Table) *Normalizer {
	rules := make(Table, len(table))
	copy(rules, table)
	return &Normalizer{rules: rules}
}

// Default returns a Normalizer over DefaultTable.
func Default() *Normalizer {
	return New(DefaultTable())
}

// Normalize lower-cases s and returns the label of the first rule whose
// prefix it starts with, or the lower-cased string if none match.
func (n *Normalizer) Normalize(s string) string {
	raw := strings.ToLower(s)
	for _, r := range n.rules {
		if strings.HasPrefix(raw, r.Prefix) {
			return r.Label
		}
	}
	return raw
}

// Rules returns a copy of the table in enumeration order.
func (n *Normalizer) Rules() Table {
	out := make(Table, len(n.rules))
	copy(out, n.rules)
	return out
}
