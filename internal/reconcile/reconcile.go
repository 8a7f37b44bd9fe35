// Package reconcile works out which canonical descriptions still need
// metadata.
package reconcile

import (
	"sort"

	"github.com/cleared-dev/budget/internal/model"
)

// Set is a set of canonical descriptions.
type Set map[string]struct{}

// NewSet builds a Set from descriptions.
func NewSet(descriptions ...string) Set {
	s := make(Set, len(descriptions))
	for _, d := range descriptions {
		s[d] = struct{}{}
	}
	return s
}

// Descriptions collects the unique descriptions of txns.
func Descriptions(txns []model.Transaction) Set {
	s := make(Set)
	for _, t := range txns {
		s[t.Description] = struct{}{}
	}
	return s
}

// Has reports whether d is in the set.
func (s Set) Has(d string) bool {
	_, ok := s[d]
	return ok
}

// Add inserts descriptions into the set.
func (s Set) Add(descriptions ...string) {
	for _, d := range descriptions {
		s[d] = struct{}{}
	}
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Reconcile returns the members of current with no stored metadata row.
// Neither argument is modified.
func Reconcile(current Set, stored []model.DescriptionMetadata) Set {
	known := make(Set, len(stored))
	for _, md := range stored {
		known[md.Description] = struct{}{}
	}

	missing := make(Set)
	for d := range current {
		if !known.Has(d) {
			missing[d] = struct{}{}
		}
	}
	return missing
}
