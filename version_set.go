package stevedore

import (
	"fmt"
	"sort"
	"strings"
)

// A VersionSet is a sorted, duplicate-free collection of the concrete
// versions still under consideration for one dependency. Index 0 is always
// the most preferred remaining candidate under the best-first order of
// compareConcrete. Insert, Remove and Contains are all O(log n).
type VersionSet struct {
	vs []ConcreteVersion
}

// NewVersionSet builds a set from the given versions, sorting and
// deduplicating them.
func NewVersionSet(vs ...ConcreteVersion) *VersionSet {
	s := &VersionSet{}
	for _, v := range vs {
		s.Insert(v)
	}
	return s
}

// search locates v's position under the best-first order, reporting whether
// an equal version is already present there.
func (s *VersionSet) search(v ConcreteVersion) (int, bool) {
	i := sort.Search(len(s.vs), func(i int) bool {
		return compareConcrete(s.vs[i], v) >= 0
	})
	if i < len(s.vs) && compareConcrete(s.vs[i], v) == 0 {
		return i, true
	}
	return i, false
}

func (s *VersionSet) Len() int {
	return len(s.vs)
}

// At returns the candidate at position i; position 0 is the best remaining.
func (s *VersionSet) At(i int) ConcreteVersion {
	return s.vs[i]
}

// Best returns the most preferred remaining candidate, if any remain.
func (s *VersionSet) Best() (ConcreteVersion, bool) {
	if len(s.vs) == 0 {
		return ConcreteVersion{}, false
	}
	return s.vs[0], true
}

// Insert adds v in order, reporting whether it was actually added. Inserting
// a version already present is a no-op.
func (s *VersionSet) Insert(v ConcreteVersion) bool {
	i, found := s.search(v)
	if found {
		return false
	}
	s.vs = append(s.vs, ConcreteVersion{})
	copy(s.vs[i+1:], s.vs[i:])
	s.vs[i] = v
	return true
}

// Remove drops v from the set, reporting whether it was present.
func (s *VersionSet) Remove(v ConcreteVersion) bool {
	i, found := s.search(v)
	if !found {
		return false
	}
	s.vs = append(s.vs[:i], s.vs[i+1:]...)
	return true
}

// Contains reports whether an equal version is in the set.
func (s *VersionSet) Contains(v ConcreteVersion) bool {
	_, found := s.search(v)
	return found
}

// Retain drops, in place, every candidate failing the predicate.
func (s *VersionSet) Retain(pred func(ConcreteVersion) bool) {
	kept := s.vs[:0]
	for _, v := range s.vs {
		if pred(v) {
			kept = append(kept, v)
		}
	}
	s.vs = kept
}

// RetainMatching drops every candidate the specifier does not admit.
func (s *VersionSet) RetainMatching(spec Specifier) {
	s.Retain(spec.Matches)
}

// Copy returns an independent clone. Backtracking explores alternatives on
// clones so that a rejected branch never disturbs its parent's candidates.
func (s *VersionSet) Copy() *VersionSet {
	vs := make([]ConcreteVersion, len(s.vs))
	copy(vs, s.vs)
	return &VersionSet{vs: vs}
}

func (s *VersionSet) String() string {
	strs := make([]string, len(s.vs))
	for i, v := range s.vs {
		strs[i] = v.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(strs, ", "))
}
