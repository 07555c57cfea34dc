package stevedore

import (
	"sort"

	"github.com/Masterminds/semver"
)

// A Revision is an opaque, already-concrete identifier for one selectable
// state of a dependency's repository - typically a tag name, branch head
// commit, or bare commit hash. Two Revisions are equal iff their strings are.
type Revision string

func (r Revision) String() string {
	return string(r)
}

// parseSemantic attempts to interpret a revision string as a bare semantic
// version: an optional leading "v", then up to three dot-separated numeric
// components, missing components defaulting to zero. Anything carrying a
// pre-release or build suffix (e.g. "2.8-alpha") is not semantic for our
// purposes, and neither is anything the semver package refuses outright.
func parseSemantic(r Revision) (*semver.Version, bool) {
	sv, err := semver.NewVersion(string(r))
	if err != nil {
		return nil, false
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return nil, false
	}
	return sv, true
}

// A ConcreteVersion is a single selectable version of a dependency: the
// pinned Revision, paired with the semantic version parsed from it, when the
// revision string admits one. It is immutable after construction; the
// semantic half is always derived from the revision and can never disagree
// with it.
type ConcreteVersion struct {
	rev Revision
	sv  *semver.Version
}

// NewConcreteVersion wraps a Revision, deriving its semantic version if the
// revision string parses as one.
func NewConcreteVersion(r Revision) ConcreteVersion {
	sv, ok := parseSemantic(r)
	if !ok {
		return ConcreteVersion{rev: r}
	}
	return ConcreteVersion{rev: r, sv: sv}
}

func (v ConcreteVersion) String() string {
	return string(v.rev)
}

// Revision returns the underlying pinned identifier.
func (v ConcreteVersion) Revision() Revision {
	return v.rev
}

// Semantic returns the parsed semantic version, if the revision carries one.
func (v ConcreteVersion) Semantic() (*semver.Version, bool) {
	if v.sv == nil {
		return nil, false
	}
	return v.sv, true
}

// Equal reports whether two concrete versions denote the same version. When
// both sides parsed as semantic, the semantic versions decide - "1.2.0" and
// "v1.2.0" are the same version under different tag spellings. Otherwise the
// revisions themselves must match.
func (v ConcreteVersion) Equal(o ConcreteVersion) bool {
	return compareConcrete(v, o) == 0
}

// compareConcrete imposes the "best first" total order on concrete versions:
// a negative result means a is preferred over b. Semantic versions always
// precede non-semantic ones; two semantic versions order newest-first; two
// non-semantic revisions order lexicographically descending, which at least
// keeps the order stable across runs.
func compareConcrete(a, b ConcreteVersion) int {
	switch {
	case a.sv != nil && b.sv == nil:
		return -1
	case a.sv == nil && b.sv != nil:
		return 1
	case a.sv != nil && b.sv != nil:
		return -a.sv.Compare(b.sv)
	}

	switch {
	case a.rev > b.rev:
		return -1
	case a.rev < b.rev:
		return 1
	}
	return 0
}

// bestFirstSorter sorts a version slice into the order the resolver explores
// candidates: newest semantic versions up front, non-semantic revisions last.
type bestFirstSorter []ConcreteVersion

func (vs bestFirstSorter) Len() int {
	return len(vs)
}

func (vs bestFirstSorter) Swap(i, j int) {
	vs[i], vs[j] = vs[j], vs[i]
}

func (vs bestFirstSorter) Less(i, j int) bool {
	return compareConcrete(vs[i], vs[j]) < 0
}

func sortBestFirst(vs []ConcreteVersion) {
	sort.Sort(bestFirstSorter(vs))
}
