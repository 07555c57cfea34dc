package stevedore

import (
	"fmt"

	"github.com/Masterminds/semver"
)

var (
	none = noneSpecifier{}
	anyS = anySpecifier{}
)

// A Specifier provides structured limitations on the versions that are
// admissible for a given dependency.
//
// The set of implementations is closed; the private method enforces that, as
// the intersection algebra is complete only over the types defined here.
type Specifier interface {
	fmt.Stringer
	// Matches indicates if the provided version is allowed by the Specifier.
	Matches(ConcreteVersion) bool
	// MatchesAny indicates if the intersection of the Specifier with the
	// provided Specifier could allow any version at all.
	MatchesAny(Specifier) bool
	// Intersect computes the tightest Specifier admitting exactly the
	// versions allowed by both the receiver and the argument. It returns the
	// none specifier (see IsNone) when no version could satisfy both.
	Intersect(Specifier) Specifier
	_private()
}

func (anySpecifier) _private()        {}
func (noneSpecifier) _private()       {}
func (atLeastSpecifier) _private()    {}
func (compatibleSpecifier) _private() {}
func (exactSpecifier) _private()      {}
func (refSpecifier) _private()        {}

// Any returns the unbounded specifier, matched by every version.
func Any() Specifier {
	return anyS
}

// IsAny indicates if the provided specifier is the wildcard "Any" specifier.
func IsAny(s Specifier) bool {
	_, ok := s.(anySpecifier)
	return ok
}

// IsNone indicates if the provided specifier is the empty set - the result of
// intersecting two disjoint specifiers.
func IsNone(s Specifier) bool {
	_, ok := s.(noneSpecifier)
	return ok
}

// IsRef indicates if the provided specifier pins a named git reference
// rather than constraining by version order.
func IsRef(s Specifier) bool {
	_, ok := s.(refSpecifier)
	return ok
}

// AtLeast returns a specifier admitting any semantic version at or above v.
func AtLeast(v *semver.Version) Specifier {
	return atLeastSpecifier{v: v}
}

// CompatibleWith returns a specifier admitting semantic versions at or above
// v that stay within v's compatibility window: up to the next major version,
// or for 0.x versions, up to the next minor version.
func CompatibleWith(v *semver.Version) Specifier {
	return compatibleSpecifier{v: v}
}

// Exactly returns a specifier admitting only the given concrete version.
func Exactly(v ConcreteVersion) Specifier {
	return exactSpecifier{v: v}
}

// Ref returns a specifier pinning a dependency to an arbitrary named
// reference - a branch, tag, or commit. It takes no part in semantic
// ordering; the resolver materializes it by asking the source to resolve the
// name to a concrete revision.
func Ref(name string) Specifier {
	return refSpecifier{name: name}
}

type anySpecifier struct{}

func (anySpecifier) String() string {
	return "*"
}

func (anySpecifier) Matches(ConcreteVersion) bool {
	return true
}

func (anySpecifier) MatchesAny(Specifier) bool {
	return true
}

func (anySpecifier) Intersect(s Specifier) Specifier {
	return s
}

// noneSpecifier is the empty set - it matches no versions.
type noneSpecifier struct{}

func (noneSpecifier) String() string {
	return ""
}

func (noneSpecifier) Matches(ConcreteVersion) bool {
	return false
}

func (noneSpecifier) MatchesAny(Specifier) bool {
	return false
}

func (noneSpecifier) Intersect(Specifier) Specifier {
	return none
}

type atLeastSpecifier struct {
	v *semver.Version
}

func (s atLeastSpecifier) String() string {
	return fmt.Sprintf(">= %s", s.v)
}

func (s atLeastSpecifier) Matches(v ConcreteVersion) bool {
	sv, ok := v.Semantic()
	if !ok {
		return false
	}
	return sv.Compare(s.v) >= 0
}

func (s atLeastSpecifier) MatchesAny(s2 Specifier) bool {
	return !IsNone(s.Intersect(s2))
}

func (s atLeastSpecifier) Intersect(s2 Specifier) Specifier {
	switch ts := s2.(type) {
	case anySpecifier:
		return s
	case atLeastSpecifier:
		if s.v.Compare(ts.v) >= 0 {
			return s
		}
		return ts
	case compatibleSpecifier:
		return intersectAtLeastCompatible(s, ts)
	case exactSpecifier:
		return ts.Intersect(s)
	}

	return none
}

type compatibleSpecifier struct {
	v *semver.Version
}

func (s compatibleSpecifier) String() string {
	return fmt.Sprintf("~> %s", s.v)
}

// inWindow reports whether sv stays within base's compatibility window.
// Above 1.0.0 the window spans one major version; 0.x releases are only
// compatible across patch bumps, so the window narrows to one minor version.
func inWindow(base, sv *semver.Version) bool {
	if base.Major() > 0 {
		return sv.Major() == base.Major()
	}
	return sv.Major() == 0 && sv.Minor() == base.Minor()
}

func (s compatibleSpecifier) Matches(v ConcreteVersion) bool {
	sv, ok := v.Semantic()
	if !ok {
		return false
	}
	return sv.Compare(s.v) >= 0 && inWindow(s.v, sv)
}

func (s compatibleSpecifier) MatchesAny(s2 Specifier) bool {
	return !IsNone(s.Intersect(s2))
}

func (s compatibleSpecifier) Intersect(s2 Specifier) Specifier {
	switch ts := s2.(type) {
	case anySpecifier:
		return s
	case atLeastSpecifier:
		return intersectAtLeastCompatible(ts, s)
	case compatibleSpecifier:
		if !inWindow(s.v, ts.v) {
			return none
		}
		if s.v.Compare(ts.v) >= 0 {
			return s
		}
		return ts
	case exactSpecifier:
		return ts.Intersect(s)
	}

	return none
}

// intersectAtLeastCompatible resolves the one asymmetric pairing in the
// algebra. The compatible window wins whenever the floor sits at or below it;
// a floor strictly inside the window tightens the window's lower edge; a
// floor above the window leaves nothing.
func intersectAtLeastCompatible(al atLeastSpecifier, cw compatibleSpecifier) Specifier {
	if al.v.Compare(cw.v) <= 0 {
		return cw
	}
	if inWindow(cw.v, al.v) {
		return compatibleSpecifier{v: al.v}
	}
	return none
}

type exactSpecifier struct {
	v ConcreteVersion
}

func (s exactSpecifier) String() string {
	return fmt.Sprintf("== %s", s.v)
}

func (s exactSpecifier) Matches(v ConcreteVersion) bool {
	return s.v.Equal(v)
}

func (s exactSpecifier) MatchesAny(s2 Specifier) bool {
	return !IsNone(s.Intersect(s2))
}

func (s exactSpecifier) Intersect(s2 Specifier) Specifier {
	switch s2.(type) {
	case anySpecifier:
		return s
	case refSpecifier, noneSpecifier:
		return none
	}

	if s2.Matches(s.v) {
		return s
	}
	return none
}

type refSpecifier struct {
	name string
}

func (s refSpecifier) String() string {
	return fmt.Sprintf("%q", s.name)
}

func (s refSpecifier) Matches(v ConcreteVersion) bool {
	// A ref never participates in ordering; it only ever admits the revision
	// it resolved to, or a candidate literally named after it.
	return string(v.Revision()) == s.name
}

func (s refSpecifier) MatchesAny(s2 Specifier) bool {
	return !IsNone(s.Intersect(s2))
}

func (s refSpecifier) Intersect(s2 Specifier) Specifier {
	switch ts := s2.(type) {
	case anySpecifier:
		return s
	case refSpecifier:
		if s.name == ts.name {
			return s
		}
	}

	return none
}
