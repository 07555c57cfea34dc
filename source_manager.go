package stevedore

import "sort"

// A DependencyIdentifier names a dependency independent of any version:
// where it comes from, and what it is called there. Equality is structural,
// and the type is usable as a map key.
type DependencyIdentifier struct {
	// Origin locates the dependency's source - e.g. "github.com/ReactiveCocoa"
	// for a github-hosted dependency, or the remote URL's directory part for a
	// raw git origin.
	Origin string
	// Name is the dependency's name within its origin.
	Name string
}

func (id DependencyIdentifier) String() string {
	if id.Origin == "" {
		return id.Name
	}
	return id.Origin + "/" + id.Name
}

// less orders identifiers by origin, then name. Everything the resolver
// iterates walks identifiers in this order, which is what makes resolution
// deterministic across runs.
func (id DependencyIdentifier) less(o DependencyIdentifier) bool {
	if id.Origin != o.Origin {
		return id.Origin < o.Origin
	}
	return id.Name < o.Name
}

func sortIdentifiers(ids []DependencyIdentifier) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].less(ids[j])
	})
}

// A Requirement is one declared dependency edge: an identifier plus the
// specifier limiting which of its versions are acceptable.
type Requirement struct {
	Ident DependencyIdentifier
	Spec  Specifier
}

// An atom is one concrete hypothesis of the search: this dependency, at this
// version.
type atom struct {
	ident   DependencyIdentifier
	version ConcreteVersion
}

// A SourceManager supplies the resolver with everything it cannot compute
// in-memory. Implementations own all I/O - listing a repository's selectable
// revisions, reading a candidate's manifest, resolving a mutable reference -
// and may be arbitrarily slow; the resolver calls them synchronously and
// memoizes every answer for the duration of a resolve (see memoSourceManager).
//
// A returned error from any method is fatal to the resolution that made the
// call; the resolver performs no retries.
type SourceManager interface {
	// ListVersions returns every revision selectable for the dependency, in
	// any order. The resolver sorts.
	ListVersions(id DependencyIdentifier) ([]Revision, error)

	// GetDependencies returns exactly the requirements declared by the one
	// candidate (id, rev), as read from its own manifest. An empty slice
	// means a leaf dependency.
	GetDependencies(id DependencyIdentifier, rev Revision) ([]Requirement, error)

	// ResolveReference resolves a mutable name - branch, tag, or symbolic
	// ref - to the concrete revision it points at right now. It is consulted
	// only for Ref specifiers.
	ResolveReference(id DependencyIdentifier, name string) (Revision, error)
}
