package stevedore

// memoSourceManager decorates a SourceManager with the two memoization
// layers one resolution needs: the full sorted candidate list per
// dependency, and the declared requirement list per (dependency, revision)
// pair. Ref resolutions are memoized too, so a branch name pins to a single
// revision for the whole solve even if upstream moves mid-flight.
//
// The backtracking search may revisit the same dependency across a great
// many branches; this layer is what keeps the number of expensive source
// calls at one per distinct key.
type memoSourceManager struct {
	sm SourceManager

	vlists map[DependencyIdentifier]*VersionSet
	deps   map[atomKey][]Requirement
	refs   map[refKey]Revision
}

type atomKey struct {
	ident DependencyIdentifier
	rev   Revision
}

type refKey struct {
	ident DependencyIdentifier
	name  string
}

func newMemoSourceManager(sm SourceManager) *memoSourceManager {
	return &memoSourceManager{
		sm:     sm,
		vlists: make(map[DependencyIdentifier]*VersionSet),
		deps:   make(map[atomKey][]Requirement),
		refs:   make(map[refKey]Revision),
	}
}

// listVersions returns the dependency's full candidate set, sorted best
// first. Callers get a copy; the cached master set is never mutated.
func (c *memoSourceManager) listVersions(id DependencyIdentifier) (*VersionSet, error) {
	if vs, exists := c.vlists[id]; exists {
		return vs.Copy(), nil
	}

	revs, err := c.sm.ListVersions(id)
	if err != nil {
		return nil, err
	}

	vs := &VersionSet{}
	for _, r := range revs {
		vs.Insert(NewConcreteVersion(r))
	}

	c.vlists[id] = vs
	return vs.Copy(), nil
}

func (c *memoSourceManager) getDependencies(a atom) ([]Requirement, error) {
	k := atomKey{ident: a.ident, rev: a.version.Revision()}
	if deps, exists := c.deps[k]; exists {
		return deps, nil
	}

	deps, err := c.sm.GetDependencies(a.ident, a.version.Revision())
	if err != nil {
		return nil, err
	}

	c.deps[k] = deps
	return deps, nil
}

func (c *memoSourceManager) resolveReference(id DependencyIdentifier, name string) (Revision, error) {
	k := refKey{ident: id, name: name}
	if rev, exists := c.refs[k]; exists {
		return rev, nil
	}

	rev, err := c.sm.ResolveReference(id, name)
	if err != nil {
		return "", err
	}

	c.refs[k] = rev
	return rev, nil
}
