package stevedore

// A DependencySet is the aggregate state of one search branch: for every
// dependency seen so far, the ordered set of versions still in play, plus
// the set of dependencies that have not yet been committed to a single
// expanded choice. The root call starts from an empty set; every branch
// point deep-copies it, so sibling branches never share candidate storage.
type DependencySet struct {
	sets map[DependencyIdentifier]*VersionSet

	// unresolved holds every known dependency that has not yet had a pinned
	// version's transitive requirements applied. The search is complete when
	// this drains.
	unresolved map[DependencyIdentifier]struct{}

	// rejected flips when any candidate set empties; the branch is then dead
	// and only good for reporting what emptied it.
	rejected bool
	conflict *conflict
}

// conflict records which dependency ran out of candidates, and under which
// specifier, when a branch is rejected.
type conflict struct {
	ident DependencyIdentifier
	spec  Specifier
}

func newDependencySet() *DependencySet {
	return &DependencySet{
		sets:       make(map[DependencyIdentifier]*VersionSet),
		unresolved: make(map[DependencyIdentifier]struct{}),
	}
}

// versions returns the live candidate set for id, if id is known.
func (ds *DependencySet) versions(id DependencyIdentifier) (*VersionSet, bool) {
	vs, ok := ds.sets[id]
	return vs, ok
}

// install introduces a dependency with its initial (already filtered)
// candidate set. The dependency starts unresolved; an empty set rejects the
// branch on the spot.
func (ds *DependencySet) install(id DependencyIdentifier, vs *VersionSet, spec Specifier) {
	ds.sets[id] = vs
	ds.unresolved[id] = struct{}{}
	if vs.Len() == 0 {
		ds.reject(id, spec)
	}
}

// constrain tightens an existing candidate set in place. Specifiers only
// ever tighten; narrowing twice with the same specifier is a no-op the
// second time.
func (ds *DependencySet) constrain(id DependencyIdentifier, spec Specifier) {
	vs := ds.sets[id]
	vs.RetainMatching(spec)
	if vs.Len() == 0 {
		ds.reject(id, spec)
	}
}

// constrainRevision narrows an existing candidate set to the versions pinned
// at exactly rev. Used when a ref specifier lands on an already-known
// dependency.
func (ds *DependencySet) constrainRevision(id DependencyIdentifier, rev Revision, spec Specifier) {
	vs := ds.sets[id]
	vs.Retain(func(v ConcreteVersion) bool {
		return v.Revision() == rev
	})
	if vs.Len() == 0 {
		ds.reject(id, spec)
	}
}

func (ds *DependencySet) reject(id DependencyIdentifier, spec Specifier) {
	ds.rejected = true
	if ds.conflict == nil {
		ds.conflict = &conflict{ident: id, spec: spec}
	}
}

// markResolved commits a dependency: its pinned version's requirements have
// been applied to this branch.
func (ds *DependencySet) markResolved(id DependencyIdentifier) {
	delete(ds.unresolved, id)
}

// Complete reports whether every known dependency has been resolved. An
// accepted set is one that is complete and not rejected; the final answer
// takes the head of each candidate set.
func (ds *DependencySet) Complete() bool {
	return len(ds.unresolved) == 0
}

func (ds *DependencySet) Rejected() bool {
	return ds.rejected
}

// Clone returns an independent deep copy: every candidate set is copied, so
// mutations on one branch cannot leak into another.
func (ds *DependencySet) Clone() *DependencySet {
	c := newDependencySet()
	for id, vs := range ds.sets {
		c.sets[id] = vs.Copy()
	}
	for id := range ds.unresolved {
		c.unresolved[id] = struct{}{}
	}
	c.rejected = ds.rejected
	c.conflict = ds.conflict
	return c
}

// unresolvedSorted returns the unresolved identifiers in deterministic
// order. Branching always picks the first of these, which keeps resolution
// results identical across runs and platforms.
func (ds *DependencySet) unresolvedSorted() []DependencyIdentifier {
	ids := make([]DependencyIdentifier, 0, len(ds.unresolved))
	for id := range ds.unresolved {
		ids = append(ids, id)
	}
	sortIdentifiers(ids)
	return ids
}

// popSubSet branches the search. It picks the first unresolved dependency,
// clones the whole set with that dependency collapsed to its current best
// candidate, and permanently removes that candidate from the receiver - so a
// later call retries the next-best alternative. It returns the clone and the
// (dependency, version) pin it embodies.
//
// The second return is false when there is nothing left to branch on: either
// the set is complete, or the picked dependency has no candidates left, in
// which case the receiver is rejected.
func (ds *DependencySet) popSubSet() (*DependencySet, atom, bool) {
	ids := ds.unresolvedSorted()
	if len(ids) == 0 {
		return nil, atom{}, false
	}

	id := ids[0]
	vs := ds.sets[id]
	head, ok := vs.Best()
	if !ok {
		// Every alternative for this dependency has been tried and failed.
		ds.reject(id, nil)
		return nil, atom{}, false
	}

	sub := ds.Clone()
	sub.sets[id] = NewVersionSet(head)
	vs.Remove(head)

	return sub, atom{ident: id, version: head}, true
}

// pins flattens an accepted set into the head choice for each dependency.
func (ds *DependencySet) pins() map[DependencyIdentifier]Revision {
	m := make(map[DependencyIdentifier]Revision, len(ds.sets))
	for id, vs := range ds.sets {
		if v, ok := vs.Best(); ok {
			m[id] = v.Revision()
		}
	}
	return m
}
