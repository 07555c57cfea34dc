package stevedore

import (
	"fmt"
	"strings"
	"sync"
)

// Helpers for assembling dependency graph fixtures tersely. They panic on
// malformed input; a bad fixture is a bug in the test, not a condition to
// handle.

// mkreq parses "name <specifier>" into a Requirement, with "*" (or nothing)
// standing for any version. The specifier half uses Depfile syntax, so
// `B ~> 1.0.0`, `B == 2.2.0` and `B "develop"` all work.
func mkreq(s string) Requirement {
	name, spectext, _ := strings.Cut(s, " ")
	if spectext == "*" {
		spectext = ""
	}
	spec, err := ParseSpecifier(spectext)
	if err != nil {
		panic(fmt.Sprintf("bad requirement %q: %s", s, err))
	}
	return Requirement{Ident: ghid(name), Spec: spec}
}

func mkreqmap(reqs ...string) map[DependencyIdentifier]Specifier {
	m := make(map[DependencyIdentifier]Specifier, len(reqs))
	for _, s := range reqs {
		req := mkreq(s)
		if _, dup := m[req.Ident]; dup {
			panic(fmt.Sprintf("duplicate root requirement on %s", req.Ident))
		}
		m[req.Ident] = req.Spec
	}
	return m
}

// A depspec is one (dependency, version) in a fixture graph, along with the
// requirements that version declares.
type depspec struct {
	id   DependencyIdentifier
	v    Revision
	deps []Requirement
}

// mkds parses "name version" plus requirement strings into a depspec.
func mkds(nv string, deps ...string) depspec {
	name, v, found := strings.Cut(nv, " ")
	if !found {
		panic(fmt.Sprintf("bad depspec header %q", nv))
	}
	ds := depspec{id: ghid(name), v: Revision(v)}
	for _, d := range deps {
		ds.deps = append(ds.deps, mkreq(d))
	}
	return ds
}

// mkpins parses "name revision" pairs into an expected-result map.
func mkpins(pairs ...string) map[DependencyIdentifier]Revision {
	m := make(map[DependencyIdentifier]Revision, len(pairs))
	for _, p := range pairs {
		name, rev, found := strings.Cut(p, " ")
		if !found {
			panic(fmt.Sprintf("bad pin %q", p))
		}
		m[ghid(name)] = Revision(rev)
	}
	return m
}

// fixtureSM serves a fixture graph as a SourceManager, counting raw calls so
// tests can assert on memoization.
type fixtureSM struct {
	specs  []depspec
	refs   map[string]Revision // "name refname" -> revision
	broken map[string]error    // name -> ListVersions failure

	mu        sync.Mutex
	listCalls map[string]int
	depCalls  map[string]int
}

func newFixtureSM(specs []depspec) *fixtureSM {
	return &fixtureSM{
		specs:     specs,
		listCalls: make(map[string]int),
		depCalls:  make(map[string]int),
	}
}

func (sm *fixtureSM) ListVersions(id DependencyIdentifier) ([]Revision, error) {
	sm.mu.Lock()
	sm.listCalls[id.Name]++
	sm.mu.Unlock()

	if err, bad := sm.broken[id.Name]; bad {
		return nil, err
	}

	var revs []Revision
	for _, ds := range sm.specs {
		if ds.id == id {
			revs = append(revs, ds.v)
		}
	}
	if revs == nil {
		return nil, fmt.Errorf("unknown dependency %s", id)
	}
	return revs, nil
}

func (sm *fixtureSM) GetDependencies(id DependencyIdentifier, rev Revision) ([]Requirement, error) {
	sm.mu.Lock()
	sm.depCalls[id.Name+" "+string(rev)]++
	sm.mu.Unlock()

	want := NewConcreteVersion(rev)
	for _, ds := range sm.specs {
		if ds.id == id && NewConcreteVersion(ds.v).Equal(want) {
			return ds.deps, nil
		}
	}
	return nil, fmt.Errorf("no fixture for %s at %s", id, rev)
}

func (sm *fixtureSM) ResolveReference(id DependencyIdentifier, name string) (Revision, error) {
	rev, ok := sm.refs[id.Name+" "+name]
	if !ok {
		return "", fmt.Errorf("no reference %q for %s", name, id)
	}
	return rev, nil
}
