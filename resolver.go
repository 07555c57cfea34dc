package stevedore

import (
	"github.com/sirupsen/logrus"
)

// A Resolver picks exactly one revision per dependency such that the root
// requirements and every selected version's own transitive requirements all
// hold at once, or reports that no such assignment exists.
type Resolver interface {
	Resolve(reqs map[DependencyIdentifier]Specifier) (Result, error)
}

// NewResolver returns a Resolver backed by the given source. A nil logger
// gets a default logrus logger (which logs at Info, so solver internals stay
// quiet unless the caller opts in to Debug).
func NewResolver(sm SourceManager, l *logrus.Logger) Resolver {
	if l == nil {
		l = logrus.New()
	}

	return &resolver{
		sm: sm,
		l:  l,
	}
}

type resolver struct {
	l  *logrus.Logger
	sm SourceManager
}

func (r *resolver) Resolve(reqs map[DependencyIdentifier]Specifier) (Result, error) {
	// All mutable state lives on the run, so one Resolver can serve
	// concurrent Resolve calls; each run gets fresh caches.
	run := &solveRun{
		l:  r.l,
		sm: newMemoSourceManager(r.sm),
	}
	return run.solve(reqs)
}

// solveRun is the state of a single resolution: the memoized source, the
// attempt counter, and the conflicts collected from rejected branches for
// the final error should the whole search exhaust.
type solveRun struct {
	l        *logrus.Logger
	sm       *memoSourceManager
	attempts int
	fails    []failedBranch
}

func (sr *solveRun) solve(reqs map[DependencyIdentifier]Specifier) (Result, error) {
	ids := make([]DependencyIdentifier, 0, len(reqs))
	for id := range reqs {
		ids = append(ids, id)
	}
	sortIdentifiers(ids)

	root := make([]Requirement, 0, len(ids))
	for _, id := range ids {
		root = append(root, Requirement{Ident: id, Spec: reqs[id]})
	}

	if sr.l.Level >= logrus.DebugLevel {
		sr.l.WithField("reqcount", len(root)).Debug("Seeding dependency set from root requirements")
	}

	ds := newDependencySet()
	if err := sr.narrow(ds, root); err != nil {
		return nil, err
	}
	if ds.Rejected() {
		return nil, &unsatisfiableError{ident: ds.conflict.ident, spec: ds.conflict.spec}
	}

	sol, err := sr.explore(ds)
	if err != nil {
		return nil, err
	}
	if sol == nil {
		return nil, &exhaustedError{fails: sr.fails}
	}

	if sr.l.Level >= logrus.InfoLevel {
		sr.l.WithFields(logrus.Fields{
			"deps":     len(sol.sets),
			"attempts": sr.attempts,
		}).Info("Resolution complete")
	}

	return result{p: sol.pins(), att: sr.attempts}, nil
}

// narrow applies a batch of requirements to the branch: dependencies seen
// for the first time get their full candidate list fetched (through the
// cache) and filtered; already-known dependencies get tightened in place.
// Ref specifiers are materialized here by resolving the named reference to a
// concrete revision.
//
// A non-nil error is a fatal collaborator failure. A rejected branch is not
// an error; the caller inspects ds.
func (sr *solveRun) narrow(ds *DependencySet, reqs []Requirement) error {
	for _, req := range reqs {
		if rs, ok := req.Spec.(refSpecifier); ok {
			rev, err := sr.sm.resolveReference(req.Ident, rs.name)
			if err != nil {
				return &sourceError{ident: req.Ident, op: "resolve reference", err: err}
			}
			if _, known := ds.versions(req.Ident); known {
				ds.constrainRevision(req.Ident, rev, req.Spec)
			} else {
				ds.install(req.Ident, NewVersionSet(NewConcreteVersion(rev)), req.Spec)
			}
		} else if _, known := ds.versions(req.Ident); known {
			ds.constrain(req.Ident, req.Spec)
		} else {
			vs, err := sr.sm.listVersions(req.Ident)
			if err != nil {
				return &sourceError{ident: req.Ident, op: "list versions", err: err}
			}
			vs.RetainMatching(req.Spec)
			ds.install(req.Ident, vs, req.Spec)
		}

		if ds.Rejected() {
			if sr.l.Level >= logrus.DebugLevel {
				sr.l.WithFields(logrus.Fields{
					"name": req.Ident.String(),
					"spec": req.Spec.String(),
				}).Debug("Branch rejected while narrowing")
			}
			return nil
		}
	}

	return nil
}

// explore runs the depth-first, newest-first, chronological-backtracking
// search on one branch. It returns the accepted DependencySet, nil when the
// branch and all its alternatives were rejected, or a fatal error.
func (sr *solveRun) explore(ds *DependencySet) (*DependencySet, error) {
	for {
		if ds.Rejected() {
			return nil, nil
		}

		sub, pin, ok := ds.popSubSet()
		if !ok {
			if !ds.Rejected() && ds.Complete() {
				return ds, nil
			}
			// Nothing left to branch on and not complete: this candidate
			// point is exhausted. The parent treats it as a rejection.
			return nil, nil
		}

		sr.attempts++
		if sr.l.Level >= logrus.DebugLevel {
			sr.l.WithFields(logrus.Fields{
				"name":     pin.ident.String(),
				"version":  pin.version.String(),
				"attempts": sr.attempts,
			}).Debug("Exploring candidate pin")
		}

		deps, err := sr.sm.getDependencies(pin)
		if err != nil {
			return nil, &sourceError{ident: pin.ident, op: "get dependencies", err: err}
		}

		// Committing to the pin before applying its requirements is what
		// bounds the search on cyclic graphs: a dependency is expanded at
		// most once per branch, so a manifest cycle ends up as an ordinary
		// constraint on an already-collapsed singleton.
		sub.markResolved(pin.ident)
		if err := sr.narrow(sub, deps); err != nil {
			return nil, err
		}

		if !sub.Rejected() {
			sol, err := sr.explore(sub)
			if err != nil {
				return nil, err
			}
			if sol != nil {
				// Acceptance short-circuits every remaining alternative.
				return sol, nil
			}
		}

		sr.fails = append(sr.fails, failedBranch{pin: pin, why: sub.conflict})
		if sr.l.Level >= logrus.DebugLevel {
			sr.l.WithFields(logrus.Fields{
				"name":    pin.ident.String(),
				"version": pin.version.String(),
			}).Debug("Candidate pin rejected, trying next alternative")
		}
		// Loop: popSubSet on ds already dropped the failed head, so the next
		// iteration tries the next-best candidate for the same dependency.
	}
}
