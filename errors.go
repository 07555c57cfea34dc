package stevedore

import (
	"bytes"
	"fmt"
)

// unsatisfiableError is returned when the root requirements themselves admit
// no version for some dependency - there is no search to run, the inputs
// already disagree.
type unsatisfiableError struct {
	ident DependencyIdentifier
	spec  Specifier
}

func (e *unsatisfiableError) Error() string {
	if e.spec == nil {
		return fmt.Sprintf("no candidate versions remain for %s", e.ident)
	}
	return fmt.Sprintf("no version of %s satisfies %s along with the other requirements", e.ident, e.spec)
}

// failedBranch records one abandoned hypothesis: trying the pinned atom led
// to the recorded conflict somewhere beneath it.
type failedBranch struct {
	pin atom
	why *conflict
}

// exhaustedError is the terminal failure of the whole search: every branch
// was explored and every one was rejected.
type exhaustedError struct {
	fails []failedBranch
}

func (e *exhaustedError) Error() string {
	if len(e.fails) == 0 {
		return "dependency resolution failed: no satisfiable version assignment exists"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "dependency resolution failed; all candidate combinations were rejected:")
	for _, f := range e.fails {
		if f.why != nil && f.why.spec != nil {
			fmt.Fprintf(&buf, "\n\t%s at %s: no version of %s satisfies %s", f.pin.ident, f.pin.version, f.why.ident, f.why.spec)
		} else if f.why != nil {
			fmt.Fprintf(&buf, "\n\t%s at %s: candidates for %s were exhausted", f.pin.ident, f.pin.version, f.why.ident)
		} else {
			fmt.Fprintf(&buf, "\n\t%s at %s was rejected", f.pin.ident, f.pin.version)
		}
	}
	return buf.String()
}

// sourceError wraps a collaborator failure. Source failures are fatal to the
// resolution that hit them; the resolver does not retry or try to route
// around them.
type sourceError struct {
	ident DependencyIdentifier
	op    string
	err   error
}

func (e *sourceError) Error() string {
	return fmt.Sprintf("source failure while resolving %s (%s): %s", e.ident, e.op, e.err)
}

func (e *sourceError) Unwrap() error {
	return e.err
}
