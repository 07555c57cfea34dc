package stevedore

// A Result is the successful outcome of a resolution: exactly one revision
// per dependency, every requirement satisfied simultaneously.
type Result interface {
	// Pins returns the selected revision for every dependency in the graph.
	Pins() map[DependencyIdentifier]Revision
	// Attempts reports how many branch hypotheses the search committed to
	// before landing on this solution.
	Attempts() int
}

type result struct {
	p   map[DependencyIdentifier]Revision
	att int
}

func (r result) Pins() map[DependencyIdentifier]Revision {
	return r.p
}

func (r result) Attempts() int {
	return r.att
}
