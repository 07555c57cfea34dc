package stevedore

import (
	"io"
	"sort"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// LockfileName is the file the CLI writes resolved pins to, next to the
// Depfile.
const LockfileName = "Depfile.lock"

// A Lockfile is the durable form of a resolution result: one pinned
// revision per dependency, sorted by identity so the file diffs cleanly.
type Lockfile struct {
	Pins []LockedDependency `toml:"dependency"`
}

// A LockedDependency is one [[dependency]] table in the lock.
type LockedDependency struct {
	Origin   string `toml:"origin"`
	Name     string `toml:"name"`
	Revision string `toml:"revision"`
	// Version carries the semantic rendering of the revision when it has
	// one, purely for human readers of the lock.
	Version string `toml:"version,omitempty"`
}

// NewLockfile builds a lock from resolved pins.
func NewLockfile(pins map[DependencyIdentifier]Revision) *Lockfile {
	l := &Lockfile{
		Pins: make([]LockedDependency, 0, len(pins)),
	}
	for id, rev := range pins {
		ld := LockedDependency{
			Origin:   id.Origin,
			Name:     id.Name,
			Revision: string(rev),
		}
		if sv, ok := parseSemantic(rev); ok {
			ld.Version = sv.String()
		}
		l.Pins = append(l.Pins, ld)
	}

	sort.Slice(l.Pins, func(i, j int) bool {
		if l.Pins[i].Origin != l.Pins[j].Origin {
			return l.Pins[i].Origin < l.Pins[j].Origin
		}
		return l.Pins[i].Name < l.Pins[j].Name
	})
	return l
}

// Per returns the lock's pins keyed by identity.
func (l *Lockfile) Per() map[DependencyIdentifier]Revision {
	m := make(map[DependencyIdentifier]Revision, len(l.Pins))
	for _, ld := range l.Pins {
		id := DependencyIdentifier{Origin: ld.Origin, Name: ld.Name}
		m[id] = Revision(ld.Revision)
	}
	return m
}

// WriteLockfile serializes the lock as TOML.
func WriteLockfile(w io.Writer, l *Lockfile) error {
	b, err := toml.Marshal(*l)
	if err != nil {
		return errors.Wrap(err, "marshaling lock")
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, "writing lock")
	}
	return nil
}

// ReadLockfile parses a TOML lock.
func ReadLockfile(r io.Reader) (*Lockfile, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading lock")
	}

	l := &Lockfile{}
	if err := toml.Unmarshal(b, l); err != nil {
		return nil, errors.Wrap(err, "parsing lock")
	}

	for i, ld := range l.Pins {
		if ld.Name == "" || ld.Revision == "" {
			return nil, errors.Errorf("lock entry %d is missing a name or revision", i)
		}
	}
	return l, nil
}
