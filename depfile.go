package stevedore

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// DepfileName is the manifest file name looked for at a project root and
// inside every candidate revision.
const DepfileName = "Depfile"

// A Depfile is a parsed manifest: the root requirements keyed by identity,
// plus the remote URL deduced for each origin so a source knows where to
// fetch from.
//
// The format is line-oriented. Each non-blank, non-comment line declares one
// dependency:
//
//	github "ReactiveCocoa/ReactiveSwift" ~> 6.1
//	github "antitypical/Result" == 5.0.0
//	git "https://example.com/libs/sodium.git" >= 1.0
//	github "jspahrsummers/xcconfigs" "master"
//	github "robrix/Box"
//
// A missing specifier means any version; a quoted trailing string pins a
// branch, tag, or commit by name.
type Depfile struct {
	Requirements map[DependencyIdentifier]Specifier
	Remotes      map[DependencyIdentifier]string
}

// ReadDepfile parses a manifest. Declaring the same dependency twice is an
// error; requirements on one identity must be combined by whoever writes the
// manifest, not silently intersected here.
func ReadDepfile(r io.Reader) (*Depfile, error) {
	df := &Depfile{
		Requirements: make(map[DependencyIdentifier]Specifier),
		Remotes:      make(map[DependencyIdentifier]string),
	}
	d := newDeducer()

	scanner := bufio.NewScanner(r)
	var lineno int
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kind, rest, _ := strings.Cut(line, " ")
		origin, spectext, err := splitOriginLine(rest)
		if err != nil {
			return nil, errors.Wrapf(err, "Depfile line %d", lineno)
		}

		switch kind {
		case "github":
		case "git":
			if !strings.Contains(origin, "://") && !strings.HasPrefix(origin, "git@") {
				return nil, errors.Errorf("Depfile line %d: git origins must be URLs, got %q", lineno, origin)
			}
		default:
			return nil, errors.Errorf("Depfile line %d: unknown origin kind %q", lineno, kind)
		}

		ded, err := d.deduceOrigin(origin)
		if err != nil {
			return nil, errors.Wrapf(err, "Depfile line %d", lineno)
		}

		spec, err := ParseSpecifier(spectext)
		if err != nil {
			return nil, errors.Wrapf(err, "Depfile line %d", lineno)
		}

		if _, dup := df.Requirements[ded.ident]; dup {
			return nil, errors.Errorf("Depfile line %d: duplicate dependency %s", lineno, ded.ident)
		}
		df.Requirements[ded.ident] = spec
		df.Remotes[ded.ident] = ded.remote
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading Depfile")
	}

	return df, nil
}

// splitOriginLine takes the remainder of a dependency line after the kind
// keyword - a quoted origin followed by an optional specifier - and returns
// the two halves.
func splitOriginLine(rest string) (origin, spectext string, err error) {
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '"' {
		return "", "", fmt.Errorf("expected a quoted origin, got %q", rest)
	}

	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return "", "", fmt.Errorf("unterminated origin string in %q", rest)
	}

	origin = rest[1 : end+1]
	spectext = strings.TrimSpace(rest[end+2:])
	return origin, spectext, nil
}

// ParseSpecifier parses the textual specifier forms used in a Depfile:
// ">= 1.2.3", "~> 1.2.3", "== 1.2.3", a quoted reference name, or an empty
// string for any version.
func ParseSpecifier(s string) (Specifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Any(), nil
	}

	if strings.HasPrefix(s, `"`) {
		if len(s) < 3 || !strings.HasSuffix(s, `"`) {
			return nil, fmt.Errorf("malformed reference specifier %s", s)
		}
		return Ref(s[1 : len(s)-1]), nil
	}

	op, vertext, found := strings.Cut(s, " ")
	if !found {
		return nil, fmt.Errorf("malformed version specifier %q", s)
	}
	vertext = strings.TrimSpace(vertext)

	switch op {
	case "==":
		return Exactly(NewConcreteVersion(Revision(vertext))), nil
	case ">=", "~>":
		sv, ok := parseSemantic(Revision(vertext))
		if !ok {
			return nil, fmt.Errorf("%q is not a semantic version", vertext)
		}
		if op == ">=" {
			return AtLeast(sv), nil
		}
		return CompatibleWith(sv), nil
	}

	return nil, fmt.Errorf("unknown specifier operator %q", op)
}
