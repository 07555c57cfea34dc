package stevedore

import (
	"testing"

	"github.com/Masterminds/semver"
)

func sv(t *testing.T, s string) *semver.Version {
	t.Helper()
	v, err := semver.NewVersion(s)
	if err != nil {
		t.Fatalf("bad semver literal %q: %s", s, err)
	}
	return v
}

func TestSpecifierMatches(t *testing.T) {
	table := []struct {
		spec  Specifier
		ver   string
		match bool
	}{
		{Any(), "1.0.0", true},
		{Any(), "develop", true},

		{AtLeast(sv(t, "1.2.0")), "1.2.0", true},
		{AtLeast(sv(t, "1.2.0")), "2.0.0", true},
		{AtLeast(sv(t, "1.2.0")), "1.1.9", false},
		{AtLeast(sv(t, "1.2.0")), "develop", false},

		// Above 1.0.0 the window spans the major version.
		{CompatibleWith(sv(t, "1.2.0")), "1.2.0", true},
		{CompatibleWith(sv(t, "1.2.0")), "1.9.9", true},
		{CompatibleWith(sv(t, "1.2.0")), "2.0.0", false},
		{CompatibleWith(sv(t, "1.2.0")), "1.1.0", false},

		// 0.x releases are only compatible across patch bumps.
		{CompatibleWith(sv(t, "0.1.0")), "0.1.1", true},
		{CompatibleWith(sv(t, "0.1.0")), "0.2.0", false},
		{CompatibleWith(sv(t, "0.1.0")), "1.0.0", false},

		{Exactly(NewConcreteVersion("2.2.0")), "2.2.0", true},
		{Exactly(NewConcreteVersion("2.2.0")), "v2.2.0", true},
		{Exactly(NewConcreteVersion("2.2.0")), "2.2.1", false},
		{Exactly(NewConcreteVersion("8ff9bd3")), "8ff9bd3", true},
		{Exactly(NewConcreteVersion("8ff9bd3")), "1.0.0", false},

		{Ref("develop"), "develop", true},
		{Ref("develop"), "1.0.0", false},
	}

	for _, tc := range table {
		got := tc.spec.Matches(NewConcreteVersion(Revision(tc.ver)))
		if got != tc.match {
			t.Errorf("(%s).Matches(%s): got %v, want %v", tc.spec, tc.ver, got, tc.match)
		}
	}

	if none.Matches(NewConcreteVersion("1.0.0")) {
		t.Error("the empty specifier must match nothing")
	}
}

func TestSpecifierIntersect(t *testing.T) {
	table := []struct {
		s1, s2 Specifier
		want   string // String() of expected result; "" means none
	}{
		{Any(), Any(), "*"},
		{Any(), AtLeast(sv(t, "1.0.0")), ">= 1.0.0"},
		{Any(), Ref("develop"), `"develop"`},

		{AtLeast(sv(t, "1.0.0")), AtLeast(sv(t, "1.5.0")), ">= 1.5.0"},

		// Floor at or below the window: the window wins.
		{AtLeast(sv(t, "1.0.0")), CompatibleWith(sv(t, "1.2.0")), "~> 1.2.0"},
		// Floor inside the window: it tightens the window's lower edge.
		{AtLeast(sv(t, "1.5.0")), CompatibleWith(sv(t, "1.2.0")), "~> 1.5.0"},
		// Floor above the window: nothing remains.
		{AtLeast(sv(t, "2.0.0")), CompatibleWith(sv(t, "1.2.0")), ""},

		{CompatibleWith(sv(t, "1.0.0")), CompatibleWith(sv(t, "1.2.0")), "~> 1.2.0"},
		{CompatibleWith(sv(t, "1.0.0")), CompatibleWith(sv(t, "2.0.0")), ""},

		// The 0.x window rule carries through intersection.
		{CompatibleWith(sv(t, "0.1.0")), CompatibleWith(sv(t, "0.1.1")), "~> 0.1.1"},
		{CompatibleWith(sv(t, "0.1.0")), CompatibleWith(sv(t, "0.2.0")), ""},
		{AtLeast(sv(t, "0.1.1")), CompatibleWith(sv(t, "0.1.0")), "~> 0.1.1"},
		{AtLeast(sv(t, "0.2.0")), CompatibleWith(sv(t, "0.1.0")), ""},

		{Exactly(NewConcreteVersion("1.5.0")), AtLeast(sv(t, "1.0.0")), "== 1.5.0"},
		{Exactly(NewConcreteVersion("1.5.0")), AtLeast(sv(t, "2.0.0")), ""},
		{Exactly(NewConcreteVersion("1.5.0")), CompatibleWith(sv(t, "1.2.0")), "== 1.5.0"},
		{Exactly(NewConcreteVersion("1.5.0")), Exactly(NewConcreteVersion("v1.5.0")), "== 1.5.0"},
		{Exactly(NewConcreteVersion("1.5.0")), Exactly(NewConcreteVersion("1.6.0")), ""},
		{Exactly(NewConcreteVersion("8ff9bd3")), AtLeast(sv(t, "1.0.0")), ""},

		{Ref("develop"), Ref("develop"), `"develop"`},
		{Ref("develop"), Ref("main"), ""},
		{Ref("develop"), AtLeast(sv(t, "1.0.0")), ""},
		{Ref("develop"), Exactly(NewConcreteVersion("1.5.0")), ""},
	}

	for _, tc := range table {
		for _, dir := range []struct {
			a, b Specifier
		}{{tc.s1, tc.s2}, {tc.s2, tc.s1}} {
			got := dir.a.Intersect(dir.b)
			var gs string
			if !IsNone(got) {
				gs = got.String()
			}
			if gs != tc.want {
				t.Errorf("(%s).Intersect(%s): got %q, want %q", dir.a, dir.b, gs, tc.want)
			}

			wantAny := tc.want != ""
			if dir.a.MatchesAny(dir.b) != wantAny {
				t.Errorf("(%s).MatchesAny(%s): got %v, want %v", dir.a, dir.b, !wantAny, wantAny)
			}
		}
	}
}

// The intersection of two specifiers must admit exactly the versions both
// admit. Sweep every pairing from a small universe against a version sample.
func TestIntersectSoundness(t *testing.T) {
	specs := []Specifier{
		Any(),
		none,
		AtLeast(sv(t, "0.1.1")),
		AtLeast(sv(t, "1.2.0")),
		CompatibleWith(sv(t, "0.1.0")),
		CompatibleWith(sv(t, "1.2.0")),
		CompatibleWith(sv(t, "2.0.0")),
		Exactly(NewConcreteVersion("1.5.0")),
		Exactly(NewConcreteVersion("8ff9bd3")),
		Ref("develop"),
	}
	sample := []ConcreteVersion{
		NewConcreteVersion("0.1.0"),
		NewConcreteVersion("0.1.2"),
		NewConcreteVersion("0.2.0"),
		NewConcreteVersion("1.2.0"),
		NewConcreteVersion("1.5.0"),
		NewConcreteVersion("2.0.0"),
		NewConcreteVersion("2.9.0"),
		NewConcreteVersion("develop"),
		NewConcreteVersion("8ff9bd3"),
	}

	for _, s1 := range specs {
		for _, s2 := range specs {
			both := s1.Intersect(s2)
			for _, v := range sample {
				want := s1.Matches(v) && s2.Matches(v)
				if got := both.Matches(v); got != want {
					t.Errorf("intersection of %s and %s (= %s) matches %s: got %v, want %v",
						s1, s2, both, v, got, want)
				}
			}
		}
	}
}
