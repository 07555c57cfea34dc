package stevedore

import (
	"testing"
)

func mkset(revs ...string) *VersionSet {
	vs := make([]ConcreteVersion, len(revs))
	for i, r := range revs {
		vs[i] = NewConcreteVersion(Revision(r))
	}
	return NewVersionSet(vs...)
}

func checkOrder(t *testing.T, s *VersionSet, want ...string) {
	t.Helper()
	if s.Len() != len(want) {
		t.Fatalf("set is %s, want %v", s, want)
	}
	for i, w := range want {
		if s.At(i).String() != w {
			t.Fatalf("set is %s, want %v", s, want)
		}
	}
}

func TestVersionSetOrderAndDedup(t *testing.T) {
	s := mkset("0.9.0", "develop", "1.3.0", "2.0.0", "1.3.0", "v1.3.0")
	checkOrder(t, s, "2.0.0", "1.3.0", "0.9.0", "develop")

	best, ok := s.Best()
	if !ok || best.String() != "2.0.0" {
		t.Errorf("Best() = %s, want 2.0.0", best)
	}
}

func TestVersionSetInsertRemove(t *testing.T) {
	s := mkset("1.0.0", "2.0.0")

	if !s.Insert(NewConcreteVersion("1.5.0")) {
		t.Error("inserting a new version should report true")
	}
	if s.Insert(NewConcreteVersion("v1.5.0")) {
		t.Error("inserting an equal version under another spelling should be a no-op")
	}
	checkOrder(t, s, "2.0.0", "1.5.0", "1.0.0")

	if !s.Remove(NewConcreteVersion("2.0.0")) {
		t.Error("removing a present version should report true")
	}
	if s.Remove(NewConcreteVersion("3.0.0")) {
		t.Error("removing an absent version should report false")
	}
	checkOrder(t, s, "1.5.0", "1.0.0")

	if !s.Contains(NewConcreteVersion("1.5.0")) || s.Contains(NewConcreteVersion("2.0.0")) {
		t.Error("Contains disagrees with set contents")
	}
}

func TestVersionSetRetainMatching(t *testing.T) {
	s := mkset("2.0.0", "1.5.0", "1.0.0", "0.9.0", "develop")
	s.RetainMatching(CompatibleWith(sv(t, "1.0.0")))
	checkOrder(t, s, "1.5.0", "1.0.0")

	s.RetainMatching(none)
	if s.Len() != 0 {
		t.Errorf("retaining on the empty specifier left %s", s)
	}
	if _, ok := s.Best(); ok {
		t.Error("Best() on an empty set should report false")
	}
}

func TestVersionSetCopyIndependence(t *testing.T) {
	orig := mkset("2.0.0", "1.0.0")
	cp := orig.Copy()

	cp.Remove(NewConcreteVersion("2.0.0"))
	cp.Insert(NewConcreteVersion("3.0.0"))

	checkOrder(t, orig, "2.0.0", "1.0.0")
	checkOrder(t, cp, "3.0.0", "1.0.0")
}
