package multimap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := New[string, int]()
	m.Add("b", 1)
	m.Add("a", 2)
	m.Add("b", 3, 4)

	if diff := cmp.Diff([]string{"b", "a"}, m.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 3, 4}, m.Get("b")); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", m.Len())
	}
}

func TestMapCloneIsIndependent(t *testing.T) {
	m := New[string, string]()
	m.Add("culture", "en")
	clone := m.Clone()
	clone.Add("culture", "fi")
	clone.Add("type", "Form")

	if got := m.Get("culture"); len(got) != 1 {
		t.Fatalf("original mutated: %v", got)
	}
	if m.Has("type") {
		t.Fatalf("original gained key from clone")
	}
}

func TestNilMapReads(t *testing.T) {
	var m *Map[string, int]
	if m.Len() != 0 || m.Has("x") || m.Get("x") != nil || m.Keys() != nil {
		t.Fatalf("nil map should read as empty")
	}
}
