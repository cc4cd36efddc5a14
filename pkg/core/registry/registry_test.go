package registry

import (
	"testing"

	"valuecore/pkg/core/value"
)

func dummyFn(inputs []value.Value) (value.Value, error) {
	return value.Value{}, nil
}

func TestRegistry_NamespaceQualifiesLocalNames(t *testing.T) {
	r := New()
	ns := r.Namespace("fin")
	if err := ns.Register("gross_margin", nil, dummyFn); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, ok := r.Lookup("fin.gross_margin"); !ok {
		t.Error("a local name should be auto-prefixed with the namespace")
	}
}

func TestRegistry_DotContainingNameIsAbsolute(t *testing.T) {
	r := New()
	ns := r.Namespace("fin")
	if err := ns.Register("other.metric", nil, dummyFn); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, ok := r.Lookup("other.metric"); !ok {
		t.Error("a name containing '.' should be registered verbatim, not prefixed")
	}
	if _, ok := r.Lookup("fin.other.metric"); ok {
		t.Error("an absolute name must not also be auto-prefixed")
	}
}

func TestRegistry_SigilPrefixStripsColon(t *testing.T) {
	r := New()
	ns := r.Namespace("fin")
	if err := ns.Register(":top_level", nil, dummyFn); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, ok := r.Lookup("top_level"); !ok {
		t.Error("a leading ':' sigil should register the name absolutely, with the sigil stripped")
	}
}

func TestRegistry_DuplicateNameFails(t *testing.T) {
	r := New()
	ns := r.Namespace("fin")
	if err := ns.Register("metric", nil, dummyFn); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	if err := ns.Register("metric", nil, dummyFn); err == nil {
		t.Fatal("expected DuplicateCalculation on re-registering the same qualified name")
	}
}

func TestRegistry_DifferentNamespacesDoNotCollide(t *testing.T) {
	r := New()
	a := r.Namespace("a")
	b := r.Namespace("b")
	if err := a.Register("metric", nil, dummyFn); err != nil {
		t.Fatalf("a.Register returned error: %v", err)
	}
	if err := b.Register("metric", nil, dummyFn); err != nil {
		t.Fatalf("b.Register returned error: %v", err)
	}
	if _, ok := r.Lookup("a.metric"); !ok {
		t.Error("a.metric should be registered")
	}
	if _, ok := r.Lookup("b.metric"); !ok {
		t.Error("b.metric should be registered")
	}
}

func TestRegistry_MaterializeTracksLoadedState(t *testing.T) {
	r := New()
	if r.Loaded() {
		t.Error("a fresh registry should not report Loaded")
	}
	r.Materialize()
	if !r.Loaded() {
		t.Error("Loaded should report true after Materialize")
	}
}

func TestRegistry_DependenciesStoredVerbatim(t *testing.T) {
	r := New()
	ns := r.Namespace("fin")
	deps := []string{"revenue", "cogs"}
	if err := ns.Register("gross_margin", deps, dummyFn); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	desc, _ := r.Lookup("fin.gross_margin")
	if len(desc.Dependencies) != 2 || desc.Dependencies[0] != "revenue" || desc.Dependencies[1] != "cogs" {
		t.Errorf("Dependencies = %v, want [revenue cogs]", desc.Dependencies)
	}
	deps[0] = "mutated"
	if desc.Dependencies[0] == "mutated" {
		t.Error("Register should copy the dependencies slice, not alias the caller's")
	}
}
