package module

import (
	"testing"

	"schemevm/types"
)

func TestRegistryGetCreatesOnFirstReference(t *testing.T) {
	r := NewRegistry()
	a := r.Get("scheme")
	b := r.Get("scheme")
	if a != b {
		t.Fatal("Get should return the same module on repeated lookups")
	}
	if a.Name != "scheme" {
		t.Fatalf("Name = %q, want scheme", a.Name)
	}
}

func TestRegistryAddOverwrites(t *testing.T) {
	r := NewRegistry()
	first := r.Get("scheme")
	first.Define(types.Intern("x"), types.SmallInt(1))

	replacement := types.NewModule("scheme")
	r.Add(replacement)

	got := r.Get("scheme")
	if got != replacement {
		t.Fatal("Add should replace the registered module")
	}
	if _, ok := got.Lookup(types.Intern("x")); ok {
		t.Fatal("the replacement module should not carry over the old bindings")
	}
}
