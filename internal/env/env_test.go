// internal/env/env_test.go
// TEST TYPE: Unit Test
// PURPOSE: Verify EnvModel merge, hash stability, and serialize round-trip
// (spec.md §8).
package env_test

import (
	"testing"

	"github.com/qwer-cli/qwer/internal/env"
)

func buildSample() *env.Model {
	m := env.New()
	m.AddPath("/installs/nodejs/18.17.1/bin")
	m.AddPath("/installs/ruby/3.2.0/bin")
	m.SetVar("NODE_ENV", "development")
	m.SetVar("RBENV_VERSION", "3.2.0")
	return m
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	m := buildSample()
	blob := m.Serialize()

	got, err := env.Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}

	if got.Hash() != m.Hash() {
		t.Error("hash should be stable across a serialize/deserialize round trip")
	}
	if len(got.Paths()) != len(m.Paths()) {
		t.Errorf("Paths() = %v, want %v", got.Paths(), m.Paths())
	}
	for k, v := range m.Vars() {
		if got.Vars()[k] != v {
			t.Errorf("Vars()[%q] = %q, want %q", k, got.Vars()[k], v)
		}
	}
}

func TestSerializeEscapesDelimiters(t *testing.T) {
	m := env.New()
	m.SetVar("WEIRD", "a\tb\nc\\d")

	blob := m.Serialize()
	got, err := env.Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	if v, _ := got.Var("WEIRD"); v != "a\tb\nc\\d" {
		t.Errorf("Var(WEIRD) = %q", v)
	}
}

func TestAddPathDeduplicatesPreservingOrder(t *testing.T) {
	m := env.New()
	m.AddPath("/a")
	m.AddPath("/b")
	m.AddPath("/a")

	want := []string{"/a", "/b"}
	got := m.Paths()
	if len(got) != len(want) {
		t.Fatalf("Paths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Paths()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMergeIdempotentAndWithEmpty(t *testing.T) {
	m := buildSample()

	selfMerge := env.Merge(m, m)
	if selfMerge.Hash() != m.Hash() {
		t.Error("m.merge(m) should equal m")
	}

	emptyMerge := env.Merge(m, env.New())
	if emptyMerge.Hash() != m.Hash() {
		t.Error("m.merge(empty) should equal m")
	}
}

func TestMergeOverwritesVarsUnionsPaths(t *testing.T) {
	a := env.New()
	a.AddPath("/a/bin")
	a.SetVar("X", "1")

	b := env.New()
	b.AddPath("/b/bin")
	b.SetVar("X", "2")
	b.SetVar("Y", "3")

	merged := env.Merge(a, b)
	if v, _ := merged.Var("X"); v != "2" {
		t.Errorf("X = %q, want %q (b should win)", v, "2")
	}
	if v, _ := merged.Var("Y"); v != "3" {
		t.Errorf("Y = %q, want %q", v, "3")
	}

	paths := merged.Paths()
	if len(paths) != 2 || paths[0] != "/a/bin" || paths[1] != "/b/bin" {
		t.Errorf("Paths() = %v", paths)
	}
}

func TestHashStableAcrossKeyOrder(t *testing.T) {
	a := env.New()
	a.SetVar("A", "1")
	a.SetVar("B", "2")

	b := env.New()
	b.SetVar("B", "2")
	b.SetVar("A", "1")

	if a.Hash() != b.Hash() {
		t.Error("hash should not depend on insertion order of vars")
	}
}

func TestIsEmpty(t *testing.T) {
	if !env.New().IsEmpty() {
		t.Error("a fresh Model should be empty")
	}
	if buildSample().IsEmpty() {
		t.Error("a populated Model should not be empty")
	}
}
