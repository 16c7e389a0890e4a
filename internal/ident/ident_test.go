// internal/ident/ident_test.go
// TEST TYPE: Unit Test
// PURPOSE: Verify the four VersionIdent variants and the parse/render
// round-trip invariant from spec.md §8.
package ident_test

import (
	"testing"

	"github.com/qwer-cli/qwer/internal/ident"
)

func TestParseRenderRoundTrip(t *testing.T) {
	cases := []ident.Ident{
		ident.NewRemote("18.17.1"),
		ident.NewRef("abc123"),
		ident.NewPath("/opt/go"),
		ident.NewPath("relative/go"),
		ident.NewSystem(),
	}

	for _, v := range cases {
		rendered := v.Render()
		parsed := ident.Parse(rendered)
		if !parsed.Equal(v) {
			t.Errorf("parse(render(%+v)) = %+v, want %+v (rendered=%q)", v, parsed, v, rendered)
		}
	}
}

func TestParseVariants(t *testing.T) {
	tests := []struct {
		token string
		kind  ident.Kind
		token2 string
	}{
		{"18.17.1", ident.Remote, "18.17.1"},
		{"ref:abc", ident.Ref, "abc"},
		{"path:/opt/go", ident.Path, "/opt/go"},
		{"system", ident.System, ""},
	}

	for _, tt := range tests {
		got := ident.Parse(tt.token)
		if got.Kind() != tt.kind {
			t.Errorf("Parse(%q).Kind() = %v, want %v", tt.token, got.Kind(), tt.kind)
		}
		if got.Token() != tt.token2 {
			t.Errorf("Parse(%q).Token() = %q, want %q", tt.token, got.Token(), tt.token2)
		}
	}
}

func TestInstallType(t *testing.T) {
	tests := []struct {
		v    ident.Ident
		want string
	}{
		{ident.NewRemote("1.0"), "version"},
		{ident.NewRef("abc"), "ref"},
		{ident.NewPath("/x"), "path"},
		{ident.NewSystem(), "system"},
	}
	for _, tt := range tests {
		if got := tt.v.InstallType(); got != tt.want {
			t.Errorf("InstallType() = %q, want %q", got, tt.want)
		}
	}
}

func TestVersionStr(t *testing.T) {
	if ident.NewSystem().VersionStr() != "" {
		t.Error("System.VersionStr() should be empty")
	}
	if ident.NewRemote("1.2.3").VersionStr() != "1.2.3" {
		t.Error("Remote.VersionStr() should be the token")
	}
}

func TestEqual(t *testing.T) {
	if !ident.NewRemote("1.0").Equal(ident.NewRemote("1.0")) {
		t.Error("identical Remote idents should be equal")
	}
	if ident.NewRemote("1.0").Equal(ident.NewRef("1.0")) {
		t.Error("different kinds with the same token should not be equal")
	}
}
