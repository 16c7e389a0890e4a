// Package ident implements VersionIdent (spec.md §3): the tagged value
// identifying one candidate version of a plugin-managed tool. Modeled as a
// small closed sum, following the teacher's preference for pattern-matched
// tagged unions over inheritance.
package ident

import "strings"

// Kind is the closed set of VersionIdent variants.
type Kind int

const (
	// Remote is an opaque plugin-defined version string, e.g. "18.17.1".
	Remote Kind = iota
	// Ref is a source-control reference, textually prefixed "ref:".
	Ref
	// Path is a filesystem path, textually prefixed "path:".
	Path
	// System means "defer to whatever is already on PATH".
	System
)

// Ident is a single parsed version identifier.
type Ident struct {
	kind  Kind
	token string // empty for System
}

// NewRemote builds a Remote ident.
func NewRemote(token string) Ident { return Ident{kind: Remote, token: token} }

// NewRef builds a Ref ident.
func NewRef(token string) Ident { return Ident{kind: Ref, token: token} }

// NewPath builds a Path ident.
func NewPath(token string) Ident { return Ident{kind: Path, token: token} }

// NewSystem builds the System ident.
func NewSystem() Ident { return Ident{kind: System} }

// Kind reports which variant this ident is.
func (i Ident) Kind() Kind { return i.kind }

// Token returns the raw token for Remote/Ref/Path idents. It is the empty
// string for System.
func (i Ident) Token() string { return i.token }

// VersionStr is spec.md §3's version_str: the token for Remote/Ref/Path,
// the empty string for System.
func (i Ident) VersionStr() string {
	if i.kind == System {
		return ""
	}
	return i.token
}

// InstallType is the fixed short string passed to plugin scripts as
// INSTALL_TYPE (spec.md §4.2).
func (i Ident) InstallType() string {
	switch i.kind {
	case Remote:
		return "version"
	case Ref:
		return "ref"
	case Path:
		return "path"
	case System:
		return "system"
	default:
		return "version"
	}
}

// Render produces the textual form used in version files and as a token
// for install-directory names. Round-tripping through Parse must return an
// equal Ident (spec.md §8).
func (i Ident) Render() string {
	switch i.kind {
	case Ref:
		return "ref:" + i.token
	case Path:
		return "path:" + i.token
	case System:
		return "system"
	default:
		return i.token
	}
}

// Equal reports whether two idents have the same kind and token.
func (i Ident) Equal(other Ident) bool {
	return i.kind == other.kind && i.token == other.token
}

// Parse parses a single whitespace-delimited token from a version file
// into its Ident, per the token grammar in spec.md §6:
//
//	system        -> System
//	ref:<rest>    -> Ref(rest)
//	path:<rest>   -> Path(rest)
//	otherwise     -> Remote(token)
func Parse(token string) Ident {
	if token == "system" {
		return NewSystem()
	}
	if rest, ok := strings.CutPrefix(token, "ref:"); ok {
		return NewRef(rest)
	}
	if rest, ok := strings.CutPrefix(token, "path:"); ok {
		return NewPath(rest)
	}
	return NewRemote(token)
}
