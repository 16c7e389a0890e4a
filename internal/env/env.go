// Package env implements EnvModel (spec.md §3): an ordered set of PATH
// entries plus a map of variable name to value, with merge, a stable hash,
// and a serialize/deserialize pair safe to stash in a shell variable.
package env

import (
	"hash/fnv"
	"sort"
	"strings"

	"github.com/qwer-cli/qwer/internal/qwererr"
)

// Model is the aggregate environment an activation composes: ordered,
// de-duplicated PATH entries plus a var map.
type Model struct {
	paths []string
	vars  map[string]string
}

// New returns an empty Model.
func New() *Model {
	return &Model{vars: map[string]string{}}
}

// AddPath appends a PATH entry, preserving insertion order and collapsing
// duplicates (spec.md §3).
func (m *Model) AddPath(entry string) {
	for _, p := range m.paths {
		if p == entry {
			return
		}
	}
	m.paths = append(m.paths, entry)
}

// SetVar sets (or overwrites) a variable.
func (m *Model) SetVar(key, value string) {
	if m.vars == nil {
		m.vars = map[string]string{}
	}
	m.vars[key] = value
}

// Paths returns the PATH entries in insertion order.
func (m *Model) Paths() []string {
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

// Vars returns a copy of the variable map.
func (m *Model) Vars() map[string]string {
	out := make(map[string]string, len(m.vars))
	for k, v := range m.vars {
		out[k] = v
	}
	return out
}

// Var looks up a single variable.
func (m *Model) Var(key string) (string, bool) {
	v, ok := m.vars[key]
	return v, ok
}

// IsEmpty reports whether the model has no paths and no vars.
func (m *Model) IsEmpty() bool {
	return len(m.paths) == 0 && len(m.vars) == 0
}

// Merge returns a new Model combining the receiver and other: PATH entries
// are unioned (receiver's entries first, in order, then other's new
// entries), and vars are overwritten value-wise by other (spec.md §3).
// Merge(m, m) == m and Merge(m, empty) == m, as required by spec.md §8.
func Merge(a, b *Model) *Model {
	out := New()
	for _, p := range a.paths {
		out.AddPath(p)
	}
	for _, p := range b.paths {
		out.AddPath(p)
	}
	for k, v := range a.vars {
		out.SetVar(k, v)
	}
	for k, v := range b.vars {
		out.SetVar(k, v)
	}
	return out
}

// Hash computes a stable 64-bit fingerprint over sorted var keys and the
// ordered path entries, so identical models hash identically regardless of
// map iteration order and the hash survives a serialize/deserialize
// round-trip (spec.md §3, §8).
func (m *Model) Hash() uint64 {
	h := fnv.New64a()

	keys := make([]string, 0, len(m.vars))
	for k := range m.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, _ = h.Write([]byte("v\x00" + k + "\x00" + m.vars[k] + "\x00"))
	}
	for _, p := range m.paths {
		_, _ = h.Write([]byte("p\x00" + p + "\x00"))
	}
	return h.Sum64()
}

// Serialize produces an opaque textual blob safe to stash in a shell
// variable: one line per path entry prefixed "P", one line per var
// prefixed "V", tab-separated. Deserialize is its exact inverse.
func (m *Model) Serialize() string {
	var b strings.Builder
	for _, p := range m.paths {
		b.WriteString("P\t")
		b.WriteString(escape(p))
		b.WriteByte('\n')
	}

	keys := make([]string, 0, len(m.vars))
	for k := range m.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("V\t")
		b.WriteString(escape(k))
		b.WriteByte('\t')
		b.WriteString(escape(m.vars[k]))
		b.WriteByte('\n')
	}
	return b.String()
}

// Deserialize parses the output of Serialize back into a Model.
func Deserialize(blob string) (*Model, error) {
	m := New()
	if blob == "" {
		return m, nil
	}
	for _, line := range strings.Split(strings.TrimSuffix(blob, "\n"), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		switch fields[0] {
		case "P":
			if len(fields) != 2 {
				return nil, qwererr.Newf(qwererr.CodeIo, "malformed path entry: %q", line)
			}
			m.AddPath(unescape(fields[1]))
		case "V":
			if len(fields) != 3 {
				return nil, qwererr.Newf(qwererr.CodeIo, "malformed var entry: %q", line)
			}
			m.SetVar(unescape(fields[1]), unescape(fields[2]))
		default:
			return nil, qwererr.Newf(qwererr.CodeIo, "unknown entry kind in serialized env: %q", line)
		}
	}
	return m, nil
}

// escape/unescape protect the tab/newline delimiters used by Serialize
// from appearing literally inside a path or variable value.
func escape(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n")
	return r.Replace(s)
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
