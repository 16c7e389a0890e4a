// Package versionfile implements the .tool-versions file format (spec.md
// §3 "VersionFile", §6 "Version-file format"): an ordered mapping of
// plugin name to a non-empty ordered list of candidate VersionIdents, plus
// discovery by walking the directory tree upward and merging declarations
// (shallower wins).
package versionfile

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/qwer-cli/qwer/internal/ident"
	"github.com/qwer-cli/qwer/internal/qwererr"
)

// DefaultFilename is the declaration file qwer looks for in each directory.
const DefaultFilename = ".tool-versions"

// File is a parsed version-file: plugin name -> ordered candidate list.
// Entries preserve declaration order; Plugins() returns that order.
type File struct {
	order   []string
	entries map[string][]ident.Ident
}

// New returns an empty File.
func New() *File {
	return &File{entries: map[string][]ident.Ident{}}
}

// Plugins returns plugin names in declaration order.
func (f *File) Plugins() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Candidates returns the candidate list for a plugin, or nil if absent.
func (f *File) Candidates(plugin string) ([]ident.Ident, bool) {
	v, ok := f.entries[plugin]
	return v, ok
}

// Set inserts or replaces the candidate list for a plugin, appending to the
// declaration order if it is new.
func (f *File) Set(plugin string, candidates []ident.Ident) {
	if _, exists := f.entries[plugin]; !exists {
		f.order = append(f.order, plugin)
	}
	f.entries[plugin] = candidates
}

// Parse parses version-file text per spec.md §6:
//
//	# comments allowed; blank lines ignored
//	<plugin> <token> [<token> ...]
//
// A line with fewer than two tokens is InvalidVersionEntry; a plugin named
// twice is DuplicateVersionEntry.
func Parse(text string) (*File, error) {
	f := New()
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, qwererr.Newf(qwererr.CodeInvalidVersionEntry, "line %q has fewer than two tokens", scanner.Text())
		}

		plugin := fields[0]
		if _, exists := f.entries[plugin]; exists {
			return nil, qwererr.Newf(qwererr.CodeDuplicateVersionEntry, "plugin %q declared more than once", plugin)
		}

		candidates := make([]ident.Ident, 0, len(fields)-1)
		for _, tok := range fields[1:] {
			candidates = append(candidates, ident.Parse(tok))
		}
		f.order = append(f.order, plugin)
		f.entries[plugin] = candidates
	}
	if err := scanner.Err(); err != nil {
		return nil, qwererr.Wrap(err, qwererr.CodeIo, "failed to read version file")
	}
	return f, nil
}

// ParseFile reads and parses a version file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qwererr.Wrapf(err, qwererr.CodeIo, "failed to read %s", path)
	}
	return Parse(string(data))
}

// Render serializes a File back to version-file text. render(parse(t))
// parses to the same mapping as t (spec.md §8); exact byte output need not
// match the original (comments are not preserved).
func (f *File) Render() string {
	var b strings.Builder
	for _, plugin := range f.order {
		b.WriteString(plugin)
		for _, c := range f.entries[plugin] {
			b.WriteByte(' ')
			b.WriteString(c.Render())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteFile renders and writes a File to disk.
func (f *File) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return qwererr.Wrapf(err, qwererr.CodeIo, "failed to create directory for %s", path)
	}
	if err := os.WriteFile(path, []byte(f.Render()), 0o644); err != nil {
		return qwererr.Wrapf(err, qwererr.CodeIo, "failed to write %s", path)
	}
	return nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// DiscoverUpward walks from start upward to the filesystem root, collecting
// every version-file found, deepest (nearest to start) first. Used both by
// the resolver (merge: nearer wins) and by aggregate-install (gather all).
func DiscoverUpward(start string) ([]string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, qwererr.Wrapf(err, qwererr.CodeInvalidWorkdir, "cannot resolve %s", start)
	}

	var found []string
	for {
		candidate := filepath.Join(dir, DefaultFilename)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			found = append(found, candidate)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return found, nil
}

// Set is the VersionSet aggregate from spec.md §3: the merge of every
// version-file discovered walking upward from a directory. Nearer
// directories override farther ones on a per-plugin basis; when the same
// plugin appears in two files, the shallower declaration wins in full (the
// deeper one is discarded, not merged candidate-by-candidate).
type Set struct {
	order   []string
	entries map[string][]ident.Ident
}

// Plugins returns plugin names in the order they were first seen (nearest
// directory first).
func (s *Set) Plugins() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Candidates returns the winning candidate list for a plugin.
func (s *Set) Candidates(plugin string) ([]ident.Ident, bool) {
	v, ok := s.entries[plugin]
	return v, ok
}

// Merge builds a Set from version-files ordered deepest-first (nearest
// directory first, as returned by DiscoverUpward).
func Merge(files []*File) *Set {
	s := &Set{entries: map[string][]ident.Ident{}}
	for _, f := range files {
		for _, plugin := range f.order {
			if _, exists := s.entries[plugin]; exists {
				continue // nearer declaration already won
			}
			s.order = append(s.order, plugin)
			s.entries[plugin] = f.entries[plugin]
		}
	}
	return s
}

// ResolveSet discovers and merges every version-file from start upward to
// the root, in one call.
func ResolveSet(start string) (*Set, error) {
	paths, err := DiscoverUpward(start)
	if err != nil {
		return nil, err
	}
	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := ParseFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return Merge(files), nil
}
