// Package registrystore manages registries.toml (spec.md §6): per-registry
// last-sync bookkeeping, and lookups against a registry clone's short-name
// -> repository-URL files. The registry fetcher itself (cloning/updating
// the registry repository) is out of scope (spec.md §1); this package only
// reads what it left on disk and decides whether a refresh is due.
package registrystore

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	tomlenc "github.com/pelletier/go-toml/v2"

	"github.com/qwer-cli/qwer/internal/paths"
	"github.com/qwer-cli/qwer/internal/qwererr"
)

// SyncInterval is how long a registry's last sync remains fresh before a
// refresh is due (spec.md §7: "silently returns success if the last sync
// is within one hour unless forced").
const SyncInterval = time.Hour

// record is the on-disk shape of one registry's bookkeeping entry.
type record struct {
	URL      string    `toml:"url"`
	LastSync time.Time `toml:"last_sync"`
}

// Store is the parsed contents of registries.toml.
type Store struct {
	path       string
	Registries map[string]record `toml:"registries"`
}

// Load reads registries.toml, returning an empty Store if it doesn't
// exist yet.
func Load(p *paths.Paths) (*Store, error) {
	path := p.RegistriesFile()
	s := &Store{path: path, Registries: map[string]record{}}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, qwererr.Wrapf(err, qwererr.CodeIo, "failed to stat %s", path)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, qwererr.Wrapf(err, qwererr.CodeRegistryFileInvalid, "failed to parse %s", path)
	}
	if err := k.UnmarshalWithConf("", s, koanf.UnmarshalConf{Tag: "toml"}); err != nil {
		return nil, qwererr.Wrapf(err, qwererr.CodeRegistryFileInvalid, "failed to decode %s", path)
	}
	return s, nil
}

// Save writes the Store back to registries.toml.
func (s *Store) Save() error {
	data, err := tomlenc.Marshal(struct {
		Registries map[string]record `toml:"registries"`
	}{s.Registries})
	if err != nil {
		return qwererr.Wrapf(err, qwererr.CodeRegistryFileInvalid, "failed to encode %s", s.path)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return qwererr.Wrapf(err, qwererr.CodeIo, "failed to create directory for %s", s.path)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return qwererr.Wrapf(err, qwererr.CodeIo, "failed to write %s", s.path)
	}
	return nil
}

// SetURL records (or updates) a registry's clone URL without touching its
// last-sync timestamp.
func (s *Store) SetURL(name, url string) {
	r := s.Registries[name]
	r.URL = url
	s.Registries[name] = r
}

// MarkSynced records that name was just synced at now.
func (s *Store) MarkSynced(name string, now time.Time) {
	r := s.Registries[name]
	r.LastSync = now
	s.Registries[name] = r
}

// ShouldSync reports whether a registry is due for a refresh: no record
// yet, or its last sync is older than SyncInterval. force always returns
// true (spec.md §7).
func (s *Store) ShouldSync(name string, now time.Time, force bool) bool {
	if force {
		return true
	}
	r, ok := s.Registries[name]
	if !ok || r.LastSync.IsZero() {
		return true
	}
	return now.Sub(r.LastSync) >= SyncInterval
}

// ResolveShortName looks up a plugin short name against a cloned
// registry's short-name files (the asdf-plugins convention: one file per
// plugin under <registry>/plugins/<name>, whose first line is the git
// URL). RegistryNotFound if the registry clone itself is absent or has no
// file for shortName; RegistryFileInvalid if that file's first line is empty.
func ResolveShortName(p *paths.Paths, registryName, shortName string) (string, error) {
	registryDir := p.RegistryDir(registryName)
	if st, err := os.Stat(registryDir); err != nil || !st.IsDir() {
		return "", qwererr.Newf(qwererr.CodeRegistryNotFound, "registry %q has no local clone", registryName)
	}

	entryPath := filepath.Join(registryDir, "plugins", shortName)
	data, err := os.ReadFile(entryPath)
	if err != nil {
		return "", qwererr.Newf(qwererr.CodeRegistryNotFound, "plugin %q is not listed in registry %q", shortName, registryName)
	}

	url := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
	if url == "" {
		return "", qwererr.Newf(qwererr.CodeRegistryFileInvalid, "registry entry for %q is empty", shortName)
	}
	return url, nil
}
