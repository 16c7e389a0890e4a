// Package shellstate implements the ShellState engine (spec.md §3, §4.4):
// the in-memory representation of a pending environment mutation, and the
// algorithm that diffs a newly resolved EnvModel against the previously
// applied one (carried in the three reserved shell variables) to produce
// a shell command script.
package shellstate

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/qwer-cli/qwer/internal/env"
)

// Reserved shell variable names (spec.md §3, §6).
const (
	VarState   = "STATE"
	VarCurrent = "CURRENT"
	VarPrev    = "PREV"
)

// State is the set of pending actions an activation wants to perform:
// set_var/unset_var and add_path/remove_path, each pair disjoint on its
// key (spec.md §3).
type State struct {
	setVar     map[string]string
	unsetVar   map[string]struct{}
	addPath    []string
	addPathSet map[string]struct{}
	removePath map[string]struct{}
}

// New returns an empty State.
func New() *State {
	return &State{
		setVar:     map[string]string{},
		unsetVar:   map[string]struct{}{},
		addPathSet: map[string]struct{}{},
		removePath: map[string]struct{}{},
	}
}

// Set queues a variable assignment, evicting any pending unset for the
// same key (set_var and unset_var stay disjoint, spec.md §3).
func (s *State) Set(key, value string) {
	delete(s.unsetVar, key)
	s.setVar[key] = value
}

// Unset queues a variable removal, evicting any pending set for the same
// key.
func (s *State) Unset(key string) {
	delete(s.setVar, key)
	s.unsetVar[key] = struct{}{}
}

// AddPath queues a PATH entry addition, evicting any pending removal of
// the same entry.
func (s *State) AddPath(entry string) {
	delete(s.removePath, entry)
	if _, exists := s.addPathSet[entry]; exists {
		return
	}
	s.addPathSet[entry] = struct{}{}
	s.addPath = append(s.addPath, entry)
}

// RemovePath queues a PATH entry removal, evicting any pending addition of
// the same entry.
func (s *State) RemovePath(entry string) {
	if _, exists := s.addPathSet[entry]; exists {
		delete(s.addPathSet, entry)
		filtered := s.addPath[:0]
		for _, e := range s.addPath {
			if e != entry {
				filtered = append(filtered, e)
			}
		}
		s.addPath = filtered
	}
	s.removePath[entry] = struct{}{}
}

// IsPendingSet reports whether key has a queued set_var action.
func (s *State) IsPendingSet(key string) (string, bool) {
	v, ok := s.setVar[key]
	return v, ok
}

// IsPendingUnset reports whether key has a queued unset_var action.
func (s *State) IsPendingUnset(key string) bool {
	_, ok := s.unsetVar[key]
	return ok
}

// IsPendingAddPath reports whether entry has a queued add_path action.
func (s *State) IsPendingAddPath(entry string) bool {
	_, ok := s.addPathSet[entry]
	return ok
}

// IsPendingRemovePath reports whether entry has a queued remove_path
// action.
func (s *State) IsPendingRemovePath(entry string) bool {
	_, ok := s.removePath[entry]
	return ok
}

// Bootstrap is the three reserved shell variables read from the process
// environment at the start of an activation (spec.md §3 "BootstrapState").
type Bootstrap struct {
	State   string // hash of the currently applied model, or ""
	Current string // serialized applied EnvModel, or ""
	Prev    string // serialized pre-existing var values, or ""
}

// ReadBootstrap reads the bootstrap variables from the process
// environment.
func ReadBootstrap() Bootstrap {
	return Bootstrap{
		State:   os.Getenv(VarState),
		Current: os.Getenv(VarCurrent),
		Prev:    os.Getenv(VarPrev),
	}
}

// Plan computes the State needed to move the shell from boot to model,
// implementing spec.md §4.4's six-step algorithm. model may be nil,
// meaning the resolver found nothing to activate for the current
// directory (equivalent to an empty model: a full revert).
func Plan(model *env.Model, boot Bootstrap) (*State, error) {
	targetHash := ""
	if model != nil && !model.IsEmpty() {
		targetHash = fmt.Sprintf("%x", model.Hash())
	}

	// Step 2: idempotence short-circuit.
	if targetHash != "" && boot.State == targetHash {
		return New(), nil
	}

	s := New()

	var oldCurrent, oldPrev *env.Model
	if boot.Current != "" {
		m, err := env.Deserialize(boot.Current)
		if err != nil {
			return nil, err
		}
		oldCurrent = m
	}
	if boot.Prev != "" {
		m, err := env.Deserialize(boot.Prev)
		if err != nil {
			return nil, err
		}
		oldPrev = m
	}

	// Step 3: revert.
	if oldCurrent != nil {
		for k := range oldCurrent.Vars() {
			s.Unset(k)
		}
		for _, p := range oldCurrent.Paths() {
			s.RemovePath(p)
		}
	}
	if oldPrev != nil {
		for k, v := range oldPrev.Vars() {
			s.Set(k, v)
		}
	}

	if targetHash == "" {
		// Step 6: no new model, the revert is the whole action.
		s.Unset(VarState)
		s.Unset(VarCurrent)
		s.Unset(VarPrev)
		return s, nil
	}

	// Step 4: apply the new model, tracking the true pre-qwer value of
	// every var it overwrites.
	newPrev := env.New()
	for k, v := range model.Vars() {
		if ext, existed := externalValue(k, oldCurrent, oldPrev); existed && ext != v {
			newPrev.SetVar(k, ext)
		}
		s.Set(k, v)
	}
	for _, p := range model.Paths() {
		s.AddPath(p)
	}

	// Step 5.
	s.Set(VarState, targetHash)
	s.Set(VarCurrent, model.Serialize())
	if newPrev.IsEmpty() {
		s.Unset(VarPrev)
	} else {
		s.Set(VarPrev, newPrev.Serialize())
	}

	return s, nil
}

// externalValue finds the value a variable had before qwer ever touched
// it: if qwer's previous CURRENT set the key, the true external value (if
// any) lives in the previous PREV; otherwise it's whatever is live in the
// process environment right now.
func externalValue(key string, oldCurrent, oldPrev *env.Model) (string, bool) {
	if oldCurrent != nil {
		if _, wasManaged := oldCurrent.Var(key); wasManaged {
			if oldPrev != nil {
				return oldPrev.Var(key)
			}
			return "", false
		}
	}
	return os.LookupEnv(key)
}

// Render produces the shell command script for state, following spec.md
// §4.4's bashlike rendering, valid for both the bash and zsh adapters:
// unsets (only for variables actually set in the process environment),
// then exports, then a single PATH export built from the pending
// add_path/remove_path diff against the live PATH.
func Render(s *State) string {
	var b strings.Builder

	unsetKeys := make([]string, 0, len(s.unsetVar))
	for key := range s.unsetVar {
		unsetKeys = append(unsetKeys, key)
	}
	sort.Strings(unsetKeys)
	for _, key := range unsetKeys {
		if _, set := os.LookupEnv(key); set {
			b.WriteString("unset ")
			b.WriteString(key)
			b.WriteString(";\n")
		}
	}

	setKeys := make([]string, 0, len(s.setVar))
	for key := range s.setVar {
		setKeys = append(setKeys, key)
	}
	sort.Strings(setKeys)
	for _, key := range setKeys {
		b.WriteString("export ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(shQuote(s.setVar[key]))
		b.WriteString(";\n")
	}

	if len(s.addPath) > 0 || len(s.removePath) > 0 {
		b.WriteString("export PATH=")
		b.WriteString(shQuote(newPath(s)))
		b.WriteString(";\n")
	}

	return b.String()
}

func newPath(s *State) string {
	current := strings.Split(os.Getenv("PATH"), ":")

	surviving := make([]string, 0, len(current))
	for _, entry := range current {
		if entry == "" {
			continue
		}
		if _, removed := s.removePath[entry]; removed {
			continue
		}
		if _, added := s.addPathSet[entry]; added {
			continue
		}
		surviving = append(surviving, entry)
	}

	all := make([]string, 0, len(s.addPath)+len(surviving))
	all = append(all, s.addPath...)
	all = append(all, surviving...)
	return strings.Join(all, ":")
}

func shQuote(s string) string {
	return "\"" + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", "\\$", "`", "\\`").Replace(s) + "\""
}
