// Package resolver implements EnvResolver (spec.md §4.3): walking up from
// a working directory, merging version-files, selecting the first
// installed candidate per plugin, invoking each plugin's env hook in
// order, and composing the aggregate EnvModel an activation applies.
package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gammazero/toposort"

	"github.com/qwer-cli/qwer/internal/env"
	"github.com/qwer-cli/qwer/internal/ident"
	"github.com/qwer-cli/qwer/internal/logging"
	"github.com/qwer-cli/qwer/internal/paths"
	"github.com/qwer-cli/qwer/internal/plugin"
	"github.com/qwer-cli/qwer/internal/versionfile"
)

// Selection is one plugin's winning candidate plus where it is (or would
// be) installed.
type Selection struct {
	Plugin      string
	Version     ident.Ident
	InstallPath string // empty for System
}

// Select walks up from dir, merges version-files, and picks the first
// candidate per plugin whose install directory exists. Plugins with no
// installed candidate are silently skipped (spec.md §4.3 step 3, §7).
func Select(p *paths.Paths, dir string) ([]Selection, error) {
	set, err := versionfile.ResolveSet(dir)
	if err != nil {
		return nil, err
	}

	var out []Selection
	for _, pluginName := range set.Plugins() {
		candidates, _ := set.Candidates(pluginName)
		for _, c := range candidates {
			if c.Kind() == ident.System {
				out = append(out, Selection{Plugin: pluginName, Version: c, InstallPath: ""})
				break
			}
			if c.Kind() == ident.Path {
				resolved := c.Token()
				if !filepath.IsAbs(resolved) {
					resolved = filepath.Join(dir, resolved)
				}
				if st, err := os.Stat(resolved); err == nil && st.IsDir() {
					out = append(out, Selection{Plugin: pluginName, Version: c, InstallPath: resolved})
					break
				}
				continue
			}

			installPath := p.InstallPath(pluginName, c.Render())
			if st, err := os.Stat(installPath); err == nil && st.IsDir() {
				out = append(out, Selection{Plugin: pluginName, Version: c, InstallPath: installPath})
				break
			}
		}
	}
	return out, nil
}

// order applies a best-effort topological sort over selections using each
// plugin's help.deps output (one dependency plugin name per line) so a
// plugin's env hook runs after the plugins it depends on. A dependency
// naming a plugin that wasn't selected is ignored; a cycle, or no usable
// dependency at all, leaves the original order untouched — dependency ordering is an enrichment, not a
// correctness requirement (spec.md's resolver is sequential regardless).
func order(ctx context.Context, p *paths.Paths, selections []Selection) []Selection {
	if len(selections) < 2 {
		return selections
	}

	byName := make(map[string]Selection, len(selections))
	for _, s := range selections {
		byName[s.Plugin] = s
	}

	g := toposort.NewGraph(len(selections))
	for _, s := range selections {
		g.AddNode(s.Plugin)
	}

	hasEdges := false
	for _, s := range selections {
		deps, ok, err := plugin.New(p, s.Plugin).Help(ctx, plugin.HelpDeps)
		if err != nil || !ok {
			continue
		}
		for _, line := range strings.Split(deps, "\n") {
			dep := strings.TrimSpace(line)
			if dep == "" {
				continue
			}
			if _, known := byName[dep]; known && dep != s.Plugin {
				g.AddEdge(dep, s.Plugin)
				hasEdges = true
			}
		}
	}
	if !hasEdges {
		return selections
	}

	sorted, ok := g.Toposort()
	if !ok {
		logging.Get("resolver").Warn().Msg("plugin dependency graph has a cycle; ignoring declared deps")
		return selections
	}

	out := make([]Selection, 0, len(sorted))
	for _, name := range sorted {
		if s, found := byName[name]; found {
			out = append(out, s)
		}
	}
	return out
}

// Resolve implements the full EnvResolver algorithm (spec.md §4.3): select
// installed candidates, invoke each plugin's env hook and list_bin_paths
// in order, and compose the aggregate EnvModel. The model may be empty if
// no plugin matched.
func Resolve(ctx context.Context, p *paths.Paths, dir string, concurrency int) (*env.Model, error) {
	selections, err := Select(p, dir)
	if err != nil {
		return nil, err
	}
	selections = order(ctx, p, selections)

	model := env.New()
	for _, sel := range selections {
		if sel.Version.Kind() == ident.System {
			continue // defer entirely to whatever is already on PATH
		}

		pl := plugin.New(p, sel.Plugin)

		vars, err := pl.ExecEnv(ctx, sel.Version, sel.InstallPath, concurrency)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			model.SetVar(k, v)
		}

		binPaths, err := pl.ListBinPaths(ctx, sel.InstallPath, concurrency)
		if err != nil {
			return nil, err
		}
		for _, bp := range binPaths {
			model.AddPath(bp)
		}
	}
	return model, nil
}
