// Package plugin implements PluginScripts (spec.md §4.2): a typed,
// invariant-checked wrapper around one plugin's script directory. Every
// script invocation goes through process.Run with the fixed contract
// environment described in spec.md §4.2.
package plugin

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/qwer-cli/qwer/internal/ident"
	"github.com/qwer-cli/qwer/internal/paths"
	"github.com/qwer-cli/qwer/internal/process"
	"github.com/qwer-cli/qwer/internal/qwererr"
)

// Plugin is a typed façade over one plugin's bin/ script directory.
type Plugin struct {
	Name  string
	paths *paths.Paths
}

// New builds a Plugin façade for name, rooted at the given data Paths.
func New(p *paths.Paths, name string) *Plugin {
	return &Plugin{Name: name, paths: p}
}

// ContractEnv builds the fixed environment-variable contract passed to
// every plugin script invocation (spec.md §4.2). extra carries the
// operation-specific variables (INSTALL_TYPE, PLUGIN_SOURCE_URL, etc.).
func (p *Plugin) ContractEnv(installPath, downloadPath string, concurrency int, extra map[string]string) map[string]string {
	env := map[string]string{
		"INSTALL_PATH":  installPath,
		"DOWNLOAD_PATH": downloadPath,
		"CONCURRENCY":   strconv.Itoa(concurrency),
		"PLUGIN_PATH":   p.paths.PluginDir(p.Name),
		"PATH":          p.paths.PluginBinDir(p.Name) + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

func (p *Plugin) scriptPath(name string) string {
	return filepath.Join(p.paths.PluginBinDir(p.Name), name)
}

func (p *Plugin) hasScript(name string) bool {
	st, err := os.Stat(p.scriptPath(name))
	return err == nil && !st.IsDir() && st.Mode()&0o111 != 0
}

func (p *Plugin) run(ctx context.Context, script string, env map[string]string, sink process.ProgressSink) (*process.Result, error) {
	path := p.scriptPath(script)
	if _, err := os.Stat(path); err != nil {
		return nil, qwererr.Newf(qwererr.CodeScriptNotFound, "plugin %q has no %s script", p.Name, script)
	}
	return process.Run(ctx, process.Spec{Path: path, Env: env, Sink: sink})
}

// ListAll runs `list-all` (required) and splits its stdout on whitespace.
func (p *Plugin) ListAll(ctx context.Context, concurrency int) ([]string, error) {
	res, err := p.run(ctx, "list-all", p.ContractEnv("", "", concurrency, nil), nil)
	if err != nil {
		return nil, err
	}
	return strings.Fields(res.Stdout), nil
}

// Download runs the optional `download` script; success is exit status
// only, stdout is discarded.
func (p *Plugin) Download(ctx context.Context, v ident.Ident, installPath, downloadPath string, concurrency int, sink process.ProgressSink) error {
	if !p.hasScript("download") {
		return nil
	}
	if err := os.MkdirAll(downloadPath, 0o755); err != nil {
		return qwererr.Wrapf(err, qwererr.CodeIo, "failed to create download dir %s", downloadPath)
	}
	env := p.ContractEnv(installPath, downloadPath, concurrency, map[string]string{
		"INSTALL_TYPE":    v.InstallType(),
		"INSTALL_VERSION": v.VersionStr(),
	})
	_, err := p.run(ctx, "download", env, sink)
	return err
}

// Install runs the required `install` script. system is a no-op returning
// success (spec.md §4.2 pre/post invariants). Callers are responsible for
// the VersionAlreadyInstalled check and for creating installPath first.
func (p *Plugin) Install(ctx context.Context, v ident.Ident, installPath, downloadPath string, concurrency int, sink process.ProgressSink) error {
	if v.Kind() == ident.System {
		return nil
	}
	env := p.ContractEnv(installPath, downloadPath, concurrency, map[string]string{
		"INSTALL_TYPE":    v.InstallType(),
		"INSTALL_VERSION": v.VersionStr(),
	})
	_, err := p.run(ctx, "install", env, sink)
	return err
}

// Uninstall runs the optional `uninstall` script; if absent, the caller
// removes the install directory directly (spec.md §4.2).
func (p *Plugin) Uninstall(ctx context.Context, v ident.Ident, installPath, downloadPath string, concurrency int) (ran bool, err error) {
	if !p.hasScript("uninstall") {
		return false, nil
	}
	env := p.ContractEnv(installPath, downloadPath, concurrency, map[string]string{
		"INSTALL_TYPE":    v.InstallType(),
		"INSTALL_VERSION": v.VersionStr(),
	})
	_, err = p.run(ctx, "uninstall", env, nil)
	return true, err
}

// HelpWhich is the closed set of help.* script suffixes (spec.md §4.2).
type HelpWhich string

const (
	HelpOverview HelpWhich = "overview"
	HelpDeps     HelpWhich = "deps"
	HelpConfig   HelpWhich = "config"
	HelpLinks    HelpWhich = "links"
)

// Help runs `help.<which>` if present and returns its stdout verbatim.
func (p *Plugin) Help(ctx context.Context, which HelpWhich) (string, bool, error) {
	script := "help." + string(which)
	if !p.hasScript(script) {
		return "", false, nil
	}
	res, err := p.run(ctx, script, p.ContractEnv("", "", 1, nil), nil)
	if err != nil {
		return "", true, err
	}
	return res.Stdout, true, nil
}

// ListBinPaths runs `list-bin-paths` if present, whitespace-splitting its
// output into entries relative to installPath. Absent a script, the
// default is <install>/bin if it exists, else <install> itself.
func (p *Plugin) ListBinPaths(ctx context.Context, installPath string, concurrency int) ([]string, error) {
	if p.hasScript("list-bin-paths") {
		env := p.ContractEnv(installPath, "", concurrency, nil)
		res, err := p.run(ctx, "list-bin-paths", env, nil)
		if err != nil {
			return nil, err
		}
		rel := strings.Fields(res.Stdout)
		out := make([]string, len(rel))
		for i, r := range rel {
			out[i] = filepath.Join(installPath, r)
		}
		return out, nil
	}

	defaultBin := filepath.Join(installPath, "bin")
	if st, err := os.Stat(defaultBin); err == nil && st.IsDir() {
		return []string{defaultBin}, nil
	}
	return []string{installPath}, nil
}

// LatestStable runs `latest-stable` if present and returns its trimmed
// output. If absent, the caller should derive it from ListAll using the
// prerelease-denylist fallback (ResolveLatestStable below).
func (p *Plugin) LatestStable(ctx context.Context, concurrency int) (string, bool, error) {
	if !p.hasScript("latest-stable") {
		return "", false, nil
	}
	res, err := p.run(ctx, "latest-stable", p.ContractEnv("", "", concurrency, nil), nil)
	if err != nil {
		return "", true, err
	}
	return strings.TrimSpace(res.Stdout), true, nil
}

// PostPluginAdd runs the optional post-add hook with PLUGIN_SOURCE_URL set.
func (p *Plugin) PostPluginAdd(ctx context.Context, sourceURL string) error {
	if !p.hasScript("post-plugin-add") {
		return nil
	}
	env := p.ContractEnv("", "", 1, map[string]string{"PLUGIN_SOURCE_URL": sourceURL})
	_, err := p.run(ctx, "post-plugin-add", env, nil)
	return err
}

// PostPluginUpdate runs the optional post-update hook with the previous and
// new git refs.
func (p *Plugin) PostPluginUpdate(ctx context.Context, prevRef, postRef string) error {
	if !p.hasScript("post-plugin-update") {
		return nil
	}
	env := p.ContractEnv("", "", 1, map[string]string{
		"PLUGIN_PREV_REF": prevRef,
		"PLUGIN_POST_REF": postRef,
	})
	_, err := p.run(ctx, "post-plugin-update", env, nil)
	return err
}

// PrePluginRemove runs the optional pre-remove hook.
func (p *Plugin) PrePluginRemove(ctx context.Context) error {
	if !p.hasScript("pre-plugin-remove") {
		return nil
	}
	_, err := p.run(ctx, "pre-plugin-remove", p.ContractEnv("", "", 1, nil), nil)
	return err
}

// ListExtensions scans plugins/<name>/lib/commands/ for external
// subcommand scripts (spec.md §4.2's "list_extensions" op and §6's
// "External subcommand"), returning one entry per matching file.
func (p *Plugin) ListExtensions() ([]string, error) {
	dir := filepath.Join(p.paths.PluginDir(p.Name), "lib", "commands")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, qwererr.Wrapf(err, qwererr.CodeIo, "failed to scan %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "command") && strings.HasSuffix(e.Name(), ".bash") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ExternalCommandPath returns the script path for a dispatched external
// subcommand: lib/commands/command-<name>.bash, or lib/commands/command.bash
// when name is the plugin's own name. ok is false if the plugin has none
// matching name.
func (p *Plugin) ExternalCommandPath(name string) (string, bool) {
	candidates := []string{"command-" + name + ".bash"}
	if name == p.Name {
		candidates = append(candidates, "command.bash")
	}
	dir := filepath.Join(p.paths.PluginDir(p.Name), "lib", "commands")
	for _, c := range candidates {
		full := filepath.Join(dir, c)
		if st, err := os.Stat(full); err == nil && !st.IsDir() {
			return full, true
		}
	}
	return "", false
}

// prereleaseDenylist matches version tokens latest-stable's fallback
// should reject, per spec.md §4.2.2.
var prereleaseDenylist = regexp.MustCompile(`(?i)-src|-dev|-latest|-stm|[-.]rc|-alpha|-beta|[-.]pre|-next|(a|b|c)[0-9]+|snapshot|master`)

// ResolveLatestStable implements the "latest-stable" half of spec.md
// §4.2.2's resolve(query): use the script if present, else the last
// entry of allVersions that doesn't match the prerelease denylist.
func ResolveLatestStable(scriptOutput string, hadScript bool, allVersions []string) (string, error) {
	if hadScript {
		return scriptOutput, nil
	}
	for i := len(allVersions) - 1; i >= 0; i-- {
		if !prereleaseDenylist.MatchString(allVersions[i]) {
			return allVersions[i], nil
		}
	}
	return "", qwererr.New(qwererr.CodeNoMatchingVersionsFound, "latest-stable")
}

// Resolve implements resolve(query) from spec.md §4.2.2 for the "latest"
// and exact-match cases; "latest-stable" is handled by ResolveLatestStable
// since it needs the plugin's optional script output threaded in.
func Resolve(query string, allVersions []string) (ident.Ident, error) {
	if query == "latest" {
		if len(allVersions) == 0 {
			return ident.Ident{}, qwererr.New(qwererr.CodeNoVersionsFound, "no versions available")
		}
		return ident.NewRemote(allVersions[len(allVersions)-1]), nil
	}

	parsed := ident.Parse(query)
	if parsed.Kind() == ident.Remote {
		for _, v := range allVersions {
			if v == parsed.Token() {
				return parsed, nil
			}
		}
		return ident.Ident{}, qwererr.Newf(qwererr.CodeNoVersionsFound, "%q not found in list-all output", query)
	}
	return parsed, nil
}
