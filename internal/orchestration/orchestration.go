// Package orchestration implements OrchestrationCommands (spec.md §4.6):
// the top-level operations the CLI surface dispatches to, composed from
// PluginScripts, EnvResolver, and VersionFile.
package orchestration

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/qwer-cli/qwer/internal/env"
	"github.com/qwer-cli/qwer/internal/ident"
	"github.com/qwer-cli/qwer/internal/logging"
	"github.com/qwer-cli/qwer/internal/paths"
	"github.com/qwer-cli/qwer/internal/plugin"
	"github.com/qwer-cli/qwer/internal/process"
	"github.com/qwer-cli/qwer/internal/qwererr"
	"github.com/qwer-cli/qwer/internal/versionfile"
)

// Orchestrator holds the shared state every operation needs: the data root
// and a default concurrency hint for script invocations.
type Orchestrator struct {
	Paths       *paths.Paths
	Concurrency int
}

// New builds an Orchestrator. concurrency < 1 is clamped to 1; the CLI
// passes runtime.NumCPU() (SPEC_FULL.md §10).
func New(p *paths.Paths, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{Paths: p, Concurrency: concurrency}
}

// Install implements install(plugin, version_query, concurrency,
// keep_download) (spec.md §4.6): resolve the query, reject System,
// download (if present), install, and clean up the download area unless
// asked to keep it.
func (o *Orchestrator) Install(ctx context.Context, pluginName, versionQuery string, keepDownload bool, sink process.ProgressSink) (ident.Ident, error) {
	pl := plugin.New(o.Paths, pluginName)

	versions, err := pl.ListAll(ctx, o.Concurrency)
	if err != nil {
		return ident.Ident{}, err
	}

	var v ident.Ident
	switch versionQuery {
	case "latest-stable":
		scriptOut, hadScript, err := pl.LatestStable(ctx, o.Concurrency)
		if err != nil {
			return ident.Ident{}, err
		}
		token, err := plugin.ResolveLatestStable(scriptOut, hadScript, versions)
		if err != nil {
			return ident.Ident{}, err
		}
		v = ident.NewRemote(token)
	default:
		v, err = plugin.Resolve(versionQuery, versions)
		if err != nil {
			return ident.Ident{}, err
		}
	}

	if v.Kind() == ident.System {
		return v, qwererr.New(qwererr.CodeInvalidVersionEntry, "cannot install the system version")
	}

	installPath := o.Paths.InstallPath(pluginName, v.Render())
	if st, err := os.Stat(installPath); err == nil && st.IsDir() {
		return v, qwererr.Newf(qwererr.CodeVersionAlreadyInstalled, "%s %s is already installed", pluginName, v.Render())
	}

	downloadPath := o.Paths.DownloadPath(pluginName, v.Render())
	if err := pl.Download(ctx, v, installPath, downloadPath, o.Concurrency, sink); err != nil {
		return v, err
	}

	if err := os.MkdirAll(installPath, 0o755); err != nil {
		return v, qwererr.Wrapf(err, qwererr.CodeIo, "failed to create %s", installPath)
	}
	if err := pl.Install(ctx, v, installPath, downloadPath, o.Concurrency, sink); err != nil {
		_ = os.RemoveAll(installPath)
		return v, err
	}

	if !keepDownload {
		_ = os.RemoveAll(downloadPath)
	}
	return v, nil
}

// installJob pairs a dispatched plugin install with the future that
// delivers its outcome, so results can be read back in sorted-name order
// regardless of which worker finishes first.
type installJob struct {
	name   string
	target ident.Ident
	future process.Future
}

// InstallAll implements the aggregate form of install: gather every
// declared version from every version-file discovered upward from dir
// (shallower wins), dispatch each plugin's first declared candidate
// through the worker pool unless it is system or already installed (later
// candidates are not considered), and read results
// back sorted by plugin name so output is deterministic regardless of
// completion order (spec.md §4.6, §5).
func (o *Orchestrator) InstallAll(ctx context.Context, dir string, keepDownload bool, sink process.ProgressSink) error {
	set, err := versionfile.ResolveSet(dir)
	if err != nil {
		return err
	}

	pluginNames := set.Plugins()
	sort.Strings(pluginNames)

	pool := process.NewPool(o.Concurrency)
	defer pool.Close()

	var jobs []installJob
	for _, name := range pluginNames {
		candidates, _ := set.Candidates(name)
		if len(candidates) == 0 {
			continue
		}
		target := candidates[0]
		if target.Kind() == ident.System {
			continue
		}

		installPath := o.Paths.InstallPath(name, target.Render())
		if st, err := os.Stat(installPath); err == nil && st.IsDir() {
			continue // already installed
		}

		name, target := name, target
		future := pool.Submit(ctx, func(ctx context.Context) (*process.Result, error) {
			if _, err := o.Install(ctx, name, target.Render(), keepDownload, sink); err != nil {
				if code, ok := qwererr.CodeOf(err); ok && code == qwererr.CodeVersionAlreadyInstalled {
					return &process.Result{}, nil
				}
				return nil, err
			}
			return &process.Result{}, nil
		})
		jobs = append(jobs, installJob{name: name, target: target, future: future})
	}

	log := logging.Get("orchestration")
	for _, j := range jobs {
		res := <-j.future
		if res.Err != nil {
			return res.Err
		}
		log.Info().Str("plugin", j.name).Str("version", j.target.Render()).Msg("installed")
	}
	return nil
}

// Uninstall implements uninstall(plugin, version) (spec.md §4.6): require
// the version installed, run the uninstall script if present else remove
// the directory directly, and remove any lingering download area.
func (o *Orchestrator) Uninstall(ctx context.Context, pluginName string, v ident.Ident) error {
	installPath := o.Paths.InstallPath(pluginName, v.Render())
	st, err := os.Stat(installPath)
	if err != nil || !st.IsDir() {
		return qwererr.Newf(qwererr.CodeVersionNotInstalled, "%s %s is not installed", pluginName, v.Render())
	}

	pl := plugin.New(o.Paths, pluginName)
	downloadPath := o.Paths.DownloadPath(pluginName, v.Render())
	ran, err := pl.Uninstall(ctx, v, installPath, downloadPath, o.Concurrency)
	if err != nil {
		return err
	}
	if !ran {
		if err := os.RemoveAll(installPath); err != nil {
			return qwererr.Wrapf(err, qwererr.CodeIo, "failed to remove %s", installPath)
		}
	}
	_ = os.RemoveAll(downloadPath)
	return nil
}

// VersionFileScope selects where global/local upsert their entry.
type VersionFileScope int

const (
	// Global writes to the user's home-directory version-file.
	Global VersionFileScope = iota
	// Local writes to the current working directory's version-file.
	Local
)

// SetDeclared implements global(plugin, version) / local(plugin, version)
// (spec.md §4.6): require the version installed, then upsert it into the
// scope's version-file, overwriting any existing entry for the plugin.
func (o *Orchestrator) SetDeclared(scope VersionFileScope, dir string, pluginName string, v ident.Ident) error {
	if v.Kind() != ident.System {
		installPath := o.Paths.InstallPath(pluginName, v.Render())
		if st, err := os.Stat(installPath); err != nil || !st.IsDir() {
			return qwererr.Newf(qwererr.CodeVersionNotInstalled, "%s %s is not installed", pluginName, v.Render())
		}
	}

	target := versionFilePath(scope, dir)
	f, err := loadOrNew(target)
	if err != nil {
		return err
	}
	f.Set(pluginName, []ident.Ident{v})
	return f.WriteFile(target)
}

func versionFilePath(scope VersionFileScope, dir string) string {
	switch scope {
	case Global:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, versionfile.DefaultFilename)
	default:
		return filepath.Join(dir, versionfile.DefaultFilename)
	}
}

func loadOrNew(path string) (*versionfile.File, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return versionfile.New(), nil
		}
		return nil, qwererr.Wrapf(err, qwererr.CodeIo, "failed to stat %s", path)
	}
	return versionfile.ParseFile(path)
}

// Shell implements shell(plugin, version) (spec.md §4.6): require the
// version installed, resolve its env in isolation, and return a one-shot
// EnvModel for the caller to render — no bootstrap-state bookkeeping,
// transient for the current process only.
func (o *Orchestrator) Shell(ctx context.Context, pluginName string, v ident.Ident) (*env.Model, error) {
	installPath := o.Paths.InstallPath(pluginName, v.Render())
	if v.Kind() != ident.System {
		if st, err := os.Stat(installPath); err != nil || !st.IsDir() {
			return nil, qwererr.Newf(qwererr.CodeVersionNotInstalled, "%s %s is not installed", pluginName, v.Render())
		}
	}

	model := env.New()
	if v.Kind() == ident.System {
		return model, nil
	}

	pl := plugin.New(o.Paths, pluginName)
	vars, err := pl.ExecEnv(ctx, v, installPath, o.Concurrency)
	if err != nil {
		return nil, err
	}
	for k, val := range vars {
		model.SetVar(k, val)
	}

	binPaths, err := pl.ListBinPaths(ctx, installPath, o.Concurrency)
	if err != nil {
		return nil, err
	}
	for _, bp := range binPaths {
		model.AddPath(bp)
	}
	return model, nil
}
