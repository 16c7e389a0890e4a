package main

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/qwer-cli/qwer/internal/appversion"
	"github.com/qwer-cli/qwer/internal/logging"
	"github.com/qwer-cli/qwer/internal/paths"
	"github.com/qwer-cli/qwer/internal/qwererr"
)

// appContext is the state every subcommand needs, threaded through
// closures rather than package globals so commands stay testable.
type appContext struct {
	paths           *paths.Paths
	concurrency     int
	invokedAsLegacy bool
}

func exitCodeOf(err error) int {
	return qwererr.ExitCode(err)
}

// Execute builds the command tree and runs it against os.Args. It also
// performs the legacy-name bootstrap (spec.md §6): ensuring bin/asdf
// exists as a symlink to this executable, and refusing hook/export if
// invoked under that legacy name.
func Execute() error {
	ctx := &appContext{
		paths:           paths.New(),
		concurrency:     runtime.NumCPU(),
		invokedAsLegacy: filepath.Base(os.Args[0]) == "asdf",
	}
	ensureLegacySymlink(ctx.paths)

	if handled, err := dispatchExternal(ctx, os.Args[1:]); handled {
		return err
	}

	root := newRootCmd(ctx)
	return root.Execute()
}

func ensureLegacySymlink(p *paths.Paths) {
	link := p.LegacyAsdfSymlink()
	if _, err := os.Lstat(link); err == nil {
		return
	}
	self, err := os.Executable()
	if err != nil {
		return
	}
	if err := os.MkdirAll(p.BinDir(), 0o755); err != nil {
		return
	}
	_ = os.Symlink(self, link) // best-effort; a race here is benign
}

func newRootCmd(ctx *appContext) *cobra.Command {
	var verbosity int

	root := &cobra.Command{
		Use:     "qwer",
		Short:   "Activate per-directory versions of your development tools",
		Version: appversion.String(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbosity)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	root.AddCommand(
		newHookCmd(ctx),
		newExportCmd(ctx),
		newInstallCmd(ctx),
		newUninstallCmd(ctx),
		newPluginCmd(ctx),
		newCurrentCmd(ctx),
		newWhereCmd(ctx),
		newLatestCmd(ctx),
		newListCmd(ctx),
		newGlobalCmd(ctx),
		newLocalCmd(ctx),
		newShellCmd(ctx),
		newHelpCmd(ctx),
	)

	return root
}
