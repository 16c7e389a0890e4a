package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qwer-cli/qwer/internal/qwererr"
	"github.com/qwer-cli/qwer/internal/resolver"
	"github.com/qwer-cli/qwer/internal/shelladapter"
	"github.com/qwer-cli/qwer/internal/shellstate"
)

func newExportCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <shell>",
		Short: "Emit a per-prompt activation/revert script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.invokedAsLegacy {
				return qwererr.New(qwererr.CodeUsage, "export refuses to run under the legacy asdf name")
			}
			sh, ok := shelladapter.Parse(args[0])
			if !ok {
				return qwererr.Newf(qwererr.CodeUsage, "unsupported shell %q", args[0])
			}

			cwd, err := os.Getwd()
			if err != nil {
				return qwererr.Wrap(err, qwererr.CodeInvalidWorkdir, "cannot determine working directory")
			}

			model, resolveErr := resolver.Resolve(context.Background(), ctx.paths, cwd, ctx.concurrency)
			boot := shellstate.ReadBootstrap()

			// A resolution failure must never emit a partial activation
			// (spec.md §7): fall back to a full revert of whatever was
			// previously applied.
			if resolveErr != nil {
				model = nil
			}

			script, err := sh.Apply(model, boot)
			if err != nil {
				return err
			}
			fmt.Print(script)
			return resolveErr
		},
	}
}
