package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qwer-cli/qwer/internal/qwererr"
	"github.com/qwer-cli/qwer/internal/shelladapter"
)

func newHookCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "hook <shell>",
		Short: "Emit the startup-time shell hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.invokedAsLegacy {
				return qwererr.New(qwererr.CodeUsage, "hook refuses to run under the legacy asdf name")
			}
			sh, ok := shelladapter.Parse(args[0])
			if !ok {
				return qwererr.Newf(qwererr.CodeUsage, "unsupported shell %q", args[0])
			}
			selfCmd := fmt.Sprintf(`"%s" export %s`, selfInvocation(), sh.String())
			fmt.Fprint(cmd.OutOrStdout(), sh.Hook(selfCmd, "qwer_hook"))
			return nil
		},
	}
}

// selfInvocation returns the command the hook should re-invoke. Kept as a
// function (rather than a constant) so a test can override resolution
// later without touching the hook template itself.
func selfInvocation() string {
	return "qwer"
}
