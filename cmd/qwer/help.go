package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qwer-cli/qwer/internal/plugin"
	"github.com/qwer-cli/qwer/internal/qwererr"
)

// newHelpCmd implements `help [plugin [version]]` (spec.md §6): the
// plugin's own help.overview/help.config/help.links scripts, not cobra's
// command-usage help (which remains reachable via -h/--help on any
// command). A version argument is accepted but not used.
func newHelpCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "help [plugin]",
		Short: "Show a plugin's overview, config, and links help text",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Root().Help()
			}

			pl := plugin.New(ctx.paths, args[0])
			any := false
			for _, which := range []plugin.HelpWhich{plugin.HelpOverview, plugin.HelpConfig, plugin.HelpLinks} {
				text, ok, err := pl.Help(context.Background(), which)
				if err != nil {
					return err
				}
				if ok {
					any = true
					fmt.Print(text)
				}
			}
			if !any {
				return qwererr.Newf(qwererr.CodeScriptNotFound, "plugin %q offers no help scripts", args[0])
			}
			return nil
		},
	}
}
