package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qwer-cli/qwer/internal/ident"
	"github.com/qwer-cli/qwer/internal/orchestration"
)

func newUninstallCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <plugin> <version>",
		Short: "Remove an installed version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := orchestration.New(ctx.paths, ctx.concurrency)
			v := ident.Parse(args[1])
			if err := o.Uninstall(context.Background(), args[0], v); err != nil {
				return err
			}
			fmt.Printf("%s %s uninstalled\n", args[0], v.Render())
			return nil
		},
	}
}
