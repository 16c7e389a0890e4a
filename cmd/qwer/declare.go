package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qwer-cli/qwer/internal/ident"
	"github.com/qwer-cli/qwer/internal/orchestration"
)

func newGlobalCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "global <plugin> <version>",
		Short: "Declare a version in the home-directory version-file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := orchestration.New(ctx.paths, ctx.concurrency)
			return o.SetDeclared(orchestration.Global, "", args[0], ident.Parse(args[1]))
		},
	}
}

func newLocalCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "local <plugin> <version>",
		Short: "Declare a version in the current directory's version-file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			o := orchestration.New(ctx.paths, ctx.concurrency)
			return o.SetDeclared(orchestration.Local, cwd, args[0], ident.Parse(args[1]))
		},
	}
}

func newShellCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shell <plugin> <version>",
		Short: "Emit a one-shot activation script for the current session only",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := orchestration.New(ctx.paths, ctx.concurrency)
			model, err := o.Shell(context.Background(), args[0], ident.Parse(args[1]))
			if err != nil {
				return err
			}
			for k, v := range model.Vars() {
				fmt.Printf("export %s=%q;\n", k, v)
			}
			if len(model.Paths()) > 0 {
				fmt.Printf("export PATH=%q;\n", strings.Join(model.Paths(), ":")+":"+os.Getenv("PATH"))
			}
			return nil
		},
	}
}
