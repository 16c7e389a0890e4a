package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/qwer-cli/qwer/internal/orchestration"
	"github.com/qwer-cli/qwer/internal/process"
)

func newInstallCmd(ctx *appContext) *cobra.Command {
	var keepDownload bool

	cmd := &cobra.Command{
		Use:   "install [plugin] [version]",
		Short: "Install a declared version, or everything declared in the current directory tree",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := orchestration.New(ctx.paths, ctx.concurrency)

			// A redirected/piped stderr is presumably being captured by a
			// script or log aggregator; buffer silently instead of
			// interleaving partial progress lines into it.
			var sink process.ProgressSink
			if isatty.IsTerminal(os.Stderr.Fd()) {
				sink = process.ProgressFunc(func(lines []string) {
					for _, l := range lines {
						fmt.Fprintln(os.Stderr, l)
					}
				})
			}

			if len(args) == 0 {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				return o.InstallAll(context.Background(), cwd, keepDownload, sink)
			}

			query := "latest"
			if len(args) == 2 {
				query = args[1]
			} else {
				cwd, err := os.Getwd()
				if err == nil {
					if v, resolveErr := declaredVersion(cwd, args[0]); resolveErr == nil {
						query = v
					}
				}
			}

			v, err := o.Install(context.Background(), args[0], query, keepDownload, sink)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s installed\n", args[0], v.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepDownload, "keep-download", false, "retain the download directory after install")
	return cmd
}
