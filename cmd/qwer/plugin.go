package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/qwer-cli/qwer/internal/plugin"
	"github.com/qwer-cli/qwer/internal/qwererr"
	"github.com/qwer-cli/qwer/internal/registrystore"
	"github.com/qwer-cli/qwer/internal/vcs"
)

// defaultRegistry is the short-name registry consulted when `plugin add`
// is given a bare name instead of a URL (the community convention the
// asdf-plugins registry popularized).
const defaultRegistry = "short-name-index"

func newPluginCmd(ctx *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage plugin installations",
	}
	cmd.AddCommand(
		newPluginAddCmd(ctx),
		newPluginRemoveCmd(ctx),
		newPluginUpdateCmd(ctx),
		newPluginListCmd(ctx),
	)
	return cmd
}

func newPluginAddCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> [git-url]",
		Short: "Clone a plugin by name or explicit URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			url := ""
			if len(args) == 2 {
				url = args[1]
			} else {
				resolved, err := registrystore.ResolveShortName(ctx.paths, defaultRegistry, name)
				if err != nil {
					return err
				}
				url = resolved
			}

			dir := ctx.paths.PluginDir(name)
			if err := vcs.Clone(context.Background(), url, dir); err != nil {
				return err
			}
			return plugin.New(ctx.paths, name).PostPluginAdd(context.Background(), url)
		},
	}
}

func newPluginRemoveCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pl := plugin.New(ctx.paths, args[0])
			if err := pl.PrePluginRemove(context.Background()); err != nil {
				return err
			}
			return os.RemoveAll(ctx.paths.PluginDir(args[0]))
		},
	}
}

func newPluginUpdateCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update <name> [ref]",
		Short: "Update a plugin to the latest (or a given) ref",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ctx.paths.PluginDir(args[0])
			if st, err := os.Stat(dir); err != nil || !st.IsDir() {
				return qwererr.Newf(qwererr.CodeIo, "plugin %q is not installed", args[0])
			}

			// TODO(open-question): spec.md §9 leaves open whether a plugin
			// pinned to a ref should be skipped by a bare `update` rather
			// than fast-forwarded. This always fetches HEAD (or the given
			// ref) regardless of how the plugin was last updated; see
			// DESIGN.md.
			ref := "HEAD"
			if len(args) == 2 {
				ref = args[1]
			}

			prevRef, err := vcs.HeadRef(context.Background(), dir)
			if err != nil {
				return err
			}
			postRef, err := vcs.Fetch(context.Background(), dir, ref)
			if err != nil {
				return err
			}
			return plugin.New(ctx.paths, args[0]).PostPluginUpdate(context.Background(), prevRef, postRef)
		},
	}
}

func newPluginListCmd(ctx *appContext) *cobra.Command {
	var showURLs bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := os.ReadDir(ctx.paths.PluginsRootDir())
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return qwererr.Wrapf(err, qwererr.CodeIo, "failed to read %s", ctx.paths.PluginsRootDir())
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				if e.IsDir() {
					names = append(names, e.Name())
				}
			}
			sort.Strings(names)
			for _, name := range names {
				if !showURLs {
					fmt.Println(name)
					continue
				}
				url, err := vcs.RemoteURL(context.Background(), ctx.paths.PluginDir(name))
				if err != nil {
					fmt.Println(name)
					continue
				}
				fmt.Printf("%s\t%s\n", name, url)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showURLs, "urls", false, "also print each plugin's source URL")
	return cmd
}
