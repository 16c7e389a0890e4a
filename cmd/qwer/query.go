package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qwer-cli/qwer/internal/plugin"
	"github.com/qwer-cli/qwer/internal/qwererr"
	"github.com/qwer-cli/qwer/internal/resolver"
)

func newCurrentCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "current <plugin>",
		Short: "Show the version resolved for a plugin in the current directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			selections, err := resolver.Select(ctx.paths, cwd)
			if err != nil {
				return err
			}
			for _, s := range selections {
				if s.Plugin == args[0] {
					fmt.Println(s.Version.Render())
					return nil
				}
			}
			return qwererr.Newf(qwererr.CodeVersionNotInstalled, "no installed version resolved for %q", args[0])
		},
	}
}

func newWhereCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "where <plugin> [version]",
		Short: "Print the install directory for a plugin's version",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				fmt.Println(ctx.paths.InstallPath(args[0], args[1]))
				return nil
			}
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			selections, err := resolver.Select(ctx.paths, cwd)
			if err != nil {
				return err
			}
			for _, s := range selections {
				if s.Plugin == args[0] {
					fmt.Println(s.InstallPath)
					return nil
				}
			}
			return qwererr.Newf(qwererr.CodeVersionNotInstalled, "no installed version resolved for %q", args[0])
		},
	}
}

func newLatestCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "latest <plugin> [prefix]",
		Short: "Print the latest version matching an optional prefix",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pl := plugin.New(ctx.paths, args[0])
			versions, err := pl.ListAll(context.Background(), ctx.concurrency)
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 2 {
				prefix = args[1]
			}
			for i := len(versions) - 1; i >= 0; i-- {
				if strings.HasPrefix(versions[i], prefix) {
					fmt.Println(versions[i])
					return nil
				}
			}
			return qwererr.Newf(qwererr.CodeNoMatchingVersionsFound, "no version of %q matches prefix %q", args[0], prefix)
		},
	}
}

func newListCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [all] [plugin] [prefix]",
		Short: "List installed versions, or (with 'all') every available version",
		Args:  cobra.RangeArgs(0, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && args[0] == "all" {
				return listAll(ctx, args[1:])
			}
			return listInstalled(ctx, args)
		},
	}
}

func listAll(ctx *appContext, args []string) error {
	if len(args) == 0 {
		return qwererr.New(qwererr.CodeUsage, "list all requires a plugin name")
	}
	pl := plugin.New(ctx.paths, args[0])
	versions, err := pl.ListAll(context.Background(), ctx.concurrency)
	if err != nil {
		return err
	}
	prefix := ""
	if len(args) == 2 {
		prefix = args[1]
	}
	for _, v := range versions {
		if strings.HasPrefix(v, prefix) {
			fmt.Println(v)
		}
	}
	return nil
}

func listInstalled(ctx *appContext, args []string) error {
	if len(args) >= 1 {
		dir := ctx.paths.InstallDir(args[0])
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return qwererr.Wrapf(err, qwererr.CodeIo, "failed to read %s", dir)
		}
		for _, e := range entries {
			if e.IsDir() {
				fmt.Println(e.Name())
			}
		}
		return nil
	}

	root := ctx.paths.InstallsRootDir()
	plugins, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return qwererr.Wrapf(err, qwererr.CodeIo, "failed to read %s", root)
	}
	names := make([]string, 0, len(plugins))
	for _, p := range plugins {
		if p.IsDir() {
			names = append(names, p.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		versions, err := os.ReadDir(ctx.paths.InstallDir(name))
		if err != nil {
			continue
		}
		for _, v := range versions {
			if v.IsDir() {
				fmt.Printf("%s %s\n", name, v.Name())
			}
		}
	}
	return nil
}
