package main

import (
	"context"
	"os"

	"github.com/qwer-cli/qwer/internal/plugin"
	"github.com/qwer-cli/qwer/internal/process"
)

// knownCommands lists every built-in subcommand name, so dispatchExternal
// can tell a genuine unknown command (forward to a plugin's
// lib/commands/command*.bash, spec.md §4.2/§6) apart from a typo in a
// built-in one, which should surface cobra's own usage error instead.
var knownCommands = map[string]bool{
	"hook": true, "export": true, "install": true, "uninstall": true,
	"plugin": true, "current": true, "where": true, "latest": true,
	"list": true, "global": true, "local": true, "shell": true,
	"help": true, "completion": true, "__complete": true,
}

// dispatchExternal forwards an unrecognized top-level command to the
// first installed plugin that provides a matching lib/commands/command*
// script (spec.md §4.2 "External subcommand"). handled is false when
// args don't name an external subcommand at all, in which case the
// caller should fall through to the normal cobra tree.
func dispatchExternal(ctx *appContext, args []string) (handled bool, err error) {
	if len(args) == 0 {
		return false, nil
	}
	name := args[0]
	if len(name) == 0 || name[0] == '-' || knownCommands[name] {
		return false, nil
	}

	entries, readErr := os.ReadDir(ctx.paths.PluginsRootDir())
	if readErr != nil {
		return false, nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pl := plugin.New(ctx.paths, e.Name())
		scriptPath, ok := pl.ExternalCommandPath(name)
		if !ok {
			continue
		}

		env := pl.ContractEnv("", "", ctx.concurrency, nil)
		res, runErr := process.Run(context.Background(), process.Spec{
			Path: scriptPath,
			Args: args[1:],
			Env:  env,
			Sink: process.ProgressFunc(func(lines []string) {}),
		})
		if runErr != nil {
			return true, runErr
		}
		os.Stdout.WriteString(res.Stdout)
		return true, nil
	}
	return false, nil
}
