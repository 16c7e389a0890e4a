// Package shelladapter implements ShellAdapter (spec.md §4.5): the closed
// {Bash, Zsh} sum, each able to render its startup hook block, sharing the
// default bashlike command-stream renderer from internal/shellstate for
// activation output.
package shelladapter

import (
	"fmt"

	"github.com/qwer-cli/qwer/internal/env"
	"github.com/qwer-cli/qwer/internal/shellstate"
)

// Shell is the closed sum of supported shells.
type Shell int

const (
	Bash Shell = iota
	Zsh
)

// Parse maps a shell name (as passed to `hook`/`export`) to a Shell.
func Parse(name string) (Shell, bool) {
	switch name {
	case "bash":
		return Bash, true
	case "zsh":
		return Zsh, true
	default:
		return 0, false
	}
}

func (s Shell) String() string {
	switch s {
	case Bash:
		return "bash"
	case Zsh:
		return "zsh"
	default:
		return "unknown"
	}
}

// Hook renders the startup-time block sourced once per shell: a function
// named "_"+hookFn that evaluates selfCmd's export output, preserving the
// previous exit status and suppressing SIGINT for the duration of the
// eval, registered to run before every prompt (spec.md §4.5, §8
// scenario 2).
func (s Shell) Hook(selfCmd, hookFn string) string {
	fn := "_" + hookFn
	body := fmt.Sprintf(
		"%s() {\n  local previous_exit_status=$?;\n  trap -- '' SIGINT;\n  eval \"$(%s)\";\n  trap - SIGINT;\n  return $previous_exit_status;\n};\n",
		fn, selfCmd,
	)

	switch s {
	case Zsh:
		return body + fmt.Sprintf(
			"if [[ -z \"${precmd_functions[(r)%s]}\" ]]; then\n  precmd_functions+=(%s)\nfi\n",
			fn, fn,
		)
	default: // Bash
		return body + fmt.Sprintf(
			"if ! [[ \"${PROMPT_COMMAND:-}\" =~ %s ]]; then\n  PROMPT_COMMAND=\"%s${PROMPT_COMMAND:+;$PROMPT_COMMAND}\"\nfi\n",
			fn, fn,
		)
	}
}

// Apply renders the activation command script for model given boot,
// implementing the ShellState diff/revert/apply algorithm (spec.md §4.4).
// Both Bash and Zsh share this bashlike renderer; neither currently needs
// an override.
func (s Shell) Apply(model *env.Model, boot shellstate.Bootstrap) (string, error) {
	plan, err := shellstate.Plan(model, boot)
	if err != nil {
		return "", err
	}
	return shellstate.Render(plan), nil
}
