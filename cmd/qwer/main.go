// Command qwer is a polyglot runtime-version manager: it activates, per
// working directory, the installed versions of third-party developer
// tools declared in .tool-versions files, via a shell hook that evaluates
// the commands this binary emits.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "qwer:", err)
		os.Exit(exitCodeOf(err))
	}
}
