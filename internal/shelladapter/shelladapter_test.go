// internal/shelladapter/shelladapter_test.go
// TEST TYPE: Unit Test
// PURPOSE: Verify the literal bash hook emission (spec.md §8 scenario 2)
// and the end-to-end activation/idempotence/deactivation scenarios
// (spec.md §8 scenarios 3-5).
package shelladapter_test

import (
	"strings"
	"testing"

	"github.com/qwer-cli/qwer/internal/env"
	"github.com/qwer-cli/qwer/internal/shelladapter"
	"github.com/qwer-cli/qwer/internal/shellstate"
)

func TestHookBashLiteral(t *testing.T) {
	got := shelladapter.Bash.Hook(`"./qwer" export bash`, "qwer_hook")
	want := `_qwer_hook() {
  local previous_exit_status=$?;
  trap -- '' SIGINT;
  eval "$("./qwer" export bash)";
  trap - SIGINT;
  return $previous_exit_status;
};
if ! [[ "${PROMPT_COMMAND:-}" =~ _qwer_hook ]]; then
  PROMPT_COMMAND="_qwer_hook${PROMPT_COMMAND:+;$PROMPT_COMMAND}"
fi
`
	if got != want {
		t.Errorf("Hook() =\n%s\nwant:\n%s", got, want)
	}
}

func TestHookZshRegistersPrecmdFunction(t *testing.T) {
	got := shelladapter.Zsh.Hook(`"./qwer" export zsh`, "qwer_hook")
	if !strings.Contains(got, "precmd_functions+=(_qwer_hook)") {
		t.Errorf("Hook() = %q, want precmd_functions registration", got)
	}
	if !strings.Contains(got, `trap -- '' SIGINT;`) {
		t.Errorf("Hook() = %q, want SIGINT suppression preserved across shells", got)
	}
}

func TestParseUnknownShell(t *testing.T) {
	if _, ok := shelladapter.Parse("fish"); ok {
		t.Error("Parse(fish) should fail: only bash and zsh are supported")
	}
}

func TestActivationColdShell(t *testing.T) {
	// spec.md §8 scenario 3.
	t.Setenv("PATH", "/usr/bin:/bin")

	m := env.New()
	m.AddPath("/data/installs/nodejs/18.17.1/bin")

	script, err := shelladapter.Bash.Apply(m, shellstate.Bootstrap{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(script, `export PATH="/data/installs/nodejs/18.17.1/bin:/usr/bin:/bin";`) {
		t.Errorf("script = %q", script)
	}
	if !strings.Contains(script, "export STATE=") || !strings.Contains(script, "export CURRENT=") {
		t.Errorf("script = %q, want STATE and CURRENT exported", script)
	}
	if strings.Contains(script, "PREV") {
		t.Errorf("script = %q, scenario 3 sets no PREV", script)
	}
}

func TestActivationIdempotentRerun(t *testing.T) {
	// spec.md §8 scenario 4.
	m := env.New()
	m.AddPath("/data/installs/nodejs/18.17.1/bin")
	hash := m.Hash()

	script, err := shelladapter.Bash.Apply(m, shellstate.Bootstrap{State: hexHash(hash)})
	if err != nil {
		t.Fatal(err)
	}
	if script != "" {
		t.Errorf("script = %q, want empty on idempotent re-run", script)
	}
}

func TestDeactivationDirectoryChangeAway(t *testing.T) {
	// spec.md §8 scenario 5.
	t.Setenv("PATH", "/data/installs/nodejs/18.17.1/bin:/usr/bin:/bin")

	prevCurrent := env.New()
	prevCurrent.AddPath("/data/installs/nodejs/18.17.1/bin")

	// The shell carries STATE and CURRENT from scenario 3 in its
	// environment; Render only unsets variables that are actually set.
	t.Setenv("STATE", "deadbeef")
	t.Setenv("CURRENT", prevCurrent.Serialize())

	script, err := shelladapter.Bash.Apply(nil, shellstate.Bootstrap{
		State:   "deadbeef",
		Current: prevCurrent.Serialize(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(script, `export PATH="/usr/bin:/bin";`) {
		t.Errorf("script = %q, want stripped PATH", script)
	}
	if !strings.Contains(script, "unset STATE;") || !strings.Contains(script, "unset CURRENT;") {
		t.Errorf("script = %q, want STATE and CURRENT unset", script)
	}
	if strings.Contains(script, "PREV") {
		t.Errorf("script = %q, scenario 5 has no PREV to restore", script)
	}
}

func hexHash(h uint64) string {
	const digits = "0123456789abcdef"
	if h == 0 {
		return "0"
	}
	var b [16]byte
	i := len(b)
	for h > 0 {
		i--
		b[i] = digits[h&0xf]
		h >>= 4
	}
	return string(b[i:])
}
