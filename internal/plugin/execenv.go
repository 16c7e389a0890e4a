// exec-env echo rewrite (spec.md §4.2.1). The exec-env script is
// conventionally sourced, mutating the caller's shell via `export
// KEY=VALUE` lines. Since the core never sources plugin scripts into
// itself, it rewrites every `export ` prefix to `echo ` once, caches the
// rewritten file as a sibling with executable permissions, and executes
// that instead. This is approximate (it misses indirection through
// sourced files) but covers the vast majority of plugins. A diff-based
// fallback (env before/after sourcing) is not implemented.
package plugin

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/qwer-cli/qwer/internal/ident"
	"github.com/qwer-cli/qwer/internal/process"
	"github.com/qwer-cli/qwer/internal/qwererr"
)

func runScriptAt(ctx context.Context, path string, env map[string]string) (*process.Result, error) {
	return process.Run(ctx, process.Spec{Path: path, Env: env})
}

const execEnvScript = "exec-env"
const execEnvEchoSuffix = ".qwer-echo"

// execEnvEchoPath returns the cached rewritten-script path, a sibling of
// exec-env itself.
func (p *Plugin) execEnvEchoPath() string {
	return p.scriptPath(execEnvScript) + execEnvEchoSuffix
}

// ensureExecEnvEcho builds (or reuses) the cached echo-rewritten script.
// Writers race-check by existence only: if two invocations race, the
// last writer wins benignly (spec.md §5), since the rewrite is a pure
// function of the source script's contents.
func (p *Plugin) ensureExecEnvEcho() (string, error) {
	src := p.scriptPath(execEnvScript)
	dst := p.execEnvEchoPath()

	if st, err := os.Stat(dst); err == nil && !st.IsDir() {
		return dst, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return "", qwererr.Wrapf(err, qwererr.CodeIo, "failed to read %s", src)
	}

	rewritten := rewriteExportsToEchoes(string(data))
	if err := os.WriteFile(dst, []byte(rewritten), 0o755); err != nil {
		return "", qwererr.Wrapf(err, qwererr.CodeIo, "failed to write %s", dst)
	}
	return dst, nil
}

// rewriteExportsToEchoes substitutes every "export " line prefix with
// "echo ", line by line, leaving everything else (including the
// shebang) untouched.
func rewriteExportsToEchoes(script string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(script))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]
		if strings.HasPrefix(trimmed, "export ") {
			b.WriteString(indent)
			b.WriteString("echo ")
			b.WriteString(strings.TrimPrefix(trimmed, "export "))
		} else {
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ExecEnv runs the exec-env echo rewrite (if the plugin has an exec-env
// script) and parses `KEY=VALUE` stdout lines into a map. Absent a script,
// returns an empty map and no error (it is optional, spec.md §4.2).
func (p *Plugin) ExecEnv(ctx context.Context, v ident.Ident, installPath string, concurrency int) (map[string]string, error) {
	if !p.hasScript(execEnvScript) {
		return map[string]string{}, nil
	}

	echoPath, err := p.ensureExecEnvEcho()
	if err != nil {
		return nil, err
	}

	env := p.ContractEnv(installPath, "", concurrency, map[string]string{
		"INSTALL_TYPE":    v.InstallType(),
		"INSTALL_VERSION": v.VersionStr(),
	})

	result, err := runScriptAt(ctx, echoPath, env)
	if err != nil {
		return nil, err
	}

	out := map[string]string{}
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out, nil
}
