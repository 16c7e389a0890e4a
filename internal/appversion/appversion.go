// Package appversion holds the CLI's own version string, set at build time
// via -ldflags the way the teacher's own version package does.
package appversion

// Version, Commit, and BuildDate are overridden at build time via
// -ldflags "-X github.com/qwer-cli/qwer/internal/appversion.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String renders the full version line printed by `qwer --version`.
func String() string {
	return Version + " (" + Commit + ", " + BuildDate + ")"
}
