// Package logging configures the process-wide zerolog logger used by every
// qwer component. It mirrors the teacher's dual console+file sink so users
// get readable terminal output while a persistent log accumulates under
// the XDG state directory for later debugging of flaky plugin scripts.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger based on a verbosity count (number of
// times -v was passed on the command line).
func Setup(verbosity int) {
	switch {
	case verbosity <= 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case verbosity == 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case verbosity == 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}

	writers := []io.Writer{console}
	if f, err := openLogFile(logFilePath()); err == nil {
		writers = append(writers, f)
	} else {
		// Console-only logging still works; note the failure once we have
		// a logger to note it with.
		defer func() {
			log.Warn().Err(err).Msg("failed to open log file, logging to console only")
		}()
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}
}

// Get returns a logger tagged with a component name, so log lines can be
// filtered per subsystem (e.g. "resolver", "plugin", "shellstate").
func Get(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

func logFilePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "qwer.log"
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "qwer", "qwer.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
