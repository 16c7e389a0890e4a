// internal/vcs/vcs_test.go
// TEST TYPE: Unit Test
// PURPOSE: Verify Clone and HeadRef against a local git repository (no
// network access required).
package vcs_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/qwer-cli/qwer/internal/vcs"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test", "GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestCloneAndHeadRef(t *testing.T) {
	requireGit(t)

	origin := t.TempDir()
	runGit(t, origin, "init", "-b", "main")
	if err := os.WriteFile(filepath.Join(origin, "README"), []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, origin, "add", "README")
	runGit(t, origin, "commit", "-m", "initial")

	dest := filepath.Join(t.TempDir(), "clone")
	if err := vcs.Clone(context.Background(), origin, dest); err != nil {
		t.Fatalf("Clone() error: %v", err)
	}

	head, err := vcs.HeadRef(context.Background(), dest)
	if err != nil {
		t.Fatalf("HeadRef() error: %v", err)
	}
	if head == "" {
		t.Error("expected a non-empty commit hash")
	}
}

func TestCloneRefusesExistingDir(t *testing.T) {
	requireGit(t)
	dest := t.TempDir()
	if err := vcs.Clone(context.Background(), "https://example.invalid/repo.git", dest); err == nil {
		t.Fatal("expected an error cloning into an existing directory")
	}
}
