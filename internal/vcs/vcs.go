// Package vcs is the opaque clone/fetch capability spec.md §1 lists as a
// deliberately-out-of-scope external collaborator: the core needs "clone a
// URL" and "fetch/checkout a ref", plus reading a clone's HEAD commit and
// origin URL, all implemented by shelling out to the `git` binary through
// internal/process.
package vcs

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/qwer-cli/qwer/internal/process"
	"github.com/qwer-cli/qwer/internal/qwererr"
)

func gitPath() (string, error) {
	path, err := exec.LookPath("git")
	if err != nil {
		return "", qwererr.Wrap(err, qwererr.CodeScriptNotFound, "git not found on PATH")
	}
	return path, nil
}

// Clone clones url into dir (which must not already exist) at the
// default branch.
func Clone(ctx context.Context, url, dir string) error {
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		return qwererr.Newf(qwererr.CodeIo, "%s already exists", dir)
	}
	git, err := gitPath()
	if err != nil {
		return err
	}
	_, err = process.Run(ctx, process.Spec{
		Path: git,
		Args: []string{"clone", "--depth", "1", url, dir},
	})
	return err
}

// Fetch updates an existing clone at dir to ref (a branch, tag, or commit
// the remote understands). Returns the resulting HEAD commit hash.
func Fetch(ctx context.Context, dir, ref string) (string, error) {
	git, err := gitPath()
	if err != nil {
		return "", err
	}
	if _, err := process.Run(ctx, process.Spec{
		Path: git,
		Args: []string{"fetch", "--depth", "1", "origin", ref},
		Dir:  dir,
	}); err != nil {
		return "", err
	}
	if _, err := process.Run(ctx, process.Spec{
		Path: git,
		Args: []string{"checkout", "FETCH_HEAD"},
		Dir:  dir,
	}); err != nil {
		return "", err
	}
	return HeadRef(ctx, dir)
}

// RemoteURL returns the origin remote URL configured for the clone at
// dir, used by `plugin list --urls`.
func RemoteURL(ctx context.Context, dir string) (string, error) {
	git, err := gitPath()
	if err != nil {
		return "", err
	}
	res, err := process.Run(ctx, process.Spec{
		Path: git,
		Args: []string{"remote", "get-url", "origin"},
		Dir:  dir,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(res.Stdout, "\r\n"), nil
}

// HeadRef returns the current HEAD commit hash of the clone at dir.
func HeadRef(ctx context.Context, dir string) (string, error) {
	git, err := gitPath()
	if err != nil {
		return "", err
	}
	res, err := process.Run(ctx, process.Spec{
		Path: git,
		Args: []string{"rev-parse", "HEAD"},
		Dir:  dir,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(res.Stdout, "\r\n"), nil
}
