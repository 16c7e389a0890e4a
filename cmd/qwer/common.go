package main

import (
	"github.com/qwer-cli/qwer/internal/qwererr"
	"github.com/qwer-cli/qwer/internal/versionfile"
)

// declaredVersion returns the first candidate's rendered token declared
// for plugin by the version-files discovered walking up from dir.
func declaredVersion(dir, plugin string) (string, error) {
	set, err := versionfile.ResolveSet(dir)
	if err != nil {
		return "", err
	}
	candidates, ok := set.Candidates(plugin)
	if !ok || len(candidates) == 0 {
		return "", qwererr.Newf(qwererr.CodeNoVersionsFileFound, "no version declared for %q", plugin)
	}
	return candidates[0].Render(), nil
}
