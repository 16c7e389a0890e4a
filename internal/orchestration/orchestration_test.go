// internal/orchestration/orchestration_test.go
// TEST TYPE: Unit Test
// PURPOSE: Verify install/uninstall/global/local/shell operations
// (spec.md §4.6).
package orchestration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwer-cli/qwer/internal/ident"
	"github.com/qwer-cli/qwer/internal/orchestration"
	"github.com/qwer-cli/qwer/internal/paths"
	"github.com/qwer-cli/qwer/internal/qwererr"
	"github.com/qwer-cli/qwer/internal/versionfile"
)

func writeExecutable(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
}

func setupPlugin(t *testing.T, name string) *paths.Paths {
	t.Helper()
	p := paths.NewWithRoot(t.TempDir())
	writeExecutable(t, filepath.Join(p.PluginBinDir(name), "list-all"), "echo '1.0.0 2.0.0'\n")
	writeExecutable(t, filepath.Join(p.PluginBinDir(name), "install"), "mkdir -p \"$INSTALL_PATH/bin\"\n")
	return p
}

func TestInstallRunsDownloadThenInstall(t *testing.T) {
	p := setupPlugin(t, "nodejs")
	writeExecutable(t, filepath.Join(p.PluginBinDir("nodejs"), "download"), "touch \"$DOWNLOAD_PATH/archive.tar\"\n")

	o := orchestration.New(p, 1)
	v, err := o.Install(context.Background(), "nodejs", "2.0.0", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v.Render())

	st, err := os.Stat(p.InstallPath("nodejs", "2.0.0"))
	require.NoError(t, err)
	assert.True(t, st.IsDir())

	_, err = os.Stat(p.DownloadPath("nodejs", "2.0.0"))
	assert.True(t, os.IsNotExist(err), "expected download dir removed when keepDownload is false")
}

func TestInstallKeepsDownloadWhenRequested(t *testing.T) {
	p := setupPlugin(t, "nodejs")
	writeExecutable(t, filepath.Join(p.PluginBinDir("nodejs"), "download"), "touch \"$DOWNLOAD_PATH/archive.tar\"\n")

	o := orchestration.New(p, 1)
	_, err := o.Install(context.Background(), "nodejs", "2.0.0", true, nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(p.DownloadPath("nodejs", "2.0.0"), "archive.tar"))
	assert.NoError(t, err, "expected download artifact retained")
}

func TestInstallAlreadyInstalledIsError(t *testing.T) {
	p := setupPlugin(t, "nodejs")
	o := orchestration.New(p, 1)
	_, err := o.Install(context.Background(), "nodejs", "2.0.0", false, nil)
	require.NoError(t, err)

	_, err = o.Install(context.Background(), "nodejs", "2.0.0", false, nil)
	code, _ := qwererr.CodeOf(err)
	assert.Equal(t, qwererr.CodeVersionAlreadyInstalled, code)
}

func TestInstallRejectsSystem(t *testing.T) {
	p := setupPlugin(t, "nodejs")
	o := orchestration.New(p, 1)
	_, err := o.Install(context.Background(), "nodejs", "system", false, nil)
	assert.Error(t, err, "expected error installing the system version")
}

func TestInstallAllSortsByNameAndSkipsInstalled(t *testing.T) {
	p := setupPlugin(t, "nodejs")
	writeExecutable(t, filepath.Join(p.PluginBinDir("ruby"), "list-all"), "echo '3.2.0'\n")
	writeExecutable(t, filepath.Join(p.PluginBinDir("ruby"), "install"), "mkdir -p \"$INSTALL_PATH/bin\"\n")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tool-versions"), []byte("ruby 3.2.0\nnodejs 2.0.0\n"), 0o644))

	o := orchestration.New(p, 1)
	require.NoError(t, o.InstallAll(context.Background(), dir, false, nil))

	st, err := os.Stat(p.InstallPath("nodejs", "2.0.0"))
	require.NoError(t, err)
	assert.True(t, st.IsDir())

	st, err = os.Stat(p.InstallPath("ruby", "3.2.0"))
	require.NoError(t, err)
	assert.True(t, st.IsDir())

	// Re-running should be a no-op, not VersionAlreadyInstalled surfaced.
	assert.NoError(t, o.InstallAll(context.Background(), dir, false, nil))
}

func TestUninstallRequiresInstalled(t *testing.T) {
	p := paths.NewWithRoot(t.TempDir())
	o := orchestration.New(p, 1)
	err := o.Uninstall(context.Background(), "nodejs", ident.NewRemote("2.0.0"))
	code, _ := qwererr.CodeOf(err)
	assert.Equal(t, qwererr.CodeVersionNotInstalled, code)
}

func TestUninstallRemovesDirectoryWithoutScript(t *testing.T) {
	p := setupPlugin(t, "nodejs")
	o := orchestration.New(p, 1)
	_, err := o.Install(context.Background(), "nodejs", "2.0.0", false, nil)
	require.NoError(t, err)

	require.NoError(t, o.Uninstall(context.Background(), "nodejs", ident.NewRemote("2.0.0")))

	_, err = os.Stat(p.InstallPath("nodejs", "2.0.0"))
	assert.True(t, os.IsNotExist(err), "expected install dir removed")
}

func TestSetDeclaredRequiresInstalled(t *testing.T) {
	p := paths.NewWithRoot(t.TempDir())
	o := orchestration.New(p, 1)
	err := o.SetDeclared(orchestration.Local, t.TempDir(), "nodejs", ident.NewRemote("2.0.0"))
	code, _ := qwererr.CodeOf(err)
	assert.Equal(t, qwererr.CodeVersionNotInstalled, code)
}

func TestSetDeclaredLocalUpsertsOverwritingExisting(t *testing.T) {
	p := setupPlugin(t, "nodejs")
	o := orchestration.New(p, 1)
	_, err := o.Install(context.Background(), "nodejs", "1.0.0", false, nil)
	require.NoError(t, err)
	_, err = o.Install(context.Background(), "nodejs", "2.0.0", false, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, o.SetDeclared(orchestration.Local, dir, "nodejs", ident.NewRemote("1.0.0")))
	require.NoError(t, o.SetDeclared(orchestration.Local, dir, "nodejs", ident.NewRemote("2.0.0")))

	f, err := versionfile.ParseFile(filepath.Join(dir, ".tool-versions"))
	require.NoError(t, err)

	candidates, ok := f.Candidates("nodejs")
	require.True(t, ok)
	require.Len(t, candidates, 1)
	assert.Equal(t, "2.0.0", candidates[0].Render())
}

func TestShellRequiresInstalled(t *testing.T) {
	p := paths.NewWithRoot(t.TempDir())
	o := orchestration.New(p, 1)
	_, err := o.Shell(context.Background(), "nodejs", ident.NewRemote("2.0.0"))
	code, _ := qwererr.CodeOf(err)
	assert.Equal(t, qwererr.CodeVersionNotInstalled, code)
}

func TestShellSystemIsEmptyModel(t *testing.T) {
	p := paths.NewWithRoot(t.TempDir())
	o := orchestration.New(p, 1)
	m, err := o.Shell(context.Background(), "make", ident.NewSystem())
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestShellResolvesEnvAndBinPaths(t *testing.T) {
	p := setupPlugin(t, "nodejs")
	writeExecutable(t, filepath.Join(p.PluginBinDir("nodejs"), "exec-env"), "export NODE_ENV=production\n")

	o := orchestration.New(p, 1)
	_, err := o.Install(context.Background(), "nodejs", "2.0.0", false, nil)
	require.NoError(t, err)

	m, err := o.Shell(context.Background(), "nodejs", ident.NewRemote("2.0.0"))
	require.NoError(t, err)

	v, _ := m.Var("NODE_ENV")
	assert.Equal(t, "production", v)

	wantBin := filepath.Join(p.InstallPath("nodejs", "2.0.0"), "bin")
	assert.Contains(t, m.Paths(), wantBin)
}
