// Package paths centralizes the on-disk data directory layout described in
// spec.md §6, following the teacher's XDG resolution style
// (github.com/adrg/xdg) with an env-var override.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// EnvDataDir overrides the XDG data home for the qwer data directory.
const EnvDataDir = "QWER_DATA_DIR"

// DirName is the subfolder under the XDG data home holding all qwer state.
const DirName = "qwer"

// Paths resolves every directory and file qwer reads or writes, per the
// layout in spec.md §6:
//
//	plugins/<name>/               plugin worktree
//	installs/<name>/<token>/      per-version install tree
//	downloads/<name>/<token>/     transient download area
//	registries/<name>/            plugin registry clone
//	registries.toml               registry sync bookkeeping
//	bin/asdf                      legacy-name symlink
type Paths struct {
	root string
}

// New resolves the data root from QWER_DATA_DIR, falling back to
// <xdg-data-home>/qwer.
func New() *Paths {
	root := os.Getenv(EnvDataDir)
	if root == "" {
		root = filepath.Join(xdg.DataHome, DirName)
	}
	return &Paths{root: root}
}

// NewWithRoot builds a Paths rooted at an explicit directory, used by tests
// and by anything that must operate against an isolated sandbox.
func NewWithRoot(root string) *Paths {
	return &Paths{root: root}
}

// Root returns the qwer data directory itself.
func (p *Paths) Root() string { return p.root }

// PluginDir returns the script directory for a plugin.
func (p *Paths) PluginDir(name string) string {
	return filepath.Join(p.root, "plugins", name)
}

// PluginBinDir returns the bin/ directory holding a plugin's scripts.
func (p *Paths) PluginBinDir(name string) string {
	return filepath.Join(p.PluginDir(name), "bin")
}

// InstallDir returns the root installs/<name>/ directory.
func (p *Paths) InstallDir(name string) string {
	return filepath.Join(p.root, "installs", name)
}

// InstallPath returns the install tree for one version of one plugin.
func (p *Paths) InstallPath(name, versionToken string) string {
	return filepath.Join(p.InstallDir(name), versionToken)
}

// DownloadDir returns the root downloads/<name>/ directory.
func (p *Paths) DownloadDir(name string) string {
	return filepath.Join(p.root, "downloads", name)
}

// DownloadPath returns the download area for one version of one plugin.
func (p *Paths) DownloadPath(name, versionToken string) string {
	return filepath.Join(p.DownloadDir(name), versionToken)
}

// RegistryDir returns the clone directory for a named plugin registry.
func (p *Paths) RegistryDir(name string) string {
	return filepath.Join(p.root, "registries", name)
}

// RegistriesFile returns the path to registries.toml.
func (p *Paths) RegistriesFile() string {
	return filepath.Join(p.root, "registries.toml")
}

// BinDir returns the directory holding qwer's own symlinks (the legacy
// asdf alias).
func (p *Paths) BinDir() string {
	return filepath.Join(p.root, "bin")
}

// LegacyAsdfSymlink returns the path of the legacy-name compatibility
// symlink (spec.md §6).
func (p *Paths) LegacyAsdfSymlink() string {
	return filepath.Join(p.BinDir(), "asdf")
}

// PluginsRootDir returns the plugins/ directory itself, used to enumerate
// installed plugins.
func (p *Paths) PluginsRootDir() string {
	return filepath.Join(p.root, "plugins")
}

// InstallsRootDir returns the installs/ directory itself.
func (p *Paths) InstallsRootDir() string {
	return filepath.Join(p.root, "installs")
}
