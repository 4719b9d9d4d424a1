// Package paths centralizes file and directory names used across the project.
// Data directory and asset file names are defined here as the single source
// of truth.
package paths

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	ConfigFile    = "config.toml"
	LogFile       = "xpcard.log"
	EnvFile       = ".env"
	FontsCacheDir = "fonts"
)

// Binary and data directory names.
const (
	BinaryName = "xpcard"
	DataDirRel = ".xpcard" // relative to $HOME
)

// Asset file names inside the asset directory.
const (
	DefaultAssetsDir = "img"
	BackgroundFile   = "xp_bg.png"
	ShadowFile       = "shadow.png"
	RolePattern      = "role_{tier}.png"
	tierPlaceholder  = "{tier}"
)

// RoleFile expands pattern for tier. For example,
// RoleFile("role_{tier}.png", 25) returns "role_25.png".
func RoleFile(pattern string, tier int) string {
	return strings.ReplaceAll(pattern, tierPlaceholder, strconv.Itoa(tier))
}

// RoleGlob turns pattern into a doublestar glob matching every tier.
// For example, RoleGlob("role_{tier}.png") returns "role_*.png".
func RoleGlob(pattern string) string {
	return strings.ReplaceAll(pattern, tierPlaceholder, "*")
}

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// Default returns the data directory under the user's home, or the working
// directory's .xpcard when no home is available.
func Default() DataDir {
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDir{Root: DataDirRel}
	}
	return DataDir{Root: filepath.Join(home, DataDirRel)}
}

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// Env returns the full path to the optional .env file.
func (d DataDir) Env() string { return filepath.Join(d.Root, EnvFile) }

// FontsCache returns the directory holding downloaded fonts.
func (d DataDir) FontsCache() string { return filepath.Join(d.Root, FontsCacheDir) }

// Assets resolves an asset directory setting. Relative directories are
// rooted at the data directory; absolute ones are returned unchanged.
func (d DataDir) Assets(dir string) string {
	if dir == "" {
		dir = DefaultAssetsDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.Root, dir)
}
