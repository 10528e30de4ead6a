// Package paths decides where the lattice CLI keeps its two directories:
// the config directory holding config.yaml, and the data directory holding
// the document registry database. Resolution is pure precedence chaining;
// directories are created later, by whoever uses them.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirName is the dot-directory created under the working
// directory when no data dir is configured anywhere else.
const DefaultDataDirName = ".lattice-db"

// Environment overrides, checked after flags but before defaults.
const (
	EnvConfigDir = "LATTICE_CONFIG_DIR"
	EnvDataDir   = "LATTICE_DATA_DIR"
)

// platformDir holds the platform lookups so tests can substitute them.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user config directory for lattice:
// $XDG_CONFIG_HOME/lattice (or ~/.config/lattice) on Linux, and the
// os.UserConfigDir convention elsewhere (~/Library/Application Support on
// macOS, %APPDATA% on Windows).
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "lattice"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "lattice"), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lattice"), nil
}

// ResolveConfigDir picks the config directory: the --config-dir flag when
// set, then LATTICE_CONFIG_DIR, then DefaultConfigDir. Flag and env values
// are made absolute so later chdirs cannot move the config out from under
// an open command.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the registry's data directory: the --data-dir flag,
// then the data_dir key from config.yaml, then LATTICE_DATA_DIR, then
// .lattice-db under the current directory. The CWD fallback keeps a registry
// per working tree, so unrelated projects never share documents by accident.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
