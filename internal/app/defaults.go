package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths locates folio's config file and data directory on this machine.
//
// The data directory holds everything NewConfig places by default:
//
//	<BaseDir>/
//	  db/<host>.db     metadata database
//	  keys/            age key pair
//	  vault/           local vault (previews, encrypted database backups)
//	  log/folio.log
type Paths struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// DefaultPaths resolves Paths. FOLIO_CONFIG_PATH and FOLIO_HOME override
// everything; otherwise XDG_CONFIG_HOME and XDG_DATA_HOME are honored, and
// the fallbacks are ~/.config/folio.toml and ~/.local/share/folio.
func DefaultPaths() (Paths, error) {
	configPath, err := resolve("FOLIO_CONFIG_PATH", "XDG_CONFIG_HOME", "folio.toml", ".config")
	if err != nil {
		return Paths{}, err
	}
	baseDir, err := resolve("FOLIO_HOME", "XDG_DATA_HOME", "folio", ".local", "share")
	if err != nil {
		return Paths{}, err
	}
	return Paths{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// resolve returns $override, else $xdg/name, else ~/<homeDirs...>/name.
func resolve(override, xdg, name string, homeDirs ...string) (string, error) {
	if path := os.Getenv(override); path != "" {
		return path, nil
	}
	if dir := os.Getenv(xdg); dir != "" {
		return filepath.Join(dir, name), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append(append([]string{homeDir}, homeDirs...), name)...), nil
}
