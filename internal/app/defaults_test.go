package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	homeDir, _ := os.UserHomeDir()

	tests := []struct {
		name string
		env  map[string]string
		want Paths
	}{
		{
			name: "folio overrides win",
			env: map[string]string{
				"FOLIO_CONFIG_PATH": "/custom/config.toml",
				"FOLIO_HOME":        "/custom/folio",
				"XDG_CONFIG_HOME":   "/xdg/config",
				"XDG_DATA_HOME":     "/xdg/data",
			},
			want: Paths{ConfigPath: "/custom/config.toml", BaseDir: "/custom/folio", LogDir: "/custom/folio/log"},
		},
		{
			name: "xdg directories",
			env:  map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			want: Paths{ConfigPath: "/xdg/config/folio.toml", BaseDir: "/xdg/data/folio", LogDir: "/xdg/data/folio/log"},
		},
		{
			name: "home directory fallback",
			want: Paths{
				ConfigPath: filepath.Join(homeDir, ".config", "folio.toml"),
				BaseDir:    filepath.Join(homeDir, ".local", "share", "folio"),
				LogDir:     filepath.Join(homeDir, ".local", "share", "folio", "log"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"FOLIO_CONFIG_PATH", "FOLIO_HOME", "XDG_CONFIG_HOME", "XDG_DATA_HOME"} {
				t.Setenv(key, tt.env[key])
			}

			got, err := DefaultPaths()
			if err != nil {
				t.Fatalf("DefaultPaths() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DefaultPaths() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
