package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.solechat.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".solechat")
}

// Dir returns the profile-specific directory.
func Dir(profile string) string {
	return filepath.Join(BaseDir(), "profiles", profile)
}

// CredsDBPath returns the credential store path for a profile.
func CredsDBPath(profile string) string {
	return filepath.Join(Dir(profile), "creds.db")
}

// LogDir returns the log directory for a profile.
func LogDir(profile string) string {
	return filepath.Join(Dir(profile), "logs")
}

// LogPath returns the client log file path.
func LogPath(profile string) string {
	return filepath.Join(LogDir(profile), "solechat.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(profile string) error {
	for _, d := range []string{Dir(profile), LogDir(profile)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
