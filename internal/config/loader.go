package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the settings file looked up in the working directory in dev
// builds.
const FileName = "localcanvas.toml"

// Loader finds and reads the settings file.
type Loader struct {
	Dev          bool   // also look in the working directory
	OverridePath string // from -config
	Home         string // defaults to the user's home directory
}

func NewLoader(dev bool, overridePath string) *Loader {
	return &Loader{Dev: dev, OverridePath: overridePath}
}

// Load reads the first settings file found, or returns the defaults. An
// override path that cannot be opened is an error.
func (l *Loader) Load() (*Config, error) {
	path := l.Path()
	if path == "" {
		return New(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Path returns the settings file to use, or "" when there is none. An
// explicit override is returned whether or not it exists.
func (l *Loader) Path() string {
	// 1. Explicit path
	if l.OverridePath != "" {
		return l.OverridePath
	}

	// 2. Working directory (dev)
	if l.Dev {
		wd, _ := os.Getwd()
		local := filepath.Join(wd, FileName)
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	// 3. XDG config dir
	home := l.Home
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	xdg := filepath.Join(home, ".config", "localcanvas", "config.toml")
	if _, err := os.Stat(xdg); err == nil {
		return xdg
	}
	return ""
}
