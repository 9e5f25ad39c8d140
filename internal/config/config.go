// Package config reads the TOML settings file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"LocalCanvas/internal/gesture"
)

// Config is the whole settings file.
type Config struct {
	Board   BoardConfig   `toml:"board"`
	Storage StorageConfig `toml:"storage"`
	Mirror  MirrorConfig  `toml:"mirror"`
}

type BoardConfig struct {
	DragBounds     gesture.Bounds `toml:"drag_bounds"`
	ViewportWidth  float64        `toml:"viewport_width"`
	ViewportHeight float64        `toml:"viewport_height"`
}

// Storage backends.
const (
	BackendFile        = "file"
	BackendPreferences = "preferences"
)

type StorageConfig struct {
	Backend      string   `toml:"backend"`
	Path         string   `toml:"path"`
	SaveDebounce Duration `toml:"save_debounce"`
	Watch        bool     `toml:"watch"`
}

type MirrorConfig struct {
	Enabled   bool     `toml:"enabled"`
	Port      int      `toml:"port"`
	Advertise bool     `toml:"advertise"`
	Debounce  Duration `toml:"debounce"`
}

// Duration is a time.Duration written as "300ms" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// New returns the defaults used when no file is found.
func New() *Config {
	return &Config{
		Board: BoardConfig{
			DragBounds:     gesture.BoundsViewport,
			ViewportWidth:  1200,
			ViewportHeight: 800,
		},
		Storage: StorageConfig{
			Backend:      BackendFile,
			Path:         filepath.Join("~", ".config", "localcanvas", "board.json"),
			SaveDebounce: Duration{300 * time.Millisecond},
			Watch:        true,
		},
		Mirror: MirrorConfig{
			Port:      8888,
			Advertise: true,
			Debounce:  Duration{100 * time.Millisecond},
		},
	}
}

// Parse reads a TOML document over the defaults.
func Parse(r io.Reader) (*Config, error) {
	c := New()
	if _, err := toml.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendPreferences:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Board.ViewportWidth <= 0 || c.Board.ViewportHeight <= 0 {
		return fmt.Errorf("viewport size must be positive")
	}
	if c.Mirror.Port < 0 || c.Mirror.Port > 65535 {
		return fmt.Errorf("mirror port %d out of range", c.Mirror.Port)
	}
	return nil
}

// BoardPath is the storage path with a leading ~ expanded.
func (c *Config) BoardPath() string {
	p := c.Storage.Path
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}

func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("# error: %v\n", err)
	}
	return buf.String()
}
