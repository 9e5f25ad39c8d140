package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalCanvas/internal/gesture"
)

func TestParse(t *testing.T) {
	doc := `
[board]
drag_bounds = "none"
viewport_width = 1920

[storage]
backend = "preferences"
save_debounce = "1s"
watch = false

[mirror]
enabled = true
port = 9000
debounce = "250ms"
`
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, gesture.BoundsNone, c.Board.DragBounds)
	assert.Equal(t, 1920.0, c.Board.ViewportWidth)
	assert.Equal(t, 800.0, c.Board.ViewportHeight)
	assert.Equal(t, BackendPreferences, c.Storage.Backend)
	assert.Equal(t, time.Second, c.Storage.SaveDebounce.Duration)
	assert.False(t, c.Storage.Watch)
	assert.True(t, c.Mirror.Enabled)
	assert.Equal(t, 9000, c.Mirror.Port)
	assert.True(t, c.Mirror.Advertise)
	assert.Equal(t, 250*time.Millisecond, c.Mirror.Debounce.Duration)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":   `[board`,
		"bounds":   "[board]\ndrag_bounds = \"window\"",
		"backend":  "[storage]\nbackend = \"s3\"",
		"duration": "[storage]\nsave_debounce = \"soon\"",
		"port":     "[mirror]\nport = 70000",
		"viewport": "[board]\nviewport_width = 0",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestStringRoundTrips(t *testing.T) {
	c := New()
	c.Mirror.Enabled = true
	again, err := Parse(strings.NewReader(c.String()))
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestBoardPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	c := New()
	assert.Equal(t, filepath.Join(home, ".config", "localcanvas", "board.json"), c.BoardPath())

	c.Storage.Path = "/tmp/board.json"
	assert.Equal(t, "/tmp/board.json", c.BoardPath())
}

func TestLoaderLookupOrder(t *testing.T) {
	home := t.TempDir()
	l := &Loader{Home: home}

	assert.Empty(t, l.Path())
	c, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, New(), c)

	xdg := filepath.Join(home, ".config", "localcanvas", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(xdg), 0o755))
	require.NoError(t, os.WriteFile(xdg, []byte("[mirror]\nport = 1234\n"), 0o644))
	assert.Equal(t, xdg, l.Path())

	override := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(override, []byte("[mirror]\nport = 4321\n"), 0o644))
	l.OverridePath = override
	assert.Equal(t, override, l.Path())

	c, err = l.Load()
	require.NoError(t, err)
	assert.Equal(t, 4321, c.Mirror.Port)
}

func TestLoaderMissingOverride(t *testing.T) {
	home := t.TempDir()
	xdg := filepath.Join(home, ".config", "localcanvas", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(xdg), 0o755))
	require.NoError(t, os.WriteFile(xdg, []byte("[mirror]\nport = 1234\n"), 0o644))

	missing := filepath.Join(home, "nope.toml")
	l := &Loader{Home: home, OverridePath: missing}
	assert.Equal(t, missing, l.Path())

	_, err := l.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "nope.toml")
}
