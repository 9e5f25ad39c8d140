package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalCanvas/internal/board"
	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/state"
)

func sampleSnapshot() *state.Snapshot {
	return &state.Snapshot{
		Elements: []state.Element{
			{
				ID: "a", ZIndex: 1,
				Geometry: state.Geometry{X: 10, Y: 20, Width: 150, Height: 40},
				Payload:  state.Text{Body: "hello", FontSize: 20, FontFamily: state.DefaultFontFamily, Color: "#000"},
				PlacedAt: 1700000000000,
			},
			{
				ID: "b", ZIndex: 2,
				Geometry: state.Geometry{X: -5, Y: 0, Width: 60, Height: 60},
				Payload:  state.Sticker{Glyph: "🌟", Size: 48},
			},
		},
		Zoom:       1.25,
		PanOffset:  geom.Pt(30, -40),
		SelectedID: "b",
	}
}

func TestStoresRoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := map[string]Store{
		"memory": &MemoryStore{},
		"file":   NewFileStore(filepath.Join(t.TempDir(), "nested", "board.json")),
		"prefs":  NewPrefsStore(test.NewApp().Preferences()),
	}
	for name, st := range stores {
		t.Run(name, func(t *testing.T) {
			s, err := st.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, s)

			require.NoError(t, st.Save(ctx, sampleSnapshot()))
			s, err = st.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleSnapshot(), s)
		})
	}
}

func TestFileStoreMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"elements": [{"id": 1}]}`), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, state.ErrMalformedSnapshot)
}

func TestPrefsStoreMalformedAndClear(t *testing.T) {
	prefs := test.NewApp().Preferences()
	st := NewPrefsStore(prefs)

	prefs.SetString(PrefsKey, "not json")
	_, err := st.Load(context.Background())
	assert.Error(t, err)

	st.Clear()
	s, err := st.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestFileStoreWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "board.json")
	st := NewFileStore(path)
	require.NoError(t, st.Save(ctx, sampleSnapshot()))

	var calls atomic.Int32
	require.NoError(t, st.Watch(ctx, func() { calls.Add(1) }))

	// Our own writes are not reported.
	require.NoError(t, st.Save(ctx, sampleSnapshot()))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, calls.Load())

	other := sampleSnapshot()
	other.Zoom = 2
	data, err := other.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
}

type fakeSource struct {
	mu   sync.Mutex
	subs []func(state.Change)
}

func (f *fakeSource) Snapshot() *state.Snapshot { return sampleSnapshot() }

func (f *fakeSource) Subscribe(fn func(state.Change)) func() {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.subs = nil
		f.mu.Unlock()
	}
}

func (f *fakeSource) emit(c state.Change) {
	f.mu.Lock()
	subs := append([]func(state.Change){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}

type countingSaver struct {
	saves atomic.Int32
}

func (c *countingSaver) Save(context.Context, *state.Snapshot) error {
	c.saves.Add(1)
	return nil
}

func TestAutoSaveDebounces(t *testing.T) {
	src := &fakeSource{}
	dst := &countingSaver{}
	stop := AutoSave(context.Background(), src, dst, 50*time.Millisecond)
	defer stop()

	for i := 0; i < 5; i++ {
		src.emit(state.Change{Kind: state.ElementUpdated, ID: "a"})
	}
	assert.Eventually(t, func() bool { return dst.saves.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), dst.saves.Load())
}

func TestAutoSaveSkipsPreviews(t *testing.T) {
	src := &fakeSource{}
	dst := &countingSaver{}
	stop := AutoSave(context.Background(), src, dst, 10*time.Millisecond)

	src.emit(state.Change{Kind: state.PreviewMoved, ID: "a"})
	time.Sleep(100 * time.Millisecond)
	stop()
	assert.Zero(t, dst.saves.Load())
}

func TestAutoSaveFlushesOnStop(t *testing.T) {
	src := &fakeSource{}
	dst := &countingSaver{}
	stop := AutoSave(context.Background(), src, dst, time.Hour)

	src.emit(state.Change{Kind: state.ViewportChanged})
	stop()
	stop()
	assert.Equal(t, int32(1), dst.saves.Load())

	// Unsubscribed: nothing more is written.
	src.emit(state.Change{Kind: state.ElementAdded, ID: "x"})
	assert.Equal(t, int32(1), dst.saves.Load())
}

func TestAutoSaveWithBoard(t *testing.T) {
	ctx := context.Background()
	b := board.New()
	mem := &MemoryStore{}
	stop := AutoSave(ctx, b, mem, 10*time.Millisecond)

	id := b.AddElement(state.TypeSticker, state.Patch{})
	stop()

	s, err := mem.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Len(t, s.Elements, 2)
	assert.Equal(t, id, s.SelectedID)

	// A fresh board restores what was saved.
	fresh := board.New()
	require.NoError(t, fresh.Load(ctx, mem))
	_, ok := fresh.Element(id)
	assert.True(t, ok)
}

func TestWatchReloadKeepsBoardOnPartialWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "board.json")
	st := NewFileStore(path)
	b := board.New()
	for i := 0; i < 4; i++ {
		b.AddElement(state.TypeSticker, state.Patch{})
	}
	require.NoError(t, st.Save(ctx, b.Snapshot()))

	stop := AutoSave(ctx, b, st, 10*time.Millisecond)
	defer stop()

	var reloads atomic.Int32
	require.NoError(t, st.Watch(ctx, func() {
		b.Reload(ctx, st)
		reloads.Add(1)
	}))

	partial := []byte(`{"elements": [`)
	require.NoError(t, os.WriteFile(path, partial, 0o644))

	assert.Eventually(t, func() bool { return reloads.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, b.Elements(), 5)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, partial, data)

	// The finished write is picked up.
	full := sampleSnapshot()
	data, err = full.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	assert.Eventually(t, func() bool { return len(b.Elements()) == 2 }, 2*time.Second, 20*time.Millisecond)
}
