// Package board is the editing surface the presentation layer talks to. It
// owns the element store, the viewport and the gesture controller, and
// tells subscribers about every change.
package board

import (
	"context"
	"errors"
	"log"
	"sync"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/gesture"
	"LocalCanvas/internal/state"
	"LocalCanvas/internal/viewport"
)

// TextMeasurer reports the height text needs when wrapped at width.
type TextMeasurer interface {
	Height(text string, width, fontSize float64) (float64, error)
}

// Loader fetches a persisted snapshot. A nil snapshot with a nil error means
// nothing was stored yet.
type Loader interface {
	Load(ctx context.Context) (*state.Snapshot, error)
}

// Option configures a Board.
type Option func(*options)

type options struct {
	size      geom.Size
	bounds    gesture.Bounds
	measurer  TextMeasurer
	capturer  gesture.Capturer
	storeOpts []state.Option
}

// WithViewportSize sets the initial screen size of the viewport.
func WithViewportSize(s geom.Size) Option { return func(o *options) { o.size = s } }

// WithDragBounds sets how dragged elements are confined.
func WithDragBounds(b gesture.Bounds) Option { return func(o *options) { o.bounds = b } }

// WithMeasurer enables text auto-grow.
func WithMeasurer(m TextMeasurer) Option { return func(o *options) { o.measurer = m } }

// WithCapturer sets the pointer capture held during gestures.
func WithCapturer(c gesture.Capturer) Option { return func(o *options) { o.capturer = c } }

// WithStoreOptions passes options through to the element store.
func WithStoreOptions(opts ...state.Option) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, opts...) }
}

// Board serializes all edits behind one lock and publishes the resulting
// changes to subscribers once the lock is released.
type Board struct {
	mu       sync.Mutex
	store    *state.Store
	view     *viewport.Viewport
	ctl      *gesture.Controller
	measurer TextMeasurer
	editing  string
	pending  []state.Change
	closed   bool

	subMu   sync.RWMutex
	subs    map[int]func(state.Change)
	nextSub int
}

// New creates a board holding the default single-element layout.
func New(opts ...Option) *Board {
	o := options{size: geom.Size{Width: 1200, Height: 800}}
	for _, fn := range opts {
		fn(&o)
	}

	b := &Board{
		store:    state.NewStore(o.storeOpts...),
		view:     viewport.New(o.size),
		measurer: o.measurer,
		subs:     make(map[int]func(state.Change)),
	}
	ctlOpts := []gesture.Option{
		gesture.WithBounds(o.bounds),
		gesture.WithEditing(func(id string) bool { return id != "" && id == b.editing }),
	}
	if o.capturer != nil {
		ctlOpts = append(ctlOpts, gesture.WithCapturer(o.capturer))
	}
	b.ctl = gesture.NewController(b.store, b.view, ctlOpts...)

	// Both callbacks only fire while b.mu is held.
	b.store.OnChange = func(c state.Change) { b.pending = append(b.pending, c) }
	b.view.OnChange = func() { b.pending = append(b.pending, state.Change{Kind: state.ViewportChanged}) }

	b.store.Clear()
	b.pending = nil
	return b
}

// do runs fn under the board lock and then publishes what it changed.
func (b *Board) do(fn func()) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	fn()
	changes := b.pending
	b.pending = nil
	b.mu.Unlock()

	b.publish(changes)
}

// Subscribe registers fn for every change. Calls happen on the goroutine
// that made the edit, after the board is unlocked. The returned func
// unsubscribes.
func (b *Board) Subscribe(fn func(state.Change)) (cancel func()) {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, id)
			b.subMu.Unlock()
		})
	}
}

func (b *Board) publish(changes []state.Change) {
	if len(changes) == 0 {
		return
	}
	b.subMu.RLock()
	subs := make([]func(state.Change), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.subMu.RUnlock()

	for _, c := range changes {
		for _, fn := range subs {
			fn(c)
		}
	}
}

// AddElement places a new element of type t in the middle of the visible
// area, merging p over the type defaults. It returns the new id, or "" for
// an unknown type.
func (b *Board) AddElement(t state.Type, p state.Patch) string {
	var id string
	b.do(func() {
		id = b.store.Add(t, b.view.Center(), p)
		b.fitText(id)
	})
	return id
}

// UpdateElement merges p into the element. Text is re-fitted when the
// patch touches its layout.
func (b *Board) UpdateElement(id string, p state.Patch) {
	b.do(func() {
		if b.store.Update(id, p) && p.AffectsTextLayout() {
			b.fitText(id)
		}
	})
}

func (b *Board) DeleteElement(id string) {
	b.do(func() {
		if b.editing == id {
			b.editing = ""
		}
		b.store.Delete(id)
	})
}

// SelectElement selects id and brings it to front. "" clears the selection.
func (b *Board) SelectElement(id string) {
	b.do(func() { b.store.Select(id) })
}

func (b *Board) BringToFront(id string) {
	b.do(func() { b.store.BringToFront(id) })
}

func (b *Board) SetZoom(z float64) {
	b.do(func() { b.view.SetZoom(z) })
}

func (b *Board) UpdateZoom(fn func(float64) float64) {
	b.do(func() { b.view.UpdateZoom(fn) })
}

func (b *Board) SetPanOffset(p geom.Point) {
	b.do(func() { b.view.SetPan(p) })
}

func (b *Board) UpdatePanOffset(fn func(geom.Point) geom.Point) {
	b.do(func() { b.view.UpdatePan(fn) })
}

// ClearBoard ends any gesture or edit and resets to the default board.
// Zoom and pan are kept.
func (b *Board) ClearBoard() {
	b.do(func() {
		b.ctl.Close()
		b.editing = ""
		b.store.Clear()
	})
}

// SetViewportSize records the on-screen size of the board.
func (b *Board) SetViewportSize(s geom.Size) {
	b.view.SetSize(s)
}

func (b *Board) ViewportSize() geom.Size {
	return b.view.Size()
}

// Elements returns the committed elements in ascending zIndex order.
func (b *Board) Elements() []state.Element {
	return b.store.Elements()
}

// RenderElements is Elements with the live position of a dragged element
// applied.
func (b *Board) RenderElements() []state.Element {
	b.mu.Lock()
	defer b.mu.Unlock()

	els := b.store.Elements()
	if id, pos, ok := b.ctl.DragPreview(); ok {
		for i := range els {
			if els[i].ID == id {
				els[i].X, els[i].Y = pos.X, pos.Y
			}
		}
	}
	return els
}

func (b *Board) Element(id string) (state.Element, bool) {
	return b.store.Get(id)
}

func (b *Board) SelectedID() string {
	return b.store.Selected()
}

func (b *Board) Zoom() float64 {
	return b.view.Zoom()
}

func (b *Board) PanOffset() geom.Point {
	return b.view.Pan()
}

// ConsumeNewlyAdded clears the entry-animation flag after the first render
// and reports whether it was set.
func (b *Board) ConsumeNewlyAdded(id string) bool {
	return b.store.ConsumeNewlyAdded(id)
}

// Snapshot captures the board for persistence.
func (b *Board) Snapshot() *state.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	zoom, pan := b.view.Transform()
	return &state.Snapshot{
		Elements:   b.store.Elements(),
		Zoom:       zoom,
		PanOffset:  pan,
		SelectedID: b.store.Selected(),
	}
}

// ErrNothingStored is returned by Reload when the loader holds no board.
var ErrNothingStored = errors.New("no saved board")

// Restore replaces the whole board with a normalized copy of s. A snapshot
// that fails validation is rejected and the board is left untouched.
func (b *Board) Restore(s *state.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	n := s.Normalize()
	b.do(func() {
		b.ctl.Close()
		b.editing = ""
		b.store.Replace(n.Elements, n.SelectedID)
		b.view.Restore(n.Zoom, n.PanOffset)
		for _, el := range n.Elements {
			if el.Type() == state.TypeText {
				b.fitText(el.ID)
			}
		}
	})
	return nil
}

// Load restores the board from l at startup. When nothing is stored, or the
// stored board cannot be read or is invalid, the default board is installed
// instead; the error is still returned so the caller can report it.
func (b *Board) Load(ctx context.Context, l Loader) error {
	s, err := l.Load(ctx)
	if err == nil && s == nil {
		log.Printf("[BOARD] No saved board, starting fresh")
		b.reset()
		return nil
	}
	if err == nil {
		err = b.Restore(s)
	}
	if err != nil {
		log.Printf("[BOARD] Could not load saved board, starting fresh: %v", err)
		b.reset()
		return err
	}
	log.Printf("[BOARD] Loaded %d elements", len(s.Elements))
	return nil
}

// Reload replaces the board with the one in l. Unlike Load it never falls
// back to the default board: on any failure the current board is kept.
func (b *Board) Reload(ctx context.Context, l Loader) error {
	s, err := l.Load(ctx)
	if err == nil && s == nil {
		err = ErrNothingStored
	}
	if err == nil {
		err = b.Restore(s)
	}
	if err != nil {
		log.Printf("[BOARD] Reload failed, keeping current board: %v", err)
		return err
	}
	log.Printf("[BOARD] Reloaded %d elements", len(s.Elements))
	return nil
}

func (b *Board) reset() {
	if err := b.Restore(state.DefaultSnapshot()); err != nil {
		log.Printf("[BOARD] Default board rejected: %v", err)
	}
}

// Close ends any active gesture, releasing pointer capture, and makes
// further edits no-ops.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ctl.Close()
	b.editing = ""
	b.pending = nil
	b.closed = true
}
