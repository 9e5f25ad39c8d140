// Package viewport owns the board's zoom and pan state.
package viewport

import (
	"sync"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/state"
)

// ZoomStep is the factor applied by one wheel notch.
const ZoomStep = 1.1

// Viewport is the window onto world space. Every setter clamps zoom to
// [state.MinZoom, state.MaxZoom] and reports one change per call.
type Viewport struct {
	zoom float64
	pan  geom.Point // screen pixel offset of the world origin
	size geom.Size  // screen size of the visible area

	mu sync.RWMutex

	// OnChange is called after zoom or pan changed, outside the lock.
	OnChange func()
}

// New creates a viewport at zoom 1 with no pan.
func New(size geom.Size) *Viewport {
	return &Viewport{zoom: 1, size: size}
}

func (v *Viewport) Zoom() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom
}

func (v *Viewport) Pan() geom.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pan
}

func (v *Viewport) Size() geom.Size {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.size
}

// Transform returns zoom and pan read together.
func (v *Viewport) Transform() (float64, geom.Point) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom, v.pan
}

// SetSize records the screen size of the visible area. It does not move
// anything, so no change is reported.
func (v *Viewport) SetSize(s geom.Size) {
	v.mu.Lock()
	v.size = s
	v.mu.Unlock()
}

func (v *Viewport) SetZoom(z float64) {
	v.UpdateZoom(func(float64) float64 { return z })
}

// UpdateZoom replaces zoom with fn(current).
func (v *Viewport) UpdateZoom(fn func(float64) float64) {
	v.mu.Lock()
	old := v.zoom
	v.zoom = clamp(fn(old))
	changed := v.zoom != old
	v.mu.Unlock()

	if changed {
		v.notify()
	}
}

func (v *Viewport) SetPan(p geom.Point) {
	v.UpdatePan(func(geom.Point) geom.Point { return p })
}

// UpdatePan replaces the pan offset with fn(current).
func (v *Viewport) UpdatePan(fn func(geom.Point) geom.Point) {
	v.mu.Lock()
	old := v.pan
	v.pan = fn(old)
	changed := v.pan != old
	v.mu.Unlock()

	if changed {
		v.notify()
	}
}

// ZoomAt multiplies zoom by factor and moves the pan offset so that the world
// point under cursor stays under it. Both fields change in one step.
func (v *Viewport) ZoomAt(cursor geom.Point, factor float64) {
	v.mu.Lock()
	next := clamp(v.zoom * factor)
	if next == v.zoom {
		v.mu.Unlock()
		return
	}
	world := geom.ScreenToWorld(cursor, v.zoom, v.pan)
	v.zoom = next
	v.pan = cursor.Sub(world.Mul(next))
	v.mu.Unlock()

	v.notify()
}

// Wheel applies one zoom step at cursor. A negative deltaY (wheel up) zooms
// in, a positive one zooms out, zero does nothing.
func (v *Viewport) Wheel(cursor geom.Point, deltaY float64) {
	switch {
	case deltaY < 0:
		v.ZoomAt(cursor, ZoomStep)
	case deltaY > 0:
		v.ZoomAt(cursor, 1/ZoomStep)
	}
}

// Reset returns to zoom 1 and no pan.
func (v *Viewport) Reset() {
	v.Restore(1, geom.Point{})
}

// Restore installs a persisted zoom and pan as one change.
func (v *Viewport) Restore(zoom float64, pan geom.Point) {
	v.mu.Lock()
	changed := v.zoom != clamp(zoom) || v.pan != pan
	v.zoom = clamp(zoom)
	v.pan = pan
	v.mu.Unlock()

	if changed {
		v.notify()
	}
}

// VisibleWorld is the screen rectangle of the viewport in world units.
func (v *Viewport) VisibleWorld() geom.Rect {
	v.mu.RLock()
	defer v.mu.RUnlock()
	screen := geom.Rect{Width: v.size.Width, Height: v.size.Height}
	return geom.RectToWorld(screen, v.zoom, v.pan)
}

// Center is the world point at the middle of the viewport.
func (v *Viewport) Center() geom.Point {
	return v.VisibleWorld().Center()
}

func (v *Viewport) notify() {
	if v.OnChange != nil {
		v.OnChange()
	}
}

func clamp(z float64) float64 {
	if z != z {
		return 1
	}
	if z < state.MinZoom {
		return state.MinZoom
	}
	if z > state.MaxZoom {
		return state.MaxZoom
	}
	return z
}
