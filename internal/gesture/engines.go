package gesture

import (
	"math"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/state"
)

// worldDelta converts a screen pointer delta into world units.
func worldDelta(start, current geom.Point, zoom float64) geom.Point {
	return current.Sub(start).Div(zoom)
}

// panGesture moves the world origin with the pointer in raw screen pixels.
type panGesture struct {
	start  geom.Point
	origin geom.Point
}

func (g *panGesture) move(c *Controller, p geom.Point) {
	c.camera.SetPan(g.origin.Add(p.Sub(g.start)))
}

func (g *panGesture) end(*Controller) {}

// dragGesture translates one element. Moves only update the preview; the
// store sees the position once, on release.
type dragGesture struct {
	id     string
	start  geom.Point
	origin geom.Point
	size   geom.Size
	pos    geom.Point
}

func (g *dragGesture) move(c *Controller, p geom.Point) {
	zoom, _ := c.camera.Transform()
	pos := g.origin.Add(worldDelta(g.start, p, zoom))
	if c.bounds == BoundsViewport {
		pos = ClampInto(pos, g.size, c.camera.VisibleWorld())
	}
	g.pos = pos
}

func (g *dragGesture) end(c *Controller) {
	c.elements.Update(g.id, state.Move(g.pos.X, g.pos.Y))
}

// ClampInto keeps a box of size sz at pos inside r. When the box is larger
// than r the top-left edge wins.
func ClampInto(pos geom.Point, sz geom.Size, r geom.Rect) geom.Point {
	pos.X = math.Max(math.Min(pos.X, r.X+r.Width-sz.Width), r.X)
	pos.Y = math.Max(math.Min(pos.Y, r.Y+r.Height-sz.Height), r.Y)
	return pos
}

// resizeGesture reshapes one element from a handle, writing through on every
// move.
type resizeGesture struct {
	id     string
	handle Handle
	start  geom.Point
	origin state.Geometry
}

func (g *resizeGesture) move(c *Controller, p geom.Point) {
	zoom, _ := c.camera.Transform()
	next := ResizeGeometry(g.origin, g.handle, worldDelta(g.start, p, zoom))
	c.elements.Update(g.id, state.Bounds(next))
}

func (g *resizeGesture) end(*Controller) {}

// ResizeGeometry applies a world delta to origin as seen from handle h. The
// edge opposite the handle stays put, and neither side drops below
// state.MinDimension.
func ResizeGeometry(origin state.Geometry, h Handle, d geom.Point) state.Geometry {
	g := origin

	switch {
	case h.right():
		g.Width = origin.Width + d.X
		if g.Width < state.MinDimension {
			g.Width = state.MinDimension
		}
	case h.left():
		g.Width = origin.Width - d.X
		g.X = origin.X + d.X
		if g.Width < state.MinDimension {
			g.Width = state.MinDimension
			g.X = origin.X + origin.Width - state.MinDimension
		}
	}

	switch {
	case h.bottom():
		g.Height = origin.Height + d.Y
		if g.Height < state.MinDimension {
			g.Height = state.MinDimension
		}
	case h.top():
		g.Height = origin.Height - d.Y
		g.Y = origin.Y + d.Y
		if g.Height < state.MinDimension {
			g.Height = state.MinDimension
			g.Y = origin.Y + origin.Height - state.MinDimension
		}
	}

	return g
}
