package board

import (
	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/gesture"
	"LocalCanvas/internal/state"
)

// HandleHitRadius is how close, in screen pixels, a press must land to a
// resize handle to grab it.
const HandleHitRadius = 6.0

// PointerDown classifies the pressed node and starts the matching gesture.
// A press anywhere but the element being edited commits the edit first.
func (b *Board) PointerDown(n gesture.Node, p gesture.Pointer) bool {
	var started bool
	b.do(func() {
		t := gesture.Classify(n)
		if b.editing != "" && t.ElementID != b.editing {
			b.commitTextEdit()
		}
		started = b.ctl.PointerDown(t, p)
	})
	return started
}

// PointerMove feeds the active gesture. Drag moves are published as
// PreviewMoved since they are not committed until release.
func (b *Board) PointerMove(p geom.Point) {
	b.do(func() {
		b.ctl.PointerMove(p)
		if kind, id := b.ctl.Active(); kind == gesture.Dragging {
			b.pending = append(b.pending, state.Change{Kind: state.PreviewMoved, ID: id})
		}
	})
}

// PointerUp ends the active gesture.
func (b *Board) PointerUp() {
	b.do(func() {
		b.afterGesture(b.ctl.PointerUp())
	})
}

// PointerCancel ends the active gesture on touch cancel, committing it like
// a release.
func (b *Board) PointerCancel() {
	b.do(func() {
		b.afterGesture(b.ctl.Cancel())
	})
}

func (b *Board) afterGesture(kind gesture.Kind, id string) {
	if kind == gesture.Resizing {
		b.fitText(id)
	}
}

// Gesture reports the active gesture and the element it works on.
func (b *Board) Gesture() (gesture.Kind, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctl.Active()
}

// Wheel zooms one step at cursor: negative deltaY zooms in.
func (b *Board) Wheel(cursor geom.Point, deltaY float64) {
	b.do(func() { b.view.Wheel(cursor, deltaY) })
}

// NodeAt hit-tests a screen point: resize handles of the selected element
// first, then element bodies from the top down, then the background.
func (b *Board) NodeAt(p geom.Point) gesture.Node {
	b.mu.Lock()
	defer b.mu.Unlock()

	zoom, pan := b.view.Transform()
	els := b.store.Elements()

	if sel := b.store.Selected(); sel != "" && sel != b.editing {
		for _, el := range els {
			if el.ID != sel {
				continue
			}
			r := geom.RectToScreen(b.livePos(el).Rect(), zoom, pan)
			for _, h := range gesture.Handles {
				a := h.Anchor(r)
				hit := geom.Rect{X: a.X, Y: a.Y}.Expand(HandleHitRadius)
				if hit.Contains(p) {
					return gesture.Node{Role: gesture.RoleHandle, ElementID: el.ID, Handle: h}
				}
			}
		}
	}

	for i := len(els) - 1; i >= 0; i-- {
		el := b.livePos(els[i])
		if geom.RectToScreen(el.Rect(), zoom, pan).Contains(p) {
			if el.ID == b.editing {
				return gesture.Node{Role: gesture.RoleInteractive, ElementID: el.ID}
			}
			return gesture.Node{Role: gesture.RoleElement, ElementID: el.ID}
		}
	}
	return gesture.Node{Role: gesture.RoleBackground}
}

// livePos applies the drag preview to el when it is being dragged.
func (b *Board) livePos(el state.Element) state.Element {
	if id, pos, ok := b.ctl.DragPreview(); ok && id == el.ID {
		el.X, el.Y = pos.X, pos.Y
	}
	return el
}
