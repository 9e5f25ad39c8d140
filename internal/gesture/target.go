// Package gesture turns pointer input into pan, drag and resize gestures.
// At most one gesture is active at a time.
package gesture

import (
	"LocalCanvas/internal/geom"
)

// Handle names one of the eight resize handles by compass position.
type Handle string

const (
	TopLeft      Handle = "tl"
	TopMiddle    Handle = "tm"
	TopRight     Handle = "tr"
	MiddleLeft   Handle = "ml"
	MiddleRight  Handle = "mr"
	BottomLeft   Handle = "bl"
	BottomMiddle Handle = "bm"
	BottomRight  Handle = "br"
)

// Handles lists every handle in drawing order.
var Handles = []Handle{TopLeft, TopMiddle, TopRight, MiddleLeft, MiddleRight, BottomLeft, BottomMiddle, BottomRight}

func (h Handle) Valid() bool {
	switch h {
	case TopLeft, TopMiddle, TopRight, MiddleLeft, MiddleRight, BottomLeft, BottomMiddle, BottomRight:
		return true
	}
	return false
}

func (h Handle) left() bool   { return h == TopLeft || h == MiddleLeft || h == BottomLeft }
func (h Handle) right() bool  { return h == TopRight || h == MiddleRight || h == BottomRight }
func (h Handle) top() bool    { return h == TopLeft || h == TopMiddle || h == TopRight }
func (h Handle) bottom() bool { return h == BottomLeft || h == BottomMiddle || h == BottomRight }

// Anchor returns where the handle sits on r.
func (h Handle) Anchor(r geom.Rect) geom.Point {
	p := r.Center()
	switch {
	case h.left():
		p.X = r.X
	case h.right():
		p.X = r.X + r.Width
	}
	switch {
	case h.top():
		p.Y = r.Y
	case h.bottom():
		p.Y = r.Y + r.Height
	}
	return p
}

// Role is what a node in the presentation tree is.
type Role int

const (
	// RoleOther is anything not listed below, such as decoration.
	RoleOther Role = iota
	// RoleBackground is the viewport container itself.
	RoleBackground
	// RoleWorld is the transformed container that holds the elements.
	RoleWorld
	// RoleElement is an element body.
	RoleElement
	// RoleHandle is one of the resize handles of an element.
	RoleHandle
	// RoleInteractive is an input, text area, button or link inside an element.
	RoleInteractive
)

// Node is the pointer-down target as reported by the host.
type Node struct {
	Role      Role
	ElementID string
	Handle    Handle
	// DragHandle marks an interactive child that may still start a drag.
	DragHandle bool
}

// TargetKind tags a Target.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetBackground
	TargetElementBody
	TargetResizeHandle
	TargetInteractiveChild
)

func (k TargetKind) String() string {
	switch k {
	case TargetBackground:
		return "background"
	case TargetElementBody:
		return "element"
	case TargetResizeHandle:
		return "handle"
	case TargetInteractiveChild:
		return "interactive"
	default:
		return "none"
	}
}

// Target is the classified pointer-down target. ElementID is set for element
// bodies, handles and interactive children; Handle only for handles.
type Target struct {
	Kind      TargetKind
	ElementID string
	Handle    Handle
}

func Background() Target { return Target{Kind: TargetBackground} }

func ElementBody(id string) Target { return Target{Kind: TargetElementBody, ElementID: id} }

func ResizeHandle(id string, h Handle) Target {
	return Target{Kind: TargetResizeHandle, ElementID: id, Handle: h}
}

func InteractiveChild(id string) Target { return Target{Kind: TargetInteractiveChild, ElementID: id} }

// Classify maps a pointer-down node to a Target. Only the two designated
// containers count as background; nodes without an element id never start
// element gestures.
func Classify(n Node) Target {
	switch n.Role {
	case RoleBackground, RoleWorld:
		return Background()
	case RoleElement:
		if n.ElementID == "" {
			return Target{}
		}
		return ElementBody(n.ElementID)
	case RoleHandle:
		if n.ElementID == "" || !n.Handle.Valid() {
			return Target{}
		}
		return ResizeHandle(n.ElementID, n.Handle)
	case RoleInteractive:
		if n.ElementID == "" {
			return Target{}
		}
		if n.DragHandle {
			return ElementBody(n.ElementID)
		}
		return InteractiveChild(n.ElementID)
	}
	return Target{}
}
