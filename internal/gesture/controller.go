package gesture

import (
	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/state"
)

// Elements is the part of the element store gestures write to.
type Elements interface {
	Get(id string) (state.Element, bool)
	Update(id string, p state.Patch) bool
	Select(id string)
	BringToFront(id string) bool
	Selected() string
}

// Camera is the part of the viewport gestures read and pan.
type Camera interface {
	Transform() (zoom float64, pan geom.Point)
	SetPan(p geom.Point)
	VisibleWorld() geom.Rect
}

// Kind names the active gesture.
type Kind int

const (
	Idle Kind = iota
	Panning
	Dragging
	Resizing
)

func (k Kind) String() string {
	switch k {
	case Panning:
		return "panning"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

type gesture interface {
	move(c *Controller, p geom.Point)
	end(c *Controller)
}

// Option configures a Controller.
type Option func(*Controller)

// WithBounds picks how drags are confined. The default is BoundsViewport.
func WithBounds(b Bounds) Option { return func(c *Controller) { c.bounds = b } }

// WithCapturer sets the pointer capture used while a gesture is active.
func WithCapturer(cp Capturer) Option { return func(c *Controller) { c.capturer = cp } }

// WithEditing tells the controller which element, if any, is in text edit
// mode. That element can be neither dragged nor resized.
func WithEditing(fn func(id string) bool) Option { return func(c *Controller) { c.editing = fn } }

// Controller dispatches pointer input to the pan, drag and resize engines
// and holds pointer capture while one of them runs. It is not safe for
// concurrent use; callers serialize input.
type Controller struct {
	elements Elements
	camera   Camera
	capturer Capturer
	bounds   Bounds
	editing  func(id string) bool

	active  gesture
	kind    Kind
	id      string
	release func()
}

// NewController wires the engines to an element store and a camera.
func NewController(el Elements, cam Camera, opts ...Option) *Controller {
	c := &Controller{
		elements: el,
		camera:   cam,
		capturer: nopCapturer{},
		editing:  func(string) bool { return false },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PointerDown starts the gesture that t calls for. It reports whether a
// gesture started; presses during an active gesture are ignored.
func (c *Controller) PointerDown(t Target, p Pointer) bool {
	if c.active != nil || !p.startsGesture() {
		return false
	}

	switch t.Kind {
	case TargetBackground:
		c.elements.Select("")
		_, pan := c.camera.Transform()
		c.begin(Panning, "", &panGesture{start: p.Pos, origin: pan})
		return true

	case TargetElementBody:
		if c.editing(t.ElementID) {
			return false
		}
		if _, ok := c.elements.Get(t.ElementID); !ok {
			return false
		}
		if c.elements.Selected() != t.ElementID {
			c.elements.Select(t.ElementID)
		} else {
			c.elements.BringToFront(t.ElementID)
		}
		el, _ := c.elements.Get(t.ElementID)
		c.begin(Dragging, el.ID, &dragGesture{
			id:     el.ID,
			start:  p.Pos,
			origin: el.Pos(),
			size:   geom.Size{Width: el.Width, Height: el.Height},
			pos:    el.Pos(),
		})
		return true

	case TargetResizeHandle:
		if c.editing(t.ElementID) || c.elements.Selected() != t.ElementID {
			return false
		}
		el, ok := c.elements.Get(t.ElementID)
		if !ok {
			return false
		}
		c.elements.BringToFront(el.ID)
		el, _ = c.elements.Get(el.ID)
		c.begin(Resizing, el.ID, &resizeGesture{
			id:     el.ID,
			handle: t.Handle,
			start:  p.Pos,
			origin: el.Geometry,
		})
		return true
	}
	return false
}

func (c *Controller) begin(k Kind, id string, g gesture) {
	c.active = g
	c.kind = k
	c.id = id
	c.release = c.capturer.Capture()
}

// PointerMove feeds a pointer position, in screen pixels, to the active
// gesture.
func (c *Controller) PointerMove(p geom.Point) {
	if c.active != nil {
		c.active.move(c, p)
	}
}

// PointerUp ends the active gesture, committing its last computed geometry,
// and returns what ended.
func (c *Controller) PointerUp() (Kind, string) {
	return c.finish()
}

// Cancel ends the gesture on touch cancel. Gestures are not abortable, so
// this commits exactly like PointerUp.
func (c *Controller) Cancel() (Kind, string) {
	return c.finish()
}

// Close ends any active gesture and gives back pointer capture.
func (c *Controller) Close() {
	c.finish()
}

func (c *Controller) finish() (Kind, string) {
	if c.active == nil {
		return Idle, ""
	}
	g, k, id, release := c.active, c.kind, c.id, c.release
	c.active, c.kind, c.id, c.release = nil, Idle, "", nil
	defer release()

	g.end(c)
	return k, id
}

// Active returns the running gesture and the element it works on.
func (c *Controller) Active() (Kind, string) {
	return c.kind, c.id
}

// DragPreview returns the live position of the element being dragged.
func (c *Controller) DragPreview() (string, geom.Point, bool) {
	d, ok := c.active.(*dragGesture)
	if !ok {
		return "", geom.Point{}, false
	}
	return d.id, d.pos, true
}
