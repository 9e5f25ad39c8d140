package gesture

import (
	"fmt"
	"strings"

	"LocalCanvas/internal/geom"
)

// Device is the kind of input device behind a pointer event.
type Device int

const (
	Mouse Device = iota
	Touch
)

// Button is a mouse button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonTertiary
)

// Pointer is a pointer-down event in screen pixels.
type Pointer struct {
	Pos     geom.Point
	Device  Device
	Button  Button
	Touches int // fingers down, touch only
}

// MouseAt is a primary-button press at p.
func MouseAt(p geom.Point) Pointer {
	return Pointer{Pos: p, Device: Mouse, Button: ButtonPrimary}
}

// TouchAt is a single-finger touch at p.
func TouchAt(p geom.Point) Pointer {
	return Pointer{Pos: p, Device: Touch, Touches: 1}
}

// startsGesture reports whether the press may begin a gesture: the primary
// mouse button or exactly one finger.
func (p Pointer) startsGesture() bool {
	if p.Device == Touch {
		return p.Touches == 1
	}
	return p.Button == ButtonPrimary
}

// Capturer grants global pointer capture for the lifetime of one gesture.
// Capture returns the function that gives it back.
type Capturer interface {
	Capture() (release func())
}

// CaptureFunc adapts a function to Capturer.
type CaptureFunc func() (release func())

func (f CaptureFunc) Capture() func() { return f() }

type nopCapturer struct{}

func (nopCapturer) Capture() func() { return func() {} }

// Bounds selects how a dragged element is confined.
type Bounds int

const (
	// BoundsViewport keeps the dragged element inside the visible world rect.
	BoundsViewport Bounds = iota
	// BoundsNone lets elements be dragged anywhere.
	BoundsNone
)

func (b Bounds) String() string {
	if b == BoundsNone {
		return "none"
	}
	return "viewport"
}

// ParseBounds reads "viewport" or "none".
func ParseBounds(s string) (Bounds, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "viewport":
		return BoundsViewport, nil
	case "none":
		return BoundsNone, nil
	}
	return BoundsViewport, fmt.Errorf("unknown drag bounds %q", s)
}

func (b Bounds) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText lets Bounds be read straight from config files.
func (b *Bounds) UnmarshalText(text []byte) error {
	v, err := ParseBounds(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
