package state

import (
	"LocalCanvas/internal/geom"
)

// Type names the kind of content an element carries.
type Type string

const (
	TypeText    Type = "text"
	TypeImage   Type = "image"
	TypeSticker Type = "sticker"
)

// Valid reports whether t is one of the known element types.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeSticker:
		return true
	}
	return false
}

// MinDimension is the smallest width or height an element may have, in world units.
const MinDimension = 20.0

// Style fallbacks applied to elements that arrive without them.
const (
	DefaultFontFamily  = "Comic Sans MS, cursive, sans-serif"
	DefaultFontSize    = 16.0
	DefaultTextColor   = "hsl(var(--foreground))"
	DefaultStickerSize = 48.0
)

// Geometry is the world-space placement shared by every element type.
type Geometry struct {
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64 // degrees, render only
}

// Rect returns the element footprint in world units.
func (g Geometry) Rect() geom.Rect {
	return geom.Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

// Pos returns the top-left corner.
func (g Geometry) Pos() geom.Point {
	return geom.Point{X: g.X, Y: g.Y}
}

func (g Geometry) clamped() Geometry {
	if g.Width < MinDimension {
		g.Width = MinDimension
	}
	if g.Height < MinDimension {
		g.Height = MinDimension
	}
	return g
}

// Payload is the type-specific part of an element. It is one of Text,
// Image or Sticker.
type Payload interface {
	Type() Type
	Content() string
	apply(p Patch) Payload
	normalized() Payload
}

// Text is a block of editable text.
type Text struct {
	Body       string
	FontSize   float64
	FontFamily string
	Color      string
}

func (Text) Type() Type { return TypeText }

// Image shows a picture from a URL or data URI.
type Image struct {
	Src  string
	Hint string // alt text / data-ai-hint
}

func (Image) Type() Type { return TypeImage }

// Sticker is a single emoji glyph rendered at Size.
type Sticker struct {
	Glyph string
	Size  float64
}

func (Sticker) Type() Type { return TypeSticker }

// Element is the atomic placeable unit on the board.
type Element struct {
	ID     string
	ZIndex int
	Geometry
	Background string
	Payload    Payload
	// NewlyAdded is consumed once by the entry animation.
	NewlyAdded bool
	PlacedAt   int64 // unix milliseconds
}

// Type returns the element type, fixed at creation.
func (e Element) Type() Type {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Type()
}

// Content returns the text, image source or glyph.
func (e Element) Content() string {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Content()
}

// Text returns the text payload when the element is a text element.
func (e Element) Text() (Text, bool) {
	t, ok := e.Payload.(Text)
	return t, ok
}

// Image returns the image payload when the element is an image.
func (e Element) Image() (Image, bool) {
	i, ok := e.Payload.(Image)
	return i, ok
}

// Sticker returns the sticker payload when the element is a sticker.
func (e Element) Sticker() (Sticker, bool) {
	s, ok := e.Payload.(Sticker)
	return s, ok
}

// defaults returns the template used by Add for a new element of type t.
func defaults(t Type) (Geometry, Payload, bool) {
	switch t {
	case TypeText:
		return Geometry{Width: 150, Height: 40}, Text{
			Body:       "New Text",
			FontSize:   20,
			FontFamily: DefaultFontFamily,
			Color:      DefaultTextColor,
		}, true
	case TypeImage:
		return Geometry{Width: 200, Height: 150}, Image{
			Src:  "https://placehold.co/200x150.png",
			Hint: "random placeholder",
		}, true
	case TypeSticker:
		return Geometry{Width: 60, Height: 60}, Sticker{
			Glyph: "✨",
			Size:  DefaultStickerSize,
		}, true
	}
	return Geometry{}, nil, false
}

// welcomeElement is the single element of a fresh board.
func welcomeElement(id string, placedAt int64) Element {
	return Element{
		ID:     id,
		ZIndex: 1,
		Geometry: Geometry{
			X: 50, Y: 50, Width: 250, Height: 50,
		},
		Payload: Text{
			Body:       "Welcome to Canvasly!",
			FontSize:   24,
			FontFamily: DefaultFontFamily,
			Color:      DefaultTextColor,
		},
		PlacedAt: placedAt,
	}
}
