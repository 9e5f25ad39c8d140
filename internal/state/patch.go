package state

// Patch is a partial update. Nil fields are left untouched. Style fields that
// do not belong to the element's type are ignored.
type Patch struct {
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	Rotation *float64

	Content    *string
	Background *string

	FontSize   *float64 // text
	FontFamily *string  // text
	TextColor  *string  // text

	StickerSize *float64 // sticker
	Hint        *string  // image

	NewlyAdded *bool
}

// Ptr returns a pointer to v, for filling Patch fields.
func Ptr[T any](v T) *T {
	return &v
}

// Move is a patch that only sets the top-left corner.
func Move(x, y float64) Patch {
	return Patch{X: &x, Y: &y}
}

// Bounds is a patch that sets position and size.
func Bounds(g Geometry) Patch {
	return Patch{X: &g.X, Y: &g.Y, Width: &g.Width, Height: &g.Height}
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p == Patch{}
}

// AffectsTextLayout reports whether the patch could change how text wraps.
func (p Patch) AffectsTextLayout() bool {
	return p.Content != nil || p.FontSize != nil || p.FontFamily != nil || p.Width != nil
}

// applyTo merges p into e. id, type, zIndex and placement time never change.
func (p Patch) applyTo(e Element) Element {
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.Width != nil {
		e.Width = *p.Width
	}
	if p.Height != nil {
		e.Height = *p.Height
	}
	if p.Rotation != nil {
		e.Rotation = *p.Rotation
	}
	e.Geometry = e.Geometry.clamped()
	if p.Background != nil {
		e.Background = *p.Background
	}
	if p.NewlyAdded != nil {
		e.NewlyAdded = *p.NewlyAdded
	}
	if e.Payload != nil {
		e.Payload = e.Payload.apply(p)
	}
	return e
}

func (t Text) Content() string { return t.Body }

func (t Text) apply(p Patch) Payload {
	if p.Content != nil {
		t.Body = *p.Content
	}
	if p.FontSize != nil && *p.FontSize > 0 {
		t.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		t.FontFamily = *p.FontFamily
	}
	if p.TextColor != nil {
		t.Color = *p.TextColor
	}
	return t
}

func (t Text) normalized() Payload {
	if t.FontSize <= 0 {
		t.FontSize = DefaultFontSize
	}
	if t.FontFamily == "" {
		t.FontFamily = DefaultFontFamily
	}
	if t.Color == "" {
		t.Color = DefaultTextColor
	}
	return t
}

func (i Image) Content() string { return i.Src }

func (i Image) apply(p Patch) Payload {
	if p.Content != nil {
		i.Src = *p.Content
	}
	if p.Hint != nil {
		i.Hint = *p.Hint
	}
	return i
}

func (i Image) normalized() Payload { return i }

func (s Sticker) Content() string { return s.Glyph }

func (s Sticker) apply(p Patch) Payload {
	if p.Content != nil {
		s.Glyph = *p.Content
	}
	if p.StickerSize != nil && *p.StickerSize > 0 {
		s.Size = *p.StickerSize
	}
	return s
}

func (s Sticker) normalized() Payload {
	if s.Size <= 0 {
		s.Size = DefaultStickerSize
	}
	return s
}
