package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"LocalCanvas/internal/geom"
)

// Zoom limits shared by the viewport and snapshot normalization.
const (
	MinZoom = 0.2
	MaxZoom = 3.0
)

// ErrMalformedSnapshot is returned when persisted data has the wrong shape.
var ErrMalformedSnapshot = errors.New("malformed board snapshot")

// Snapshot is the persisted board: elements, viewport and selection.
type Snapshot struct {
	Elements   []Element
	Zoom       float64
	PanOffset  geom.Point
	SelectedID string
}

// DefaultSnapshot is the board used on first run and after a failed load.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Elements: []Element{welcomeElement(NewID(), nowMillis())},
		Zoom:     1,
	}
}

// Normalize returns a copy with style fallbacks filled in, transient flags
// cleared, geometry and zoom clamped, and a dangling selection dropped.
func (s *Snapshot) Normalize() *Snapshot {
	out := &Snapshot{
		Elements:  make([]Element, 0, len(s.Elements)),
		Zoom:      clampZoom(s.Zoom),
		PanOffset: s.PanOffset,
	}
	for _, el := range s.Elements {
		el.Geometry = el.Geometry.clamped()
		el.NewlyAdded = false
		if el.Payload != nil {
			el.Payload = el.Payload.normalized()
		}
		out.Elements = append(out.Elements, el)
		if el.ID == s.SelectedID {
			out.SelectedID = el.ID
		}
	}
	return out
}

// Validate checks what Normalize cannot repair: ids present and unique,
// every element typed, and finite geometry, zoom and pan. Failures wrap
// ErrMalformedSnapshot.
func (s *Snapshot) Validate() error {
	if !finite(s.Zoom) {
		return fmt.Errorf("%w: invalid zoom", ErrMalformedSnapshot)
	}
	if !finite(s.PanOffset.X) || !finite(s.PanOffset.Y) {
		return fmt.Errorf("%w: invalid panOffset", ErrMalformedSnapshot)
	}
	seen := make(map[string]bool, len(s.Elements))
	for i, el := range s.Elements {
		switch {
		case el.ID == "":
			return fmt.Errorf("%w: element %d: missing id", ErrMalformedSnapshot, i)
		case el.Payload == nil:
			return fmt.Errorf("%w: element %d: missing type", ErrMalformedSnapshot, i)
		case !finite(el.X) || !finite(el.Y) || !finite(el.Width) || !finite(el.Height) || !finite(el.Rotation):
			return fmt.Errorf("%w: element %d: non-finite geometry", ErrMalformedSnapshot, i)
		case seen[el.ID]:
			return fmt.Errorf("%w: duplicate id %q", ErrMalformedSnapshot, el.ID)
		}
		seen[el.ID] = true
	}
	return nil
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// elementRecord is the wire shape of one element. Required fields are
// pointers so that absence can be told apart from zero.
type elementRecord struct {
	ID              *string  `json:"id"`
	Type            *Type    `json:"type"`
	X               *float64 `json:"x"`
	Y               *float64 `json:"y"`
	Width           *float64 `json:"width"`
	Height          *float64 `json:"height"`
	Rotation        float64  `json:"rotation"`
	ZIndex          *int     `json:"zIndex"`
	Content         *string  `json:"content"`
	FontSize        float64  `json:"fontSize,omitempty"`
	TextColor       string   `json:"textColor,omitempty"`
	FontFamily      string   `json:"fontFamily,omitempty"`
	StickerSize     float64  `json:"stickerSize,omitempty"`
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	Hint            string   `json:"data-ai-hint,omitempty"`
	IsNewlyAdded    bool     `json:"isNewlyAdded,omitempty"`
	PlacementTime   int64    `json:"placementTime,omitempty"`
}

type snapshotRecord struct {
	Elements   *[]elementRecord `json:"elements"`
	Zoom       *float64         `json:"zoom"`
	PanOffset  *geom.Point      `json:"panOffset"`
	SelectedID string           `json:"selectedId,omitempty"`
}

// MarshalJSON writes the snapshot with the field names of the board file.
// isNewlyAdded is never written.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	records := make([]elementRecord, 0, len(s.Elements))
	for _, el := range s.Elements {
		records = append(records, toRecord(el))
	}
	zoom := s.Zoom
	pan := s.PanOffset
	return json.Marshal(snapshotRecord{
		Elements:   &records,
		Zoom:       &zoom,
		PanOffset:  &pan,
		SelectedID: s.SelectedID,
	})
}

// UnmarshalJSON validates the whole document before touching s, so a
// malformed snapshot is never partially applied.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if rec.Elements == nil {
		return fmt.Errorf("%w: missing elements", ErrMalformedSnapshot)
	}
	if rec.Zoom == nil || !finite(*rec.Zoom) || *rec.Zoom <= 0 {
		return fmt.Errorf("%w: missing or invalid zoom", ErrMalformedSnapshot)
	}
	if rec.PanOffset == nil || !finite(rec.PanOffset.X) || !finite(rec.PanOffset.Y) {
		return fmt.Errorf("%w: missing or invalid panOffset", ErrMalformedSnapshot)
	}

	elements := make([]Element, 0, len(*rec.Elements))
	for i, r := range *rec.Elements {
		el, err := fromRecord(r)
		if err != nil {
			return fmt.Errorf("%w: element %d: %v", ErrMalformedSnapshot, i, err)
		}
		elements = append(elements, el)
	}

	decoded := Snapshot{
		Elements:   elements,
		Zoom:       *rec.Zoom,
		PanOffset:  *rec.PanOffset,
		SelectedID: rec.SelectedID,
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

func toRecord(el Element) elementRecord {
	id, typ, content := el.ID, el.Type(), el.Content()
	x, y, w, h, z := el.X, el.Y, el.Width, el.Height, el.ZIndex
	r := elementRecord{
		ID:              &id,
		Type:            &typ,
		X:               &x,
		Y:               &y,
		Width:           &w,
		Height:          &h,
		Rotation:        el.Rotation,
		ZIndex:          &z,
		Content:         &content,
		BackgroundColor: el.Background,
		PlacementTime:   el.PlacedAt,
	}
	switch p := el.Payload.(type) {
	case Text:
		r.FontSize = p.FontSize
		r.FontFamily = p.FontFamily
		r.TextColor = p.Color
	case Image:
		r.Hint = p.Hint
	case Sticker:
		r.StickerSize = p.Size
	}
	return r
}

func fromRecord(r elementRecord) (Element, error) {
	if r.ID == nil || *r.ID == "" {
		return Element{}, errors.New("missing id")
	}
	if r.Type == nil || !r.Type.Valid() {
		return Element{}, errors.New("missing or unknown type")
	}
	if r.X == nil || r.Y == nil || r.Width == nil || r.Height == nil {
		return Element{}, errors.New("missing geometry")
	}
	if !finite(*r.X) || !finite(*r.Y) || !finite(*r.Width) || !finite(*r.Height) || !finite(r.Rotation) {
		return Element{}, errors.New("non-finite geometry")
	}
	if r.ZIndex == nil {
		return Element{}, errors.New("missing zIndex")
	}
	if r.Content == nil {
		return Element{}, errors.New("missing content")
	}

	el := Element{
		ID:     *r.ID,
		ZIndex: *r.ZIndex,
		Geometry: Geometry{
			X:        *r.X,
			Y:        *r.Y,
			Width:    *r.Width,
			Height:   *r.Height,
			Rotation: r.Rotation,
		},
		Background: r.BackgroundColor,
		NewlyAdded: r.IsNewlyAdded,
		PlacedAt:   r.PlacementTime,
	}
	switch *r.Type {
	case TypeText:
		el.Payload = Text{Body: *r.Content, FontSize: r.FontSize, FontFamily: r.FontFamily, Color: r.TextColor}
	case TypeImage:
		el.Payload = Image{Src: *r.Content, Hint: r.Hint}
	case TypeSticker:
		el.Payload = Sticker{Glyph: *r.Content, Size: r.StickerSize}
	}
	return el, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
