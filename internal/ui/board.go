package ui

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"

	"LocalCanvas/internal/export"
	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/gesture"
	"LocalCanvas/internal/state"
	"LocalCanvas/internal/textfit"
)

const (
	gridSize   = 50.0 // world units between grid lines
	handleSize = 10
	lineHeight = 1.2 // times the font size
)

var (
	backgroundColor = color.NRGBA{R: 245, G: 246, B: 248, A: 255}
	gridColor       = color.NRGBA{R: 220, G: 220, B: 220, A: 100}
	selectionColor  = color.NRGBA{R: 66, G: 133, B: 244, A: 255}
	placeholderFill = color.NRGBA{R: 230, G: 230, B: 230, A: 255}
)

type boardRenderer struct {
	w          *BoardWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

func newBoardRenderer(w *BoardWidget) *boardRenderer {
	r := &boardRenderer{w: w, background: canvas.NewRectangle(backgroundColor)}
	r.rebuild()
	return r
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.rebuild()
}

func (r *boardRenderer) MinSize() fyne.Size { return fyne.NewSize(300, 300) }

func (r *boardRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.w)
}

func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *boardRenderer) Destroy() {}

func (r *boardRenderer) rebuild() {
	w := r.w
	size := w.Size()
	r.background.Resize(size)
	zoom, pan := w.board.Zoom(), w.board.PanOffset()

	objects := []fyne.CanvasObject{r.background}
	w.mu.Lock()
	grid := w.showGrid
	w.mu.Unlock()
	if grid {
		objects = append(objects, gridLines(size, zoom, pan)...)
	}

	screen := geom.Rect{Width: float64(size.Width), Height: float64(size.Height)}
	selected, editing := w.board.SelectedID(), w.board.EditingID()
	var outline *geom.Rect
	for _, el := range w.board.RenderElements() {
		if el.ID == selected && el.ID != editing {
			r := geom.RectToScreen(el.Rect(), zoom, pan)
			outline = &r
		}
		if el.NewlyAdded {
			w.startEntry(el.ID)
		}
		rect := geom.RectToScreen(el.Rect(), zoom, pan)
		if !rect.Overlaps(screen) {
			continue
		}
		if p, ok := w.entryProgress(el.ID); ok {
			rect = scaleAbout(rect, 0.6+0.4*float64(p))
		}
		objects = append(objects, w.elementObjects(el, rect, zoom)...)
	}

	if outline != nil {
		objects = append(objects, selectionObjects(*outline)...)
	}
	r.objects = objects
}

func gridLines(size fyne.Size, zoom float64, pan geom.Point) []fyne.CanvasObject {
	step := gridSize * zoom
	if step < 8 {
		return nil
	}
	var lines []fyne.CanvasObject
	w, h := float64(size.Width), float64(size.Height)
	for x := mod(pan.X, step); x < w; x += step {
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(float32(x), 0)
		line.Position2 = fyne.NewPos(float32(x), size.Height)
		line.StrokeWidth = 0.5
		lines = append(lines, line)
	}
	for y := mod(pan.Y, step); y < h; y += step {
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(0, float32(y))
		line.Position2 = fyne.NewPos(size.Width, float32(y))
		line.StrokeWidth = 0.5
		lines = append(lines, line)
	}
	return lines
}

func mod(v, m float64) float64 {
	r := v - m*float64(int64(v/m))
	if r < 0 {
		r += m
	}
	return r
}

func scaleAbout(r geom.Rect, k float64) geom.Rect {
	c := r.Center()
	w, h := r.Width*k, r.Height*k
	return geom.Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

func place(o fyne.CanvasObject, r geom.Rect) {
	o.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
	o.Resize(fyne.NewSize(float32(r.Width), float32(r.Height)))
}

func (w *BoardWidget) elementObjects(el state.Element, rect geom.Rect, zoom float64) []fyne.CanvasObject {
	var objects []fyne.CanvasObject
	if c, ok := cssColor(el.Background); ok {
		bg := canvas.NewRectangle(c)
		bg.CornerRadius = float32(4 * zoom)
		place(bg, rect)
		objects = append(objects, bg)
	}

	switch pl := el.Payload.(type) {
	case state.Text:
		objects = append(objects, w.textObjects(el.ID, pl, el.Width, rect, zoom)...)
	case state.Image:
		objects = append(objects, w.imageObjects(pl, rect)...)
	case state.Sticker:
		glyph := canvas.NewText(pl.Glyph, theme.Color(theme.ColorNameForeground))
		glyph.TextSize = float32(pl.Size * zoom)
		glyph.Alignment = fyne.TextAlignCenter
		h := float64(glyph.MinSize().Height)
		place(glyph, geom.Rect{X: rect.X, Y: rect.Center().Y - h/2, Width: rect.Width, Height: h})
		objects = append(objects, glyph)
	}
	return objects
}

func (w *BoardWidget) textObjects(id string, t state.Text, width float64, rect geom.Rect, zoom float64) []fyne.CanvasObject {
	if w.board.EditingID() == id {
		outline := canvas.NewRectangle(color.Transparent)
		outline.StrokeColor = selectionColor
		outline.StrokeWidth = 1
		place(outline, rect)
		return []fyne.CanvasObject{outline}
	}

	lines := []string{t.Body}
	if w.measurer != nil {
		if wrapped, err := w.measurer.Lines(t.Body, width, t.FontSize); err == nil {
			lines = wrapped
		} else {
			log.Printf("[UI] Could not wrap text: %v", err)
		}
	}

	fg, ok := cssColor(t.Color)
	if !ok {
		fg = theme.Color(theme.ColorNameForeground)
	}
	style := fontStyle(t.FontFamily)
	pad := textfit.Padding * zoom
	step := t.FontSize * lineHeight * zoom

	objects := make([]fyne.CanvasObject, 0, len(lines))
	for i, line := range lines {
		txt := canvas.NewText(line, fg)
		txt.TextSize = float32(t.FontSize * zoom)
		txt.TextStyle = style
		y := rect.Y + pad + float64(i)*step
		if i > 0 && y+step > rect.Y+rect.Height {
			break
		}
		place(txt, geom.Rect{X: rect.X + pad, Y: y, Width: rect.Width - 2*pad, Height: step})
		objects = append(objects, txt)
	}
	return objects
}

func (w *BoardWidget) imageObjects(img state.Image, rect geom.Rect) []fyne.CanvasObject {
	var pic *canvas.Image
	if strings.HasPrefix(img.Src, "data:") {
		if decoded, ok := w.imageFor(img.Src); ok {
			pic = canvas.NewImageFromImage(decoded)
		}
	} else if uri, err := storage.ParseURI(img.Src); err == nil && img.Src != "" {
		pic = canvas.NewImageFromURI(uri)
	}
	if pic != nil {
		pic.FillMode = canvas.ImageFillContain
		place(pic, rect)
		return []fyne.CanvasObject{pic}
	}

	box := canvas.NewRectangle(placeholderFill)
	box.StrokeColor = gridColor
	box.StrokeWidth = 1
	place(box, rect)
	hint := canvas.NewText(img.Hint, theme.Color(theme.ColorNameDisabled))
	hint.Alignment = fyne.TextAlignCenter
	h := float64(hint.MinSize().Height)
	place(hint, geom.Rect{X: rect.X, Y: rect.Center().Y - h/2, Width: rect.Width, Height: h})
	return []fyne.CanvasObject{box, hint}
}

func selectionObjects(rect geom.Rect) []fyne.CanvasObject {
	outline := canvas.NewRectangle(color.Transparent)
	outline.StrokeColor = selectionColor
	outline.StrokeWidth = 2
	place(outline, rect)

	objects := []fyne.CanvasObject{outline}
	for _, h := range gesture.Handles {
		a := h.Anchor(rect)
		sq := canvas.NewRectangle(color.White)
		sq.StrokeColor = selectionColor
		sq.StrokeWidth = 1.5
		place(sq, geom.Rect{X: a.X - handleSize/2, Y: a.Y - handleSize/2, Width: handleSize, Height: handleSize})
		objects = append(objects, sq)
	}
	return objects
}

// cssColor reads the hex colors the board stores. Theme variables report
// false so the caller can fall back to the fyne theme.
func cssColor(s string) (color.Color, bool) {
	r, g, b, ok := export.ParseColor(s)
	if !ok {
		return nil, false
	}
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, true
}

func hexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// fontStyle picks the closest fyne style for a CSS font stack.
func fontStyle(family string) fyne.TextStyle {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "monospace"):
		return fyne.TextStyle{Monospace: true}
	case strings.Contains(f, "impact"):
		return fyne.TextStyle{Bold: true}
	case strings.Contains(f, "cursive"):
		return fyne.TextStyle{Italic: true}
	}
	return fyne.TextStyle{}
}

var errNotDataURI = errors.New("not a base64 data URI")

func decodeDataImage(src string) (image.Image, error) {
	meta, data, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, errNotDataURI
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	return img, err
}

func encodeDataImage(mime string, raw []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
}
