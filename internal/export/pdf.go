// Package export renders the board to a printable PDF.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/lucasb-eyer/go-colorful"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/state"
)

// Page layout in millimetres (A4 landscape).
const (
	pageW   = 297.0
	pageH   = 210.0
	margin  = 10.0
	ptPerMM = 72 / 25.4
)

// PDF draws elements, in the order given, fitted onto one A4 page.
func PDF(w io.Writer, elements []state.Element) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.SetAutoPageBreak(false, 0)
	p.AddPage()

	bounds, ok := extent(elements)
	if ok {
		scale := fit(bounds)
		toPage := func(x, y float64) (float64, float64) {
			return margin + (x-bounds.X)*scale, margin + (y-bounds.Y)*scale
		}
		for i, el := range elements {
			drawElement(p, el, i, scale, toPage)
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// PDFFile writes the PDF to path.
func PDFFile(path string, elements []state.Element) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := PDF(f, elements); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func extent(elements []state.Element) (geom.Rect, bool) {
	if len(elements) == 0 {
		return geom.Rect{}, false
	}
	r := elements[0].Rect()
	for _, el := range elements[1:] {
		r = r.Union(el.Rect())
	}
	return r, true
}

// fit returns the mm-per-world-unit scale that fits r inside the margins,
// never enlarging past print size at 96 DPI.
func fit(r geom.Rect) float64 {
	scale := 25.4 / 96
	if sx := (pageW - 2*margin) / r.Width; sx < scale {
		scale = sx
	}
	if sy := (pageH - 2*margin) / r.Height; sy < scale {
		scale = sy
	}
	return scale
}

func drawElement(p *gofpdf.Fpdf, el state.Element, n int, scale float64, toPage func(x, y float64) (float64, float64)) {
	x, y := toPage(el.X, el.Y)
	w, h := el.Width*scale, el.Height*scale

	if r, g, b, ok := ParseColor(el.Background); ok {
		p.SetFillColor(r, g, b)
		p.Rect(x, y, w, h, "F")
	}

	switch pl := el.Payload.(type) {
	case state.Text:
		r, g, b, ok := ParseColor(pl.Color)
		if !ok {
			r, g, b = 0, 0, 0
		}
		size := pl.FontSize * scale // mm
		p.SetTextColor(r, g, b)
		p.SetFont("Helvetica", "", size*ptPerMM)
		p.SetXY(x, y)
		p.MultiCell(w, size*1.2, latin1(pl.Body), "", "L", false)

	case state.Image:
		if !drawDataImage(p, pl.Src, fmt.Sprintf("img-%d", n), x, y, w, h) {
			p.SetDrawColor(160, 160, 160)
			p.Rect(x, y, w, h, "D")
			p.SetTextColor(120, 120, 120)
			p.SetFont("Helvetica", "I", 8)
			p.SetXY(x, y+h/2-2)
			p.CellFormat(w, 4, latin1(pl.Hint), "", 0, "C", false, 0, "")
		}

	case state.Sticker:
		// Core PDF fonts have no emoji; mark the spot.
		p.SetDrawColor(250, 180, 40)
		p.Ellipse(x+w/2, y+h/2, w/2, h/2, 0, "D")
	}
}

// drawDataImage places a PNG or JPEG data URI. Remote URLs are not fetched.
func drawDataImage(p *gofpdf.Fpdf, src, name string, x, y, w, h float64) bool {
	const prefix = "data:image/"
	if !strings.HasPrefix(src, prefix) {
		return false
	}
	meta, data, ok := strings.Cut(src[len(prefix):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return false
	}
	var kind string
	switch strings.TrimSuffix(meta, ";base64") {
	case "png":
		kind = "PNG"
	case "jpeg", "jpg":
		kind = "JPG"
	default:
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return false
	}
	opts := gofpdf.ImageOptions{ImageType: kind}
	p.RegisterImageOptionsReader(name, opts, bytes.NewReader(raw))
	if !p.Ok() {
		p.ClearError()
		return false
	}
	p.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return true
}

// ParseColor reads #rgb and #rrggbb. Anything else, such as theme
// variables, is reported as not a color.
func ParseColor(s string) (int, int, int, bool) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return 0, 0, 0, false
	}
	r, g, b := c.RGB255()
	return int(r), int(g), int(b), true
}

// latin1 drops runes the core fonts cannot show.
func latin1(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n' || (r >= 0x20 && r < 0x7f):
			b.WriteRune(r)
		case r >= 0xa0 && r <= 0xff:
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}
