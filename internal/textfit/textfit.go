// Package textfit lays out text off screen to find how tall a text element
// must be to show all of its content.
package textfit

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Padding is the inner space around text, per side, in world units.
const Padding = 4.0

// maxFaceSize caps the sizes a Measurer keeps faces for.
const maxFaceSize = 512

// Measurer wraps text with Go Regular at any font size. Sizes are rounded to
// whole points in [1, maxFaceSize] and faces are cached per rounded size.
// Safe for concurrent use.
type Measurer struct {
	font  *opentype.Font
	mu    sync.Mutex
	faces map[int]font.Face
}

// NewMeasurer parses the bundled font.
func NewMeasurer() (*Measurer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Measurer{font: f, faces: make(map[int]font.Face)}, nil
}

func faceSize(size float64) int {
	if math.IsNaN(size) {
		return 1
	}
	return int(math.Max(1, math.Min(maxFaceSize, math.Round(size))))
}

func (m *Measurer) face(size float64) (font.Face, error) {
	key := faceSize(size)

	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.faces[key]; ok {
		return f, nil
	}
	// 72 DPI keeps one point equal to one world unit.
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    float64(key),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[key] = f
	return f, nil
}

// Lines word-wraps text into lines no wider than width. Explicit newlines
// are kept. A single word wider than width gets a line of its own.
func (m *Measurer) Lines(text string, width, fontSize float64) ([]string, error) {
	face, err := m.face(fontSize)
	if err != nil {
		return nil, err
	}
	limit := toFixed(width - 2*Padding)

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if font.MeasureString(face, candidate) > limit {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Height is the box height that fits text wrapped at width.
func (m *Measurer) Height(text string, width, fontSize float64) (float64, error) {
	lines, err := m.Lines(text, width, fontSize)
	if err != nil {
		return 0, err
	}
	face, err := m.face(fontSize)
	if err != nil {
		return 0, err
	}
	lineHeight := fromFixed(face.Metrics().Height)
	return float64(len(lines))*lineHeight + 2*Padding, nil
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
