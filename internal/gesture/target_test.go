package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"LocalCanvas/internal/geom"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want Target
	}{
		{"background", Node{Role: RoleBackground}, Background()},
		{"world container", Node{Role: RoleWorld}, Background()},
		{"decoration", Node{Role: RoleOther}, Target{}},
		{"element", Node{Role: RoleElement, ElementID: "a"}, ElementBody("a")},
		{"element without id", Node{Role: RoleElement}, Target{}},
		{"handle", Node{Role: RoleHandle, ElementID: "a", Handle: BottomRight}, ResizeHandle("a", BottomRight)},
		{"bad handle", Node{Role: RoleHandle, ElementID: "a", Handle: "xx"}, Target{}},
		{"input", Node{Role: RoleInteractive, ElementID: "a"}, InteractiveChild("a")},
		{"flagged drag handle", Node{Role: RoleInteractive, ElementID: "a", DragHandle: true}, ElementBody("a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.node))
		})
	}
}

func TestHandleAnchor(t *testing.T) {
	r := geom.Rect{X: 10, Y: 20, Width: 100, Height: 50}
	want := map[Handle]geom.Point{
		TopLeft:      geom.Pt(10, 20),
		TopMiddle:    geom.Pt(60, 20),
		TopRight:     geom.Pt(110, 20),
		MiddleLeft:   geom.Pt(10, 45),
		MiddleRight:  geom.Pt(110, 45),
		BottomLeft:   geom.Pt(10, 70),
		BottomMiddle: geom.Pt(60, 70),
		BottomRight:  geom.Pt(110, 70),
	}
	assert.Len(t, Handles, 8)
	for _, h := range Handles {
		assert.Equal(t, want[h], h.Anchor(r), string(h))
	}
}

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds("None")
	assert.NoError(t, err)
	assert.Equal(t, BoundsNone, b)

	b, err = ParseBounds("")
	assert.NoError(t, err)
	assert.Equal(t, BoundsViewport, b)

	_, err = ParseBounds("window")
	assert.Error(t, err)
}
