package board

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/gesture"
	"LocalCanvas/internal/state"
)

type measurerFunc func(text string, width, fontSize float64) (float64, error)

func (f measurerFunc) Height(text string, width, fontSize float64) (float64, error) {
	return f(text, width, fontSize)
}

// lineMeasurer pretends every 10 characters take a 20 unit line.
var lineMeasurer = measurerFunc(func(text string, _, _ float64) (float64, error) {
	lines := len(text)/10 + 1
	return float64(lines * 20), nil
})

type loaderFunc func(ctx context.Context) (*state.Snapshot, error)

func (f loaderFunc) Load(ctx context.Context) (*state.Snapshot, error) { return f(ctx) }

type countingCapturer struct{ acquired, released int }

func (c *countingCapturer) Capture() func() {
	c.acquired++
	return func() { c.released++ }
}

func record(b *Board) *[]state.Change {
	var changes []state.Change
	b.Subscribe(func(c state.Change) { changes = append(changes, c) })
	return &changes
}

func TestNewBoard(t *testing.T) {
	b := New()
	els := b.Elements()
	require.Len(t, els, 1)
	assert.Equal(t, state.TypeText, els[0].Type())
	assert.Equal(t, 1.0, b.Zoom())
	assert.Equal(t, geom.Point{}, b.PanOffset())
	assert.Empty(t, b.SelectedID())
}

func TestAddElementCentersInView(t *testing.T) {
	b := New(WithViewportSize(geom.Size{Width: 1200, Height: 800}))
	id := b.AddElement(state.TypeText, state.Patch{})
	el, ok := b.Element(id)
	require.True(t, ok)
	assert.InDelta(t, 525, el.X, 1e-9)
	assert.InDelta(t, 380, el.Y, 1e-9)
	assert.Equal(t, id, b.SelectedID())

	// Panned and zoomed: still centered in what is visible.
	b.SetZoom(2)
	b.SetPanOffset(geom.Pt(-400, 200))
	id = b.AddElement(state.TypeSticker, state.Patch{})
	el, _ = b.Element(id)
	center := geom.ScreenToWorld(geom.Pt(600, 400), 2, geom.Pt(-400, 200))
	assert.InDelta(t, center.X-30, el.X, 1e-9)
	assert.InDelta(t, center.Y-30, el.Y, 1e-9)
}

func TestSubscribersSeeChangesAfterUnlock(t *testing.T) {
	b := New()
	var seen []state.Change
	cancel := b.Subscribe(func(c state.Change) {
		seen = append(seen, c)
		// Reads and edits from inside a callback must not deadlock.
		_ = b.Elements()
		if c.Kind == state.ElementAdded {
			b.ConsumeNewlyAdded(c.ID)
		}
	})

	id := b.AddElement(state.TypeImage, state.Patch{})
	assert.Equal(t, []state.Change{
		{Kind: state.ElementAdded, ID: id},
		{Kind: state.SelectionChanged, ID: id},
	}, seen)
	el, _ := b.Element(id)
	assert.False(t, el.NewlyAdded)

	cancel()
	cancel()
	b.DeleteElement(id)
	assert.Len(t, seen, 2)
}

func TestViewportChangesArePublished(t *testing.T) {
	b := New()
	changes := record(b)

	b.Wheel(geom.Pt(100, 100), -1)
	b.UpdateZoom(func(z float64) float64 { return z })
	b.UpdatePanOffset(func(p geom.Point) geom.Point { return p.Add(geom.Pt(1, 1)) })
	assert.Equal(t, []state.Change{{Kind: state.ViewportChanged}, {Kind: state.ViewportChanged}}, *changes)
	assert.InDelta(t, 1.1, b.Zoom(), 1e-9)
}

func TestDragThroughHitTesting(t *testing.T) {
	b := New(WithDragBounds(gesture.BoundsNone))
	id := b.AddElement(state.TypeImage, state.Patch{X: state.Ptr(100.0), Y: state.Ptr(100.0)})
	b.SelectElement("")
	changes := record(b)

	node := b.NodeAt(geom.Pt(150, 150))
	require.Equal(t, gesture.Node{Role: gesture.RoleElement, ElementID: id}, node)

	require.True(t, b.PointerDown(node, gesture.MouseAt(geom.Pt(150, 150))))
	b.PointerMove(geom.Pt(170, 130))

	committed, _ := b.Element(id)
	assert.Equal(t, geom.Pt(100, 100), committed.Pos())
	for _, el := range b.RenderElements() {
		if el.ID == id {
			assert.Equal(t, geom.Pt(120, 80), el.Pos())
		}
	}
	assert.Contains(t, *changes, state.Change{Kind: state.PreviewMoved, ID: id})

	b.PointerUp()
	committed, _ = b.Element(id)
	assert.Equal(t, geom.Pt(120, 80), committed.Pos())
	kind, _ := b.Gesture()
	assert.Equal(t, gesture.Idle, kind)
}

func TestNodeAtPrefersHandlesAndTopElements(t *testing.T) {
	b := New()
	low := b.AddElement(state.TypeImage, state.Patch{X: state.Ptr(0.0), Y: state.Ptr(0.0)})
	high := b.AddElement(state.TypeImage, state.Patch{X: state.Ptr(100.0), Y: state.Ptr(100.0)})
	b.SetZoom(2)
	b.SelectElement(low)

	// low is 200x150 at zoom 2: its br handle sits at (400, 300) on screen,
	// inside high's body, but handles of the selection win.
	assert.Equal(t,
		gesture.Node{Role: gesture.RoleHandle, ElementID: low, Handle: gesture.BottomRight},
		b.NodeAt(geom.Pt(403, 297)))

	b.SelectElement(high)
	assert.Equal(t, gesture.Node{Role: gesture.RoleElement, ElementID: high}, b.NodeAt(geom.Pt(250, 250)))
	assert.Equal(t, gesture.Node{Role: gesture.RoleElement, ElementID: low}, b.NodeAt(geom.Pt(50, 50)))
	assert.Equal(t, gesture.Node{Role: gesture.RoleBackground}, b.NodeAt(geom.Pt(1000, 50)))
}

func TestResizeThroughHandle(t *testing.T) {
	b := New(WithMeasurer(lineMeasurer))
	id := b.AddElement(state.TypeImage, state.Patch{
		X: state.Ptr(0.0), Y: state.Ptr(0.0), Width: state.Ptr(100.0), Height: state.Ptr(100.0),
	})

	node := b.NodeAt(geom.Pt(0, 0))
	require.Equal(t, gesture.RoleHandle, node.Role)
	require.Equal(t, gesture.TopLeft, node.Handle)

	require.True(t, b.PointerDown(node, gesture.MouseAt(geom.Pt(0, 0))))
	b.PointerMove(geom.Pt(90, 90))
	b.PointerUp()

	el, _ := b.Element(id)
	assert.Equal(t, state.Geometry{X: 80, Y: 80, Width: 20, Height: 20}, el.Geometry)
}

func TestPanDeselects(t *testing.T) {
	b := New()
	b.AddElement(state.TypeSticker, state.Patch{X: state.Ptr(0.0), Y: state.Ptr(0.0)})

	require.True(t, b.PointerDown(b.NodeAt(geom.Pt(900, 700)), gesture.MouseAt(geom.Pt(900, 700))))
	assert.Empty(t, b.SelectedID())
	b.PointerMove(geom.Pt(850, 720))
	b.PointerCancel()
	assert.Equal(t, geom.Pt(-50, 20), b.PanOffset())
}

func TestTextEditMode(t *testing.T) {
	b := New(WithMeasurer(lineMeasurer))
	id := b.AddElement(state.TypeText, state.Patch{X: state.Ptr(0.0), Y: state.Ptr(0.0)})
	img := b.AddElement(state.TypeImage, state.Patch{X: state.Ptr(500.0), Y: state.Ptr(500.0)})

	assert.False(t, b.BeginTextEdit(img))
	require.True(t, b.BeginTextEdit(id))
	assert.Equal(t, id, b.EditingID())
	assert.Equal(t, id, b.SelectedID())

	// The edited element is an interactive surface: no drag, no handles.
	node := b.NodeAt(geom.Pt(10, 10))
	assert.Equal(t, gesture.Node{Role: gesture.RoleInteractive, ElementID: id}, node)
	assert.False(t, b.PointerDown(node, gesture.MouseAt(geom.Pt(10, 10))))
	assert.False(t, b.PointerDown(gesture.Node{Role: gesture.RoleElement, ElementID: id}, gesture.MouseAt(geom.Pt(10, 10))))
	assert.False(t, b.FitText(id))

	b.CommitTextEdit("a fairly long line of text")
	assert.Empty(t, b.EditingID())
	el, _ := b.Element(id)
	assert.Equal(t, "a fairly long line of text", el.Content())
	assert.Equal(t, 60.0, el.Height)

	require.True(t, b.BeginTextEdit(id))
	b.CancelTextEdit()
	el, _ = b.Element(id)
	assert.Equal(t, "a fairly long line of text", el.Content())
}

func TestPressElsewhereCommitsEdit(t *testing.T) {
	b := New()
	id := b.AddElement(state.TypeText, state.Patch{})
	require.True(t, b.BeginTextEdit(id))

	b.PointerDown(gesture.Node{Role: gesture.RoleBackground}, gesture.MouseAt(geom.Pt(1, 1)))
	b.PointerUp()
	assert.Empty(t, b.EditingID())
}

func TestFitTextOnlyGrows(t *testing.T) {
	b := New(WithMeasurer(lineMeasurer))
	id := b.AddElement(state.TypeText, state.Patch{Height: state.Ptr(200.0)})

	assert.False(t, b.FitText(id))
	el, _ := b.Element(id)
	assert.Equal(t, 200.0, el.Height)

	b.UpdateElement(id, state.Patch{Height: state.Ptr(20.0)})
	b.UpdateElement(id, state.Patch{Content: state.Ptr("twenty-one characters")})
	el, _ = b.Element(id)
	assert.Equal(t, 60.0, el.Height)

	// Not text: nothing to fit.
	img := b.AddElement(state.TypeImage, state.Patch{})
	assert.False(t, b.FitText(img))
}

func TestFitTextWithoutMeasurer(t *testing.T) {
	b := New()
	id := b.AddElement(state.TypeText, state.Patch{Content: state.Ptr("a very long piece of text indeed")})
	assert.False(t, b.FitText(id))
}

func TestFitTextReportsMeasureErrors(t *testing.T) {
	b := New(WithMeasurer(measurerFunc(func(string, float64, float64) (float64, error) {
		return 0, errors.New("no font")
	})))
	id := b.AddElement(state.TypeText, state.Patch{})
	assert.False(t, b.FitText(id))
}

func TestClearBoardKeepsViewport(t *testing.T) {
	b := New()
	b.AddElement(state.TypeImage, state.Patch{})
	b.SetZoom(2)
	b.SetPanOffset(geom.Pt(10, 10))

	b.ClearBoard()
	assert.Len(t, b.Elements(), 1)
	assert.Empty(t, b.SelectedID())
	assert.Equal(t, 2.0, b.Zoom())
	assert.Equal(t, geom.Pt(10, 10), b.PanOffset())
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		b := New()
		b.SetZoom(2)
		require.NoError(t, b.Load(ctx, loaderFunc(func(context.Context) (*state.Snapshot, error) { return nil, nil })))
		assert.Len(t, b.Elements(), 1)
		assert.Equal(t, 1.0, b.Zoom())
		assert.Equal(t, geom.Point{}, b.PanOffset())
	})

	t.Run("malformed", func(t *testing.T) {
		b := New()
		b.AddElement(state.TypeImage, state.Patch{})
		b.SetPanOffset(geom.Pt(5, 5))

		err := b.Load(ctx, loaderFunc(func(context.Context) (*state.Snapshot, error) {
			var s state.Snapshot
			return nil, json.Unmarshal([]byte(`{"elements": 3}`), &s)
		}))
		assert.ErrorIs(t, err, state.ErrMalformedSnapshot)
		els := b.Elements()
		require.Len(t, els, 1)
		assert.Equal(t, state.TypeText, els[0].Type())
		assert.Equal(t, 1.0, b.Zoom())
		assert.Equal(t, geom.Point{}, b.PanOffset())
	})

	t.Run("stored board", func(t *testing.T) {
		b := New()
		stored := &state.Snapshot{
			Elements: []state.Element{{
				ID: "t1", ZIndex: 4, NewlyAdded: true,
				Geometry: state.Geometry{X: 1, Y: 2, Width: 100, Height: 30},
				Payload:  state.Text{Body: "hi"},
			}},
			Zoom:       1.5,
			PanOffset:  geom.Pt(3, 4),
			SelectedID: "t1",
		}
		require.NoError(t, b.Load(ctx, loaderFunc(func(context.Context) (*state.Snapshot, error) { return stored, nil })))

		el, ok := b.Element("t1")
		require.True(t, ok)
		txt, _ := el.Text()
		assert.Equal(t, state.DefaultFontFamily, txt.FontFamily)
		assert.False(t, el.NewlyAdded)
		assert.Equal(t, 1.5, b.Zoom())
		assert.Equal(t, geom.Pt(3, 4), b.PanOffset())
		assert.Equal(t, "t1", b.SelectedID())

		snap := b.Snapshot()
		assert.Equal(t, 1.5, snap.Zoom)
		assert.Equal(t, "t1", snap.SelectedID)
		require.Len(t, snap.Elements, 1)
	})
}

func TestCloseReleasesCapture(t *testing.T) {
	cp := &countingCapturer{}
	b := New(WithCapturer(cp))
	changes := record(b)

	require.True(t, b.PointerDown(gesture.Node{Role: gesture.RoleBackground}, gesture.MouseAt(geom.Pt(1, 1))))
	b.Close()
	assert.Equal(t, 1, cp.acquired)
	assert.Equal(t, 1, cp.released)

	*changes = nil
	b.AddElement(state.TypeText, state.Patch{})
	assert.Empty(t, *changes)
}

func TestLoadRejectsInvalidSnapshot(t *testing.T) {
	b := New()
	b.AddElement(state.TypeSticker, state.Patch{})

	err := b.Load(context.Background(), loaderFunc(func(context.Context) (*state.Snapshot, error) {
		return &state.Snapshot{
			Elements: []state.Element{
				{ID: "a", Geometry: state.Geometry{Width: 100, Height: 40}, Payload: state.Text{Body: "x"}},
				{ID: "a", Geometry: state.Geometry{Width: 60, Height: 60}, Payload: state.Sticker{Glyph: "✨"}},
				{ID: "b", Geometry: state.Geometry{Width: 60, Height: 60}},
			},
			Zoom: 1,
		}, nil
	}))
	assert.ErrorIs(t, err, state.ErrMalformedSnapshot)

	els := b.Elements()
	require.Len(t, els, 1)
	assert.Equal(t, state.TypeText, els[0].Type())
	assert.NotEqual(t, "a", els[0].ID)
}

func TestRestoreLeavesBoardOnInvalidSnapshot(t *testing.T) {
	b := New()
	id := b.AddElement(state.TypeSticker, state.Patch{})

	err := b.Restore(&state.Snapshot{
		Elements: []state.Element{{ID: "b", Geometry: state.Geometry{Width: 60, Height: 60}}},
		Zoom:     1,
	})
	assert.ErrorIs(t, err, state.ErrMalformedSnapshot)
	_, ok := b.Element(id)
	assert.True(t, ok)
	assert.Len(t, b.Elements(), 2)
}

func TestReloadKeepsBoardOnFailure(t *testing.T) {
	ctx := context.Background()
	cases := map[string]loaderFunc{
		"read error": func(context.Context) (*state.Snapshot, error) {
			var s state.Snapshot
			return nil, json.Unmarshal([]byte(`{"elements": [`), &s)
		},
		"nothing stored": func(context.Context) (*state.Snapshot, error) { return nil, nil },
		"invalid": func(context.Context) (*state.Snapshot, error) {
			return &state.Snapshot{Elements: []state.Element{{ID: "x"}}, Zoom: 1}, nil
		},
	}
	for name, l := range cases {
		t.Run(name, func(t *testing.T) {
			b := New()
			id := b.AddElement(state.TypeImage, state.Patch{})
			b.SetPanOffset(geom.Pt(7, 8))
			changes := record(b)

			assert.Error(t, b.Reload(ctx, l))
			assert.Len(t, b.Elements(), 2)
			assert.Equal(t, id, b.SelectedID())
			assert.Equal(t, geom.Pt(7, 8), b.PanOffset())
			assert.Empty(t, *changes)
		})
	}

	t.Run("nothing stored is reported", func(t *testing.T) {
		err := New().Reload(ctx, cases["nothing stored"])
		assert.ErrorIs(t, err, ErrNothingStored)
	})
}

func TestReloadReplacesBoard(t *testing.T) {
	b := New()
	b.AddElement(state.TypeImage, state.Patch{})

	err := b.Reload(context.Background(), loaderFunc(func(context.Context) (*state.Snapshot, error) {
		return &state.Snapshot{
			Elements: []state.Element{{
				ID: "s1", ZIndex: 1,
				Geometry: state.Geometry{Width: 60, Height: 60},
				Payload:  state.Sticker{Glyph: "🔥"},
			}},
			Zoom: 2,
		}, nil
	}))
	require.NoError(t, err)
	els := b.Elements()
	require.Len(t, els, 1)
	assert.Equal(t, "s1", els[0].ID)
	assert.Equal(t, 2.0, b.Zoom())
}

func TestTextIsFittedOnAddAndRestore(t *testing.T) {
	b := New(WithMeasurer(lineMeasurer))

	long := "a text that needs several lines at this width"
	id := b.AddElement(state.TypeText, state.Patch{Content: &long})
	el, _ := b.Element(id)
	assert.Equal(t, float64((len(long)/10+1)*20), el.Height)

	require.NoError(t, b.Restore(&state.Snapshot{
		Elements: []state.Element{{
			ID: "t1", ZIndex: 1,
			Geometry: state.Geometry{Width: 150, Height: 40},
			Payload:  state.Text{Body: long, FontSize: 20},
		}},
		Zoom: 1,
	}))
	el, _ = b.Element("t1")
	assert.Equal(t, float64((len(long)/10+1)*20), el.Height)
}
