package ui

import (
	"image"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"LocalCanvas/internal/board"
	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/gesture"
	"LocalCanvas/internal/state"
	"LocalCanvas/internal/textfit"
)

// PointerCapture tracks whether a board gesture currently owns the pointer.
// fyne already routes a drag to the widget it started on, so holding the
// capture only needs to be recorded.
type PointerCapture struct {
	mu   sync.Mutex
	held bool
}

func NewPointerCapture() *PointerCapture { return &PointerCapture{} }

func (c *PointerCapture) Capture() func() {
	c.mu.Lock()
	c.held = true
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.held = false
		c.mu.Unlock()
	}
}

func (c *PointerCapture) Held() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}

// BoardWidget shows a board and turns fyne input into board gestures.
type BoardWidget struct {
	widget.BaseWidget
	board    *board.Board
	capture  *PointerCapture
	measurer *textfit.Measurer
	window   fyne.Window
	status   *widget.Label

	mu        sync.Mutex
	mouseDown bool
	showGrid  bool
	images    map[string]image.Image
	entering  map[string]float32 // entry animation progress per element

	unsubscribe func()
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ fyne.DoubleTappable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

// NewBoardWidget binds a widget to b. capture must be the Capturer b was
// created with. measurer may be nil, in which case text is not wrapped.
func NewBoardWidget(b *board.Board, capture *PointerCapture, measurer *textfit.Measurer) *BoardWidget {
	if capture == nil {
		capture = NewPointerCapture()
	}
	w := &BoardWidget{
		board:    b,
		capture:  capture,
		measurer: measurer,
		status:   widget.NewLabel("Ready"),
		showGrid: true,
		images:   make(map[string]image.Image),
		entering: make(map[string]float32),
	}
	w.ExtendBaseWidget(w)
	w.unsubscribe = b.Subscribe(func(state.Change) {
		fyne.Do(w.Refresh)
	})
	return w
}

// SetWindow gives the widget a parent for its dialogs.
func (w *BoardWidget) SetWindow(win fyne.Window) { w.window = win }

func (w *BoardWidget) Board() *board.Board { return w.board }

// Status is the label the widget reports to.
func (w *BoardWidget) Status() *widget.Label { return w.status }

func (w *BoardWidget) SetStatus(text string) {
	fyne.Do(func() { w.status.SetText(text) })
}

func (w *BoardWidget) ToggleGrid() {
	w.mu.Lock()
	w.showGrid = !w.showGrid
	w.mu.Unlock()
	w.Refresh()
}

// Detach stops following board changes.
func (w *BoardWidget) Detach() {
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
}

func (w *BoardWidget) Resize(s fyne.Size) {
	w.board.SetViewportSize(geom.Size{Width: float64(s.Width), Height: float64(s.Height)})
	w.BaseWidget.Resize(s)
}

func toPoint(p fyne.Position) geom.Point {
	return geom.Pt(float64(p.X), float64(p.Y))
}

func (w *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	p := gesture.Pointer{Pos: toPoint(e.Position), Device: gesture.Mouse}
	switch e.Button {
	case desktop.MouseButtonPrimary:
		p.Button = gesture.ButtonPrimary
	case desktop.MouseButtonSecondary:
		p.Button = gesture.ButtonSecondary
	default:
		p.Button = gesture.ButtonTertiary
	}
	w.mu.Lock()
	w.mouseDown = true
	w.mu.Unlock()

	w.board.PointerDown(w.board.NodeAt(p.Pos), p)
}

func (w *BoardWidget) MouseUp(*desktop.MouseEvent) {
	w.mu.Lock()
	w.mouseDown = false
	w.mu.Unlock()
	w.board.PointerUp()
}

// Dragged moves the active gesture. Touch screens never send MouseDown, so
// a drag with no gesture running starts one as a single-finger touch at
// the point the drag began.
func (w *BoardWidget) Dragged(e *fyne.DragEvent) {
	w.mu.Lock()
	mouse := w.mouseDown
	w.mu.Unlock()

	if !mouse && !w.capture.Held() {
		start := toPoint(e.Position.Subtract(e.Dragged))
		w.board.PointerDown(w.board.NodeAt(start), gesture.TouchAt(start))
	}
	w.board.PointerMove(toPoint(e.Position))
}

func (w *BoardWidget) DragEnd() {
	w.board.PointerUp()
}

// Scrolled zooms at the cursor. fyne reports wheel-up as positive DY.
func (w *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	w.board.Wheel(toPoint(e.Position), -float64(e.Scrolled.DY))
}

// DoubleTapped opens the text editor for a text element.
func (w *BoardWidget) DoubleTapped(e *fyne.PointEvent) {
	n := w.board.NodeAt(toPoint(e.Position))
	if n.Role != gesture.RoleElement {
		return
	}
	w.EditText(n.ElementID)
}

// EditText puts a text element in edit mode and shows the editor.
func (w *BoardWidget) EditText(id string) {
	el, ok := w.board.Element(id)
	if !ok || !w.board.BeginTextEdit(id) {
		return
	}
	if w.window == nil {
		return
	}
	entry := widget.NewMultiLineEntry()
	entry.SetText(el.Content())
	entry.Wrapping = fyne.TextWrapWord
	items := []*widget.FormItem{widget.NewFormItem("Text", entry)}
	d := dialog.NewForm("Edit text", "Save", "Cancel", items, func(ok bool) {
		if ok {
			w.board.CommitTextEdit(entry.Text)
			return
		}
		w.board.CancelTextEdit()
	}, w.window)
	d.Resize(fyne.NewSize(420, 260))
	d.Show()
}

// startEntry plays the entry animation for a newly added element.
func (w *BoardWidget) startEntry(id string) {
	if !w.board.ConsumeNewlyAdded(id) {
		return
	}
	w.mu.Lock()
	w.entering[id] = 0
	w.mu.Unlock()

	a := fyne.NewAnimation(350*time.Millisecond, func(p float32) {
		w.mu.Lock()
		if p >= 1 {
			delete(w.entering, id)
		} else {
			w.entering[id] = p
		}
		w.mu.Unlock()
		w.Refresh()
	})
	a.Curve = fyne.AnimationEaseOut
	a.Start()
}

func (w *BoardWidget) entryProgress(id string) (float32, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.entering[id]
	return p, ok
}

func (w *BoardWidget) imageFor(src string) (image.Image, bool) {
	w.mu.Lock()
	img, ok := w.images[src]
	w.mu.Unlock()
	if ok {
		return img, img != nil
	}

	img, err := decodeDataImage(src)
	if err != nil {
		log.Printf("[UI] Could not decode image: %v", err)
	}
	w.mu.Lock()
	w.images[src] = img
	w.mu.Unlock()
	return img, img != nil
}

func (w *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return newBoardRenderer(w)
}
