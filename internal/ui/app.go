package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	"LocalCanvas/internal/board"
	"LocalCanvas/internal/textfit"
)

// Options configure the main window.
type Options struct {
	Title    string
	Board    *board.Board
	Capture  *PointerCapture
	Measurer *textfit.Measurer
	Reload   func()
	Status   string
	OnClose  func()
}

// NewMainWindow builds the board window without showing it.
func NewMainWindow(a fyne.App, o Options) (fyne.Window, *BoardWidget) {
	title := o.Title
	if title == "" {
		title = "LocalCanvas"
	}
	win := a.NewWindow(title)
	win.Resize(fyne.NewSize(1200, 800))

	bw := NewBoardWidget(o.Board, o.Capture, o.Measurer)
	bw.SetWindow(win)
	if o.Status != "" {
		bw.status.SetText(o.Status)
	}

	toolbar := NewToolbar(bw, Actions{
		AddImage:  bw.showImageDialog,
		Save:      bw.showSaveDialog,
		Open:      bw.showOpenDialog,
		ExportPDF: bw.showExportDialog,
		Reload:    o.Reload,
	})
	win.SetContent(container.NewBorder(toolbar, nil, nil, nil, bw))

	win.SetOnClosed(func() {
		bw.Detach()
		if o.OnClose != nil {
			o.OnClose()
		}
	})
	return win, bw
}

func RunApp(a fyne.App, o Options) {
	win, _ := NewMainWindow(a, o)
	win.ShowAndRun()
}
