package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LocalCanvas/internal/board"
	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/state"
)

// Stickers offered by the sticker picker.
var Stickers = []string{"🎨", "💡", "🚀", "🌟", "🧩", "🎉", "✨", "😀", "😍", "👍", "💯", "🔥", "❤️", "✅", "⚠️"}

// FontOption is one entry of the text font picker.
type FontOption struct {
	Label string
	Value string
}

var Fonts = []FontOption{
	{"Comic Sans MS (default)", state.DefaultFontFamily},
	{"Arial", "Arial, sans-serif"},
	{"Verdana", "Verdana, sans-serif"},
	{"Georgia", "Georgia, serif"},
	{"Times New Roman", "Times New Roman, Times, serif"},
	{"Courier New", "Courier New, Courier, monospace"},
	{"Brush Script MT", "Brush Script MT, cursive"},
	{"Impact", "Impact, Charcoal, sans-serif"},
}

var textColors = []color.Color{
	color.Black,
	color.NRGBA{R: 220, G: 38, B: 38, A: 255},
	color.NRGBA{R: 22, G: 163, B: 74, A: 255},
	color.NRGBA{R: 37, G: 99, B: 235, A: 255},
	color.NRGBA{R: 234, G: 179, B: 8, A: 255},
}

var backgroundColors = []color.Color{
	color.NRGBA{R: 254, G: 243, B: 199, A: 255},
	color.NRGBA{R: 220, G: 252, B: 231, A: 255},
	color.NRGBA{R: 219, G: 234, B: 254, A: 255},
	color.NRGBA{R: 252, G: 231, B: 243, A: 255},
	color.White,
}

type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// Actions are toolbar commands that need more than the board.
type Actions struct {
	AddImage  func()
	Save      func()
	Open      func()
	ExportPDF func()
	Reload    func() // nil hides the button
}

// selectedText runs fn with the selected element when it is a text element.
func selectedText(b *board.Board, fn func(id string)) {
	el, ok := b.Element(b.SelectedID())
	if !ok || el.Type() != state.TypeText {
		return
	}
	fn(el.ID)
}

// setBackground fills the selected element, whatever its type.
func setBackground(b *board.Board, c color.Color) {
	if id := b.SelectedID(); id != "" {
		b.UpdateElement(id, state.Patch{Background: state.Ptr(hexColor(c))})
	}
}

// clearBackground makes the selected element transparent again.
func clearBackground(b *board.Board) {
	if id := b.SelectedID(); id != "" {
		b.UpdateElement(id, state.Patch{Background: state.Ptr("")})
	}
}

func NewToolbar(w *BoardWidget, actions Actions) fyne.CanvasObject {
	b := w.Board()

	items := []widget.ToolbarItem{
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			b.AddElement(state.TypeText, state.Patch{})
		}),
		widget.NewToolbarAction(theme.FileImageIcon(), func() {
			if actions.AddImage != nil {
				actions.AddImage()
			}
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			if id := b.SelectedID(); id != "" {
				b.DeleteElement(id)
			}
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() {
			b.UpdateZoom(func(z float64) float64 { return z * 1.2 })
		}),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() {
			b.UpdateZoom(func(z float64) float64 { return z / 1.2 })
		}),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() {
			b.SetZoom(1)
			b.SetPanOffset(geom.Point{})
		}),
		widget.NewToolbarAction(theme.GridIcon(), w.ToggleGrid),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			if actions.Save != nil {
				actions.Save()
			}
		}),
		widget.NewToolbarAction(theme.FolderOpenIcon(), func() {
			if actions.Open != nil {
				actions.Open()
			}
		}),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), func() {
			if actions.ExportPDF != nil {
				actions.ExportPDF()
			}
		}),
	}
	if actions.Reload != nil {
		items = append(items, widget.NewToolbarAction(theme.ViewRefreshIcon(), actions.Reload))
	}
	items = append(items, widget.NewToolbarAction(theme.ContentClearIcon(), b.ClearBoard))
	tb := widget.NewToolbar(items...)

	stickers := widget.NewSelect(Stickers, func(glyph string) {
		if glyph == "" {
			return
		}
		b.AddElement(state.TypeSticker, state.Patch{Content: &glyph})
	})
	stickers.PlaceHolder = "Sticker"

	onColorTapped := func(c color.Color) {
		selectedText(b, func(id string) {
			b.UpdateElement(id, state.Patch{TextColor: state.Ptr(hexColor(c))})
		})
	}
	colorBox := container.NewHBox()
	for _, c := range textColors {
		colorBox.Add(newColorSwatch(c, onColorTapped))
	}

	fillBox := container.NewHBox()
	for _, c := range backgroundColors {
		fillBox.Add(newColorSwatch(c, func(c color.Color) { setBackground(b, c) }))
	}
	fillBox.Add(widget.NewButtonWithIcon("", theme.ContentUndoIcon(), func() { clearBackground(b) }))

	sizeSlider := widget.NewSlider(8, 96)
	sizeSlider.SetValue(state.DefaultFontSize)
	sizeSlider.OnChangeEnded = func(v float64) {
		selectedText(b, func(id string) {
			b.UpdateElement(id, state.Patch{FontSize: &v})
		})
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), sizeSlider)

	labels := make([]string, len(Fonts))
	for i, f := range Fonts {
		labels[i] = f.Label
	}
	fonts := widget.NewSelect(labels, func(label string) {
		for _, f := range Fonts {
			if f.Label != label {
				continue
			}
			selectedText(b, func(id string) {
				b.UpdateElement(id, state.Patch{FontFamily: state.Ptr(f.Value)})
			})
		}
	})
	fonts.PlaceHolder = "Font"

	return container.NewHBox(
		tb,
		stickers,
		widget.NewSeparator(),
		widget.NewLabel("Text:"),
		colorBox,
		sliderContainer,
		fonts,
		widget.NewSeparator(),
		widget.NewLabel("Fill:"),
		fillBox,
		layout.NewSpacer(),
		w.Status(),
	)
}
