package ui

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"LocalCanvas/internal/export"
	"LocalCanvas/internal/state"
	boardstore "LocalCanvas/internal/storage"
)

// ExportPDF writes elements to w as a PDF.
func ExportPDF(w io.Writer, elements []state.Element) error {
	if err := export.PDF(w, elements); err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}
	return nil
}

func (w *BoardWidget) showExportDialog() {
	d := dialog.NewFileSave(func(out fyne.URIWriteCloser, err error) {
		if err != nil || out == nil {
			return
		}
		defer out.Close()
		if err := ExportPDF(out, w.board.Elements()); err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		w.SetStatus("Exported " + out.URI().Name())
	}, w.window)
	d.SetFileName("board.pdf")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	d.Show()
}

func (w *BoardWidget) showSaveDialog() {
	d := dialog.NewFileSave(func(out fyne.URIWriteCloser, err error) {
		if err != nil || out == nil {
			return
		}
		path := out.URI().Path()
		out.Close()
		if err := boardstore.NewFileStore(path).Save(context.Background(), w.board.Snapshot()); err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		w.SetStatus("Saved " + filepath.Base(path))
	}, w.window)
	d.SetFileName("board.json")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

func (w *BoardWidget) showOpenDialog() {
	d := dialog.NewFileOpen(func(in fyne.URIReadCloser, err error) {
		if err != nil || in == nil {
			return
		}
		path := in.URI().Path()
		in.Close()
		if err := w.board.Reload(context.Background(), boardstore.NewFileStore(path)); err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		w.SetStatus("Opened " + filepath.Base(path))
	}, w.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

func (w *BoardWidget) showImageDialog() {
	d := dialog.NewFileOpen(func(in fyne.URIReadCloser, err error) {
		if err != nil || in == nil {
			return
		}
		defer in.Close()
		raw, err := io.ReadAll(in)
		if err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		if err := w.AddImage(in.URI().Name(), raw); err != nil {
			dialog.ShowError(err, w.window)
		}
	}, w.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg"}))
	d.Show()
}

// AddImage places an image element holding raw as a data URI.
func (w *BoardWidget) AddImage(name string, raw []byte) error {
	mime := "image/png"
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".png":
	default:
		return fmt.Errorf("unsupported image %q", name)
	}
	src := encodeDataImage(mime, raw)
	if _, err := decodeDataImage(src); err != nil {
		return fmt.Errorf("read image %q: %w", name, err)
	}
	hint := strings.TrimSuffix(name, filepath.Ext(name))
	id := w.board.AddElement(state.TypeImage, state.Patch{Content: &src, Hint: &hint})
	log.Printf("[UI] Added image %s as %s", name, id)
	return nil
}
