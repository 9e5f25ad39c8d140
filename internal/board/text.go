package board

import (
	"log"

	"LocalCanvas/internal/gesture"
	"LocalCanvas/internal/state"
)

// BeginTextEdit puts a text element into edit mode. While editing, the
// element cannot be dragged or resized and is not auto-grown.
func (b *Board) BeginTextEdit(id string) bool {
	var ok bool
	b.do(func() {
		if kind, _ := b.ctl.Active(); kind != gesture.Idle {
			return
		}
		el, found := b.store.Get(id)
		if !found || el.Type() != state.TypeText {
			return
		}
		if b.editing != "" && b.editing != id {
			b.commitTextEdit()
		}
		b.store.Select(id)
		b.editing = id
		ok = true
	})
	return ok
}

// EditingID returns the element in edit mode, or "".
func (b *Board) EditingID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.editing
}

// CommitTextEdit stores content as the edited element's text and leaves
// edit mode.
func (b *Board) CommitTextEdit(content string) {
	b.do(func() {
		if b.editing == "" {
			return
		}
		b.store.Update(b.editing, state.Patch{Content: &content})
		b.commitTextEdit()
	})
}

// CancelTextEdit leaves edit mode without changing the text.
func (b *Board) CancelTextEdit() {
	b.do(func() { b.editing = "" })
}

// commitTextEdit leaves edit mode and re-fits the element.
func (b *Board) commitTextEdit() {
	id := b.editing
	b.editing = ""
	b.fitText(id)
}

// FitText grows a text element's height to fit its wrapped content. It
// never shrinks, and does nothing while the element is being edited or
// resized. It reports whether the height changed.
func (b *Board) FitText(id string) bool {
	var grown bool
	b.do(func() { grown = b.fitText(id) })
	return grown
}

func (b *Board) fitText(id string) bool {
	if b.measurer == nil || id == "" || id == b.editing {
		return false
	}
	if kind, active := b.ctl.Active(); kind == gesture.Resizing && active == id {
		return false
	}
	el, ok := b.store.Get(id)
	if !ok {
		return false
	}
	txt, ok := el.Text()
	if !ok {
		return false
	}
	size := txt.FontSize
	if size <= 0 {
		size = state.DefaultFontSize
	}
	h, err := b.measurer.Height(txt.Body, el.Width, size)
	if err != nil {
		log.Printf("[BOARD] Could not measure text of %s: %v", id, err)
		return false
	}
	if h <= el.Height {
		return false
	}
	return b.store.Update(id, state.Patch{Height: &h})
}
