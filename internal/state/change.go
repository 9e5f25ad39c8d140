package state

// ChangeKind classifies a board change.
type ChangeKind int

const (
	ElementAdded ChangeKind = iota
	ElementUpdated
	ElementDeleted
	SelectionChanged
	BoardReset
	ViewportChanged
	// PreviewMoved is a live drag position that has not been committed yet.
	PreviewMoved
)

func (k ChangeKind) String() string {
	switch k {
	case ElementAdded:
		return "added"
	case ElementUpdated:
		return "updated"
	case ElementDeleted:
		return "deleted"
	case SelectionChanged:
		return "selection"
	case BoardReset:
		return "reset"
	case ViewportChanged:
		return "viewport"
	case PreviewMoved:
		return "preview"
	default:
		return "unknown"
	}
}

// Change describes one observable state transition.
type Change struct {
	Kind ChangeKind
	ID   string // element id, empty for board-wide changes
}

// Committed reports whether the change belongs in persisted state.
func (c Change) Committed() bool {
	return c.Kind != PreviewMoved
}
