// Package state holds the authoritative collection of board elements.
package state

import (
	"sort"
	"sync"

	"LocalCanvas/internal/geom"
)

// Store is the element collection plus the current selection.
// Unknown ids passed to any method are ignored.
type Store struct {
	elements []Element // insertion order
	selected string
	mu       sync.RWMutex

	newID IDFunc
	now   func() int64

	// OnChange is called after every mutation, outside the store lock.
	OnChange func(Change)
}

// Option configures a Store.
type Option func(*Store)

// WithIDFunc replaces the UUID id generator.
func WithIDFunc(fn IDFunc) Option { return func(s *Store) { s.newID = fn } }

// WithClock replaces the placement clock (unix milliseconds).
func WithClock(fn func() int64) Option { return func(s *Store) { s.now = fn } }

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		elements: make([]Element, 0),
		newID:    NewID,
		now:      nowMillis,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add creates an element of type t centered on center (world units), merges
// p over the type defaults, puts it on top and selects it. It returns the new
// id, or "" for an unknown type.
func (s *Store) Add(t Type, center geom.Point, p Patch) string {
	g, payload, ok := defaults(t)
	if !ok {
		return ""
	}

	s.mu.Lock()
	g.X = center.X - g.Width/2
	g.Y = center.Y - g.Height/2
	el := Element{
		ID:         s.uniqueID(),
		ZIndex:     s.maxZ() + 1,
		Geometry:   g,
		Payload:    payload,
		NewlyAdded: true,
		PlacedAt:   s.now(),
	}
	el = p.applyTo(el)
	el.NewlyAdded = true
	s.elements = append(s.elements, el)
	prev := s.selected
	s.selected = el.ID
	s.mu.Unlock()

	s.emit(Change{Kind: ElementAdded, ID: el.ID})
	if prev != el.ID {
		s.emit(Change{Kind: SelectionChanged, ID: el.ID})
	}
	return el.ID
}

// Update merges p into the element with the given id.
// It reports whether anything changed.
func (s *Store) Update(id string, p Patch) bool {
	s.mu.Lock()
	i := s.find(id)
	if i < 0 || p.IsZero() {
		s.mu.Unlock()
		return false
	}
	old := s.elements[i]
	updated := p.applyTo(old)
	if updated == old {
		s.mu.Unlock()
		return false
	}
	s.elements[i] = updated
	s.mu.Unlock()

	s.emit(Change{Kind: ElementUpdated, ID: id})
	return true
}

// Delete removes the element and clears the selection if it was selected.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	i := s.find(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	deselected := s.selected == id
	if deselected {
		s.selected = ""
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ElementDeleted, ID: id})
	if deselected {
		s.emit(Change{Kind: SelectionChanged})
	}
	return true
}

// BringToFront gives the element a zIndex above every other element. An
// element that already leads strictly is left alone, except a lone element,
// which is always reassigned.
func (s *Store) BringToFront(id string) bool {
	s.mu.Lock()
	changed := s.bringToFront(id)
	s.mu.Unlock()

	if changed {
		s.emit(Change{Kind: ElementUpdated, ID: id})
	}
	return changed
}

func (s *Store) bringToFront(id string) bool {
	i := s.find(id)
	if i < 0 {
		return false
	}
	z := s.elements[i].ZIndex
	if len(s.elements) > 1 {
		leads := true
		for j, el := range s.elements {
			if j != i && el.ZIndex >= z {
				leads = false
				break
			}
		}
		if leads {
			return false
		}
	}
	s.elements[i].ZIndex = s.maxZ() + 1
	return true
}

// Select sets the selection. An empty id clears it; a known id is also
// brought to front. Unknown ids are ignored.
func (s *Store) Select(id string) {
	s.mu.Lock()
	if id != "" && s.find(id) < 0 {
		s.mu.Unlock()
		return
	}
	prev := s.selected
	s.selected = id
	fronted := id != "" && s.bringToFront(id)
	s.mu.Unlock()

	if prev != id {
		s.emit(Change{Kind: SelectionChanged, ID: id})
	}
	if fronted {
		s.emit(Change{Kind: ElementUpdated, ID: id})
	}
}

// Clear resets the store to the default single-element board with fresh ids
// and timestamps, and clears the selection.
func (s *Store) Clear() {
	s.mu.Lock()
	s.elements = []Element{welcomeElement(s.newID(), s.now())}
	s.selected = ""
	s.mu.Unlock()

	s.emit(Change{Kind: BoardReset})
}

// Replace swaps in a whole element list, as restored from a snapshot.
func (s *Store) Replace(elements []Element, selected string) {
	s.mu.Lock()
	s.elements = append(make([]Element, 0, len(elements)), elements...)
	s.selected = ""
	if selected != "" && s.find(selected) >= 0 {
		s.selected = selected
	}
	s.mu.Unlock()

	s.emit(Change{Kind: BoardReset})
}

// ConsumeNewlyAdded clears the entry-animation flag and reports whether it
// was set. The flag is transient so no change is emitted.
func (s *Store) ConsumeNewlyAdded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 || !s.elements[i].NewlyAdded {
		return false
	}
	s.elements[i].NewlyAdded = false
	return true
}

// Get returns a copy of the element with the given id.
func (s *Store) Get(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.find(id); i >= 0 {
		return s.elements[i], true
	}
	return Element{}, false
}

// Elements returns a copy of all elements in ascending zIndex order. Equal
// zIndex values keep insertion order.
func (s *Store) Elements() []Element {
	s.mu.RLock()
	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}

// Selected returns the selected id, or "" when nothing is selected.
func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Len returns the number of elements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

func (s *Store) find(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.elements {
		if s.elements[i].ID == id {
			return i
		}
	}
	return -1
}

// maxZ is the highest zIndex in the store, never below 0.
func (s *Store) maxZ() int {
	maxZ := 0
	for _, el := range s.elements {
		if el.ZIndex > maxZ {
			maxZ = el.ZIndex
		}
	}
	return maxZ
}

func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.find(id) < 0 {
			return id
		}
	}
}

func (s *Store) emit(c Change) {
	if s.OnChange != nil {
		s.OnChange(c)
	}
}
