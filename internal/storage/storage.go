// Package storage persists board snapshots.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"

	"LocalCanvas/internal/state"
)

// Store loads and saves whole board snapshots. Load returns nil, nil when
// nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (*state.Snapshot, error)
	Save(ctx context.Context, s *state.Snapshot) error
}

func decode(data []byte) (*state.Snapshot, error) {
	s := &state.Snapshot{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// MemoryStore keeps the encoded snapshot in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemoryStore) Load(context.Context) (*state.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return decode(m.data)
}

func (m *MemoryStore) Save(_ context.Context, s *state.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// PrefsKey is the preferences key the board is stored under.
const PrefsKey = "canvasly-board-state"

// PrefsStore keeps the board in the application's preferences, the
// desktop counterpart of browser local storage.
type PrefsStore struct {
	prefs fyne.Preferences
}

func NewPrefsStore(p fyne.Preferences) *PrefsStore {
	return &PrefsStore{prefs: p}
}

func (p *PrefsStore) Load(context.Context) (*state.Snapshot, error) {
	raw := p.prefs.String(PrefsKey)
	if raw == "" {
		return nil, nil
	}
	s, err := decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("read board from preferences: %w", err)
	}
	return s, nil
}

func (p *PrefsStore) Save(_ context.Context, s *state.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	p.prefs.SetString(PrefsKey, string(data))
	return nil
}

// Clear drops the stored board.
func (p *PrefsStore) Clear() {
	p.prefs.RemoveValue(PrefsKey)
}
