package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LocalCanvas/internal/state"
)

// Source is the board being mirrored.
type Source interface {
	Snapshot() *state.Snapshot
	Subscribe(fn func(state.Change)) (cancel func())
}

// Message is what viewers receive over the websocket.
type Message struct {
	Type  string          `json:"type"` // "snapshot"
	Board *state.Snapshot `json:"board,omitempty"`
}

const (
	sendBuffer   = 8
	writeTimeout = 5 * time.Second
)

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub serves a read-only view of the board: the current snapshot over
// HTTP and a stream of snapshots over a websocket.
type Hub struct {
	src      Source
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	viewers map[*viewer]bool
	mu      sync.RWMutex
}

// NewHub creates a hub for src. Call Start to begin streaming changes.
func NewHub(src Source) *Hub {
	h := &Hub{
		src:     src,
		viewers: make(map[*viewer]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	h.mux.HandleFunc("/snapshot", h.serveSnapshot)
	h.mux.HandleFunc("/ws", h.serveWS)
	return h
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Start broadcasts a fresh snapshot once committed board changes have been
// quiet for delay, so a burst of edits costs viewers a single message. The
// returned func stops it and sends anything still pending.
func (h *Hub) Start(delay time.Duration) (stop func()) {
	dirty := make(chan struct{}, 1)
	quit := make(chan struct{})
	done := make(chan struct{})

	unsubscribe := h.src.Subscribe(func(c state.Change) {
		if !c.Committed() {
			return
		}
		select {
		case dirty <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(done)
		var due <-chan time.Time
		for {
			select {
			case <-dirty:
				due = time.After(delay)
			case <-due:
				due = nil
				h.push()
			case <-quit:
				if due != nil {
					h.push()
				}
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			close(quit)
			<-done
		})
	}
}

func (h *Hub) push() {
	data, err := h.encode()
	if err != nil {
		log.Printf("[MIRROR] Encode failed: %v", err)
		return
	}
	h.Broadcast(data)
}

func (h *Hub) encode() ([]byte, error) {
	return json.Marshal(Message{Type: "snapshot", Board: h.src.Snapshot()})
}

// Broadcast queues data for every viewer. Viewers that are too far behind
// are dropped.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		select {
		case v.send <- data:
		default:
			log.Printf("[MIRROR] Dropping slow viewer %s", v.conn.RemoteAddr())
			h.remove(v)
		}
	}
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		h.remove(v)
	}
}

func (h *Hub) add(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewers[v] = true
	log.Printf("[MIRROR] Viewer connected: %s", v.conn.RemoteAddr())
}

// remove must be called with h.mu held.
func (h *Hub) remove(v *viewer) {
	if !h.viewers[v] {
		return
	}
	delete(h.viewers, v)
	close(v.send)
	log.Printf("[MIRROR] Viewer left: %s", v.conn.RemoteAddr())
}

func (h *Hub) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.src.Snapshot()); err != nil {
		log.Printf("[MIRROR] Snapshot write failed: %v", err)
	}
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[MIRROR] Upgrade failed: %v", err)
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}
	if data, err := h.encode(); err == nil {
		v.send <- data
	}
	h.add(v)

	go h.writeLoop(v)
	h.readLoop(v)
}

// readLoop discards anything viewers send and notices when they leave.
func (h *Hub) readLoop(v *viewer) {
	defer func() {
		h.mu.Lock()
		h.remove(v)
		h.mu.Unlock()
	}()
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(v *viewer) {
	defer v.conn.Close()
	for data := range v.send {
		v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[MIRROR] Write to %s failed: %v", v.conn.RemoteAddr(), err)
			return
		}
	}
	v.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

// Serve runs the hub on port until ctx is done.
func Serve(ctx context.Context, port int, h http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[MIRROR] Listening on port %d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mirror server: %w", err)
	}
	return nil
}
