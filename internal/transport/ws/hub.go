package ws

import (
	"sync"

	"github.com/rajaravivarma-r/darkwire.io/internal/session"
)

// Hub associates live connections with room ids and fans events out to them.
// Sends are best effort: a failed delivery to a departed connection is
// ignored, never fatal.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[session.Conn]struct{} // roomID -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[session.Conn]struct{})}
}

func (h *Hub) Join(c session.Conn, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[session.Conn]struct{})
		h.rooms[roomID] = rs
	}
	rs[c] = struct{}{}
}

func (h *Hub) Leave(c session.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[c.RoomID()]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, c.RoomID())
		}
	}
}

// ToRoom emits to every connection in the room, sender included.
func (h *Hub) ToRoom(roomID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[roomID]; ok {
		for c := range rs {
			_ = c.Emit(event, payload) // best-effort
		}
	}
}

// ToOthers emits to every connection in the room except the sender.
func (h *Hub) ToOthers(sender session.Conn, roomID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[roomID]; ok {
		for c := range rs {
			if c == sender {
				continue
			}
			_ = c.Emit(event, payload) // best-effort
		}
	}
}
