package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rajaravivarma-r/darkwire.io/internal/audit"
	"github.com/rajaravivarma-r/darkwire.io/internal/domain"
	"github.com/rajaravivarma-r/darkwire.io/internal/relay"
	"github.com/rajaravivarma-r/darkwire.io/internal/session"
	"github.com/rajaravivarma-r/darkwire.io/internal/store"
)

type Server struct {
	upgrader  websocket.Upgrader
	hub       *Hub
	store     store.RoomStore
	relay     *relay.Relay
	bookmarks *audit.Bookmarker

	pingEvery time.Duration
	readLimit int64
}

func NewServer(hub *Hub, roomStore store.RoomStore, rly *relay.Relay, bookmarks *audit.Bookmarker) *Server {
	return &Server{
		hub:       hub,
		store:     roomStore,
		relay:     rly,
		bookmarks: bookmarks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
		readLimit: 1 << 20,
	}
}

// normalizeRoomID maps the client-supplied room name to the store and
// broadcast key. The original spelling is kept as the display id.
func normalizeRoomID(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// WS endpoint: GET /ws/{room}
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "room")
	if name == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}
	roomID := normalizeRoomID(name)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}
	c := newWsConn(conn, uuid.NewString(), roomID)

	// Lock gate uses the record as of connection time. Best effort only:
	// concurrent lock changes may slip past it.
	snapshot, err := s.store.Get(r.Context(), roomID)
	if err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		slog.Error("ws admission fetch failed", "room", roomID, "conn", c.id, "err", err)
		_ = c.Close()
		return
	}

	mgr := session.New(session.Options{
		RoomID:      roomID,
		DisplayID:   name,
		Conn:        c,
		Snapshot:    snapshot,
		Store:       s.store,
		Broadcaster: s.hub,
		Bookmarks:   s.bookmarks,
	})
	if !mgr.Admitted() {
		_ = c.Close()
		return
	}

	go s.writeLoop(c)
	s.readLoop(r.Context(), c, mgr)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, mgr *session.Manager) {
	disconnected := false
	disconnect := func() {
		if disconnected {
			return
		}
		disconnected = true
		if err := mgr.HandleDisconnect(ctx); err != nil {
			slog.Error("ws disconnect cleanup failed", "room", c.roomID, "conn", c.id, "err", err)
		}
	}
	defer disconnect()

	c.conn.SetReadLimit(s.readLimit)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case session.EventEnter:
			var p EnterPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				continue
			}
			if err := mgr.HandleEnter(ctx, p.PublicKey); err != nil {
				slog.Error("ws enter failed", "room", c.roomID, "conn", c.id, "err", err)
			}

		case session.EventToggleLockRoom:
			locked, err := mgr.HandleToggleLock(ctx)
			if err != nil {
				slog.Error("ws lock toggle failed", "room", c.roomID, "conn", c.id, "err", err)
				continue
			}
			_ = c.emitAck(session.EventToggleLockRoom, msg.AckID, LockAck{IsLocked: locked})

		case session.EventEncryptedMessage:
			// Runs detached: the rewrite may fetch over the network, and a
			// disconnect must not cancel an in-flight fetch. The relay itself
			// bounds the fetch with a timeout.
			payload := msg.Payload
			go func() {
				out := s.relay.Process(context.WithoutCancel(ctx), payload)
				s.hub.ToOthers(c, c.roomID, session.EventEncryptedMessage, out)
			}()

		case session.EventUserDisconnect:
			disconnect()
			return

		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}
