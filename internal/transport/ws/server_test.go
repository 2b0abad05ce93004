package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rajaravivarma-r/darkwire.io/internal/audit"
	"github.com/rajaravivarma-r/darkwire.io/internal/domain"
	"github.com/rajaravivarma-r/darkwire.io/internal/relay"
	"github.com/rajaravivarma-r/darkwire.io/internal/session"
	"github.com/rajaravivarma-r/darkwire.io/internal/store"
)

type noFetch struct{}

func (noFetch) Fetch(context.Context, string) ([]byte, error) {
	return nil, errors.New("no network in tests")
}

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	srv := NewServer(NewHub(), st, relay.New(noFetch{}, time.Second), audit.New(""))

	r := chi.NewRouter()
	r.Get("/ws/{room}", srv.HandleWS)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, st
}

func dial(t *testing.T, ts *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("send %s: %v", msg.Type, err)
	}
}

// waitFor reads frames until one of the wanted type arrives.
func waitFor(t *testing.T, conn *websocket.Conn, event string) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if msg.Type == event {
			return msg
		}
	}
}

func enter(t *testing.T, conn *websocket.Conn, key string) {
	t.Helper()
	send(t, conn, Message{
		Type:    session.EventEnter,
		Payload: json.RawMessage(`{"publicKey":{"n":"` + key + `"}}`),
	})
}

func TestEnterBroadcastsRoomWithDisplayID(t *testing.T) {
	ts, st := newTestServer(t)
	conn := dial(t, ts, "Lobby")

	enter(t, conn, "a")
	msg := waitFor(t, conn, session.EventUserEnter)

	var room domain.Room
	if err := json.Unmarshal(msg.Payload, &room); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if room.ID != "Lobby" {
		t.Fatalf("USER_ENTER must carry the original spelling, got %q", room.ID)
	}
	if len(room.Users) != 1 || !room.Users[0].IsOwner {
		t.Fatalf("expected a single owning member, got %+v", room.Users)
	}

	// the record is keyed by the normalized id
	stored, err := st.Get(context.Background(), "lobby")
	if err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if stored.ID != "lobby" {
		t.Fatalf("store key/id must be normalized, got %q", stored.ID)
	}
}

func TestLockToggleAckAndLockedAdmission(t *testing.T) {
	ts, _ := newTestServer(t)
	owner := dial(t, ts, "lobby")
	enter(t, owner, "a")
	waitFor(t, owner, session.EventUserEnter)

	send(t, owner, Message{Type: session.EventToggleLockRoom, AckID: "42"})
	ack := waitFor(t, owner, session.EventToggleLockRoom)
	if ack.AckID != "42" {
		t.Fatalf("ack correlation lost: %+v", ack)
	}
	var resp LockAck
	if err := json.Unmarshal(ack.Payload, &resp); err != nil || !resp.IsLocked {
		t.Fatalf("owner toggle must report locked=true, got %s err=%v", ack.Payload, err)
	}

	// a newcomer is now turned away before joining the room
	late := dial(t, ts, "lobby")
	msg := waitFor(t, late, session.EventRoomLocked)
	if msg.Type != session.EventRoomLocked {
		t.Fatalf("expected ROOM_LOCKED, got %+v", msg)
	}
}

func TestEncryptedMessageRelayedToPeersOnly(t *testing.T) {
	ts, _ := newTestServer(t)
	c1 := dial(t, ts, "lobby")
	enter(t, c1, "a")
	waitFor(t, c1, session.EventUserEnter)

	c2 := dial(t, ts, "lobby")
	enter(t, c2, "b")
	waitFor(t, c2, session.EventUserEnter)

	send(t, c1, Message{
		Type:    session.EventEncryptedMessage,
		Payload: json.RawMessage(`{"payload":"hello"}`),
	})

	got := waitFor(t, c2, session.EventEncryptedMessage)
	var inner struct {
		Payload string `json:"payload"`
	}
	if err := json.Unmarshal(got.Payload, &inner); err != nil || inner.Payload != "hello" {
		t.Fatalf("relayed payload mismatch: %s err=%v", got.Payload, err)
	}
}

func TestDisconnectBroadcastsExitAndDestroysEmptyRoom(t *testing.T) {
	ts, st := newTestServer(t)
	c1 := dial(t, ts, "lobby")
	enter(t, c1, "a")
	waitFor(t, c1, session.EventUserEnter)

	c2 := dial(t, ts, "lobby")
	enter(t, c2, "b")
	waitFor(t, c1, session.EventUserEnter)

	send(t, c2, Message{Type: session.EventUserDisconnect})
	exit := waitFor(t, c1, session.EventUserExit)

	var users []domain.User
	if err := json.Unmarshal(exit.Payload, &users); err != nil {
		t.Fatalf("USER_EXIT payload: %v", err)
	}
	if len(users) != 1 || !users[0].IsOwner {
		t.Fatalf("survivor must own the room, got %+v", users)
	}

	_ = c1.Close()
	deadline := time.Now().Add(3 * time.Second)
	for {
		_, err := st.Get(context.Background(), "lobby")
		if errors.Is(err, domain.ErrRoomNotFound) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("room record should be destroyed after the last exit, got %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
