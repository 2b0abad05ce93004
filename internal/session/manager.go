// Package session owns the per-connection room state machine: admission
// against the lock flag, joins, lock toggles, and disconnect unwinding. All
// room state lives in the external store; every operation is a fetch-modify-
// overwrite cycle with no in-process lock around the record.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rajaravivarma-r/darkwire.io/internal/audit"
	"github.com/rajaravivarma-r/darkwire.io/internal/domain"
	"github.com/rajaravivarma-r/darkwire.io/internal/store"
)

// Conn is one client connection as the session layer sees it.
type Conn interface {
	ID() string
	RoomID() string
	Emit(event string, payload any) error
	Close() error
}

// Broadcaster fans events out to the connections of a room.
type Broadcaster interface {
	Join(c Conn, roomID string)
	Leave(c Conn)
	ToRoom(roomID, event string, payload any)
	ToOthers(sender Conn, roomID, event string, payload any)
}

// LockNotice is broadcast to non-requesters when the owner toggles the lock.
type LockNotice struct {
	Locked    bool            `json:"locked"`
	PublicKey json.RawMessage `json:"publicKey"`
}

type Options struct {
	RoomID    string // normalized id: store and broadcast key
	DisplayID string // the spelling the client used, echoed in USER_ENTER

	Conn        Conn
	Snapshot    *domain.Room // record known at connection time, nil if none
	Store       store.RoomStore
	Broadcaster Broadcaster
	Bookmarks   *audit.Bookmarker
	Now         func() time.Time
}

// Manager is bound to exactly one connection for its lifetime.
type Manager struct {
	roomID    string
	displayID string
	conn      Conn
	store     store.RoomStore
	bc        Broadcaster
	bookmarks *audit.Bookmarker
	now       func() time.Time
	admitted  bool
}

// New gates the connection on the construction-time snapshot: a locked room
// gets ROOM_LOCKED and is never joined to the broadcast group. The check is
// best effort; the room may lock or unlock between snapshot and ENTER.
func New(opts Options) *Manager {
	m := &Manager{
		roomID:    opts.RoomID,
		displayID: opts.DisplayID,
		conn:      opts.Conn,
		store:     opts.Store,
		bc:        opts.Broadcaster,
		bookmarks: opts.Bookmarks,
		now:       opts.Now,
	}
	if m.now == nil {
		m.now = time.Now
	}

	if opts.Snapshot != nil && opts.Snapshot.IsLocked {
		_ = m.conn.Emit(EventRoomLocked, nil)
		return m
	}
	m.admitted = true
	m.bc.Join(m.conn, m.roomID)
	return m
}

// Admitted reports whether the connection passed the lock gate.
func (m *Manager) Admitted() bool {
	return m.admitted
}

// HandleEnter adds the connection to the room record, creating the record on
// first join, and broadcasts the full updated room under the display id.
func (m *Manager) HandleEnter(ctx context.Context, publicKey json.RawMessage) error {
	go m.bookmarks.Record(context.WithoutCancel(ctx), m.roomID, m.now())

	room, err := m.store.Get(ctx, m.roomID)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		room = domain.NewRoom(m.roomID, m.now().UnixMilli())
	case err != nil:
		return fmt.Errorf("fetch room %q: %w", m.roomID, err)
	}

	room.AddUser(m.conn.ID(), publicKey)
	room.UpdatedAt = m.now().UnixMilli()
	if err := m.store.Set(ctx, room); err != nil {
		return fmt.Errorf("save room %q: %w", m.roomID, err)
	}

	display := *room
	display.ID = m.displayID
	m.bc.ToRoom(m.roomID, EventUserEnter, &display)
	return nil
}

// HandleToggleLock flips the lock if the requester owns the room and returns
// the resulting state. A non-owner request changes nothing and gets the
// current state back; that is the truthful negative response, not an error.
func (m *Manager) HandleToggleLock(ctx context.Context) (bool, error) {
	room, err := m.store.Get(ctx, m.roomID)
	if err != nil {
		return false, fmt.Errorf("fetch room %q: %w", m.roomID, err)
	}

	owner, ok := room.Owner(m.conn.ID())
	if !ok {
		return room.IsLocked, nil
	}

	room.IsLocked = !room.IsLocked
	room.UpdatedAt = m.now().UnixMilli()
	if err := m.store.Set(ctx, room); err != nil {
		return false, fmt.Errorf("save room %q: %w", m.roomID, err)
	}

	m.bc.ToOthers(m.conn, m.roomID, EventToggleLockRoom, LockNotice{
		Locked:    room.IsLocked,
		PublicKey: owner.PublicKey,
	})
	return room.IsLocked, nil
}

// HandleDisconnect removes the connection's user from the record, reassigns
// ownership to the new head of the list, broadcasts USER_EXIT, deletes the
// record when the room empties, and finally force-closes the connection.
// Closing happens on every path, including errors.
func (m *Manager) HandleDisconnect(ctx context.Context) error {
	defer func() {
		m.bc.Leave(m.conn)
		_ = m.conn.Close()
	}()

	if !m.admitted {
		return nil
	}

	room, err := m.store.Get(ctx, m.roomID)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return nil // nothing to unwind
	case err != nil:
		// Covers ErrCorruptRecord too: never rebuild membership from a record
		// we cannot trust.
		return fmt.Errorf("fetch room %q: %w", m.roomID, err)
	}

	room.RemoveUser(m.conn.ID())
	room.UpdatedAt = m.now().UnixMilli()
	if err := m.store.Set(ctx, room); err != nil {
		return fmt.Errorf("save room %q: %w", m.roomID, err)
	}

	m.bc.ToRoom(m.roomID, EventUserExit, room.Users)

	if room.Empty() {
		if err := m.store.Delete(ctx, m.roomID); err != nil {
			return fmt.Errorf("destroy room %q: %w", m.roomID, err)
		}
	}
	return nil
}
