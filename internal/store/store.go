// Package store persists room records. The store is the only shared state in
// the system: every mutation is a full fetch-modify-overwrite of the JSON
// record, so any backend with get/set/delete semantics works.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rajaravivarma-r/darkwire.io/internal/domain"
)

type RoomStore interface {
	// Get returns the record for the room id, domain.ErrRoomNotFound when no
	// record exists, or domain.ErrCorruptRecord when a record exists but does
	// not decode into a valid room.
	Get(ctx context.Context, roomID string) (*domain.Room, error)
	// Set overwrites the record for room.ID.
	Set(ctx context.Context, room *domain.Room) error
	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, roomID string) error
}

func encodeRecord(room *domain.Room) ([]byte, error) {
	b, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("encode room %q: %w", room.ID, err)
	}
	return b, nil
}

func decodeRecord(b []byte) (*domain.Room, error) {
	var r domain.Room
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptRecord, err)
	}
	if r.ID == "" {
		return nil, fmt.Errorf("%w: empty record", domain.ErrCorruptRecord)
	}
	if r.Users == nil {
		r.Users = []domain.User{}
	}
	return &r, nil
}
