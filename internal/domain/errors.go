package domain

import "errors"

var (
	// ErrRoomNotFound means the store has no record for the room id.
	ErrRoomNotFound = errors.New("room not found")

	// ErrCorruptRecord means the store returned a record that cannot be
	// decoded into a valid room (empty or malformed). Distinct from
	// ErrRoomNotFound: callers must not treat it as "room never existed".
	ErrCorruptRecord = errors.New("room record corrupt")
)
