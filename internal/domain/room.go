package domain

import "encoding/json"

// User is one member of a room. PublicKey is opaque to the server: the client
// sends a JWK-shaped object and peers correlate identity on it, so it is stored
// and echoed verbatim, never parsed.
type User struct {
	ConnectionID string          `json:"connectionId"`
	PublicKey    json.RawMessage `json:"publicKey"`
	IsOwner      bool            `json:"isOwner"`
}

// Room is the persisted room record. Users keeps join order; the member at
// index 0 is the owner. IsOwner is derived from position and rewritten on
// every membership change, never set independently.
type Room struct {
	ID        string `json:"id"`
	Users     []User `json:"users"`
	IsLocked  bool   `json:"isLocked"`
	CreatedAt int64  `json:"createdAt"` // epoch millis
	UpdatedAt int64  `json:"updatedAt"` // epoch millis
}

func NewRoom(id string, now int64) *Room {
	return &Room{
		ID:        id,
		Users:     []User{},
		CreatedAt: now,
	}
}

// AddUser appends a member. The first member of a room becomes its owner.
func (r *Room) AddUser(connectionID string, publicKey json.RawMessage) {
	r.Users = append(r.Users, User{
		ConnectionID: connectionID,
		PublicKey:    publicKey,
		IsOwner:      len(r.Users) == 0,
	})
}

// RemoveUser drops the member with the given connection id, if present, and
// recomputes ownership over the survivors. Removing an absent member leaves
// the membership unchanged apart from the ownership rewrite.
func (r *Room) RemoveUser(connectionID string) {
	kept := make([]User, 0, len(r.Users))
	for _, u := range r.Users {
		if u.ConnectionID != connectionID {
			kept = append(kept, u)
		}
	}
	r.Users = kept
	r.recomputeOwnership()
}

// recomputeOwnership rewrites IsOwner on every member: whoever is first in
// join-survivorship order owns the room.
func (r *Room) recomputeOwnership() {
	for i := range r.Users {
		r.Users[i].IsOwner = i == 0
	}
}

// Owner returns the member with the given connection id iff it currently owns
// the room.
func (r *Room) Owner(connectionID string) (User, bool) {
	for _, u := range r.Users {
		if u.ConnectionID == connectionID && u.IsOwner {
			return u, true
		}
	}
	return User{}, false
}

func (r *Room) Empty() bool {
	return len(r.Users) == 0
}
