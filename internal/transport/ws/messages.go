package ws

import "encoding/json"

// Message is the JSON frame exchanged over the websocket. AckID carries the
// request/response correlation for events answered point-to-point (the
// socket.io callback channel has no direct websocket equivalent).
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	AckID   string          `json:"ackId,omitempty"`
}

// EnterPayload is the body of an inbound ENTER event.
type EnterPayload struct {
	PublicKey json.RawMessage `json:"publicKey"`
}

// LockAck answers a TOGGLE_LOCK_ROOM request; it always reports the state the
// room ended up in, which for non-owners is the unchanged one.
type LockAck struct {
	IsLocked bool `json:"isLocked"`
}
