package session

// Wire-level event identifiers shared with the javascript client. Protocol
// constants; do not rename.
const (
	// inbound
	EventEnter            = "ENTER"
	EventToggleLockRoom   = "TOGGLE_LOCK_ROOM" // also emitted to non-requesters
	EventEncryptedMessage = "ENCRYPTED_MESSAGE"
	EventUserDisconnect   = "USER_DISCONNECT"

	// outbound
	EventRoomLocked = "ROOM_LOCKED"
	EventUserEnter  = "USER_ENTER"
	EventUserExit   = "USER_EXIT"
)
