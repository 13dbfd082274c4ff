package signaling

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrInvalidName   = errors.New("invalid participant name")
	ErrNotMember     = errors.New("session is not a member of the room")
	ErrSessionClosed = errors.New("session already left")
)
