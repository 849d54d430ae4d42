package domain

import "errors"

var (
	// ErrNameResolution means discovery has nothing bound under the requested name,
	// e.g. a stale or already closed room.
	ErrNameResolution = errors.New("name not found")
	// ErrDuplicateName is returned when a room or endpoint name is already live.
	ErrDuplicateName = errors.New("name already in use")
	// ErrMembershipAbsent names a user that is not a member of the room.
	// Leave and Send accept absent users, so rooms never return it.
	ErrMembershipAbsent = errors.New("user is not a room member")
	// ErrTransport wraps failures of the discovery or remote-call layer itself.
	ErrTransport = errors.New("transport failure")
	// ErrRoomClosed is returned by operations on a room that is closing or closed.
	ErrRoomClosed = errors.New("room closed")
	// ErrNotJoined reports that a session has no current room.
	ErrNotJoined = errors.New("not joined to a room")
)
