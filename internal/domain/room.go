package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrRoomNameInvalid = errors.New("room name invalid")
	// ErrRoomNameReserved is returned for the name discovery uses for the directory.
	ErrRoomNameReserved = errors.New("room name reserved")
)

// ReservedRoomName is bound to the room directory in discovery.
const ReservedRoomName = "directory"

// RoomName is the unique, immutable handle of a room in the directory and in discovery.
type RoomName string

// NewRoomName trims and validates a room name. Slashes are rejected so a name
// can always be used as a single URL path segment.
func NewRoomName(raw string) (RoomName, error) {
	name := strings.TrimSpace(raw)
	if len(name) == 0 {
		return "", ErrRoomNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLen {
		return "", ErrRoomNameTooLong
	}
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrRoomNameInvalid, name)
	}
	if name == ReservedRoomName {
		return "", ErrRoomNameReserved
	}
	return RoomName(name), nil
}

func (r RoomName) String() string { return string(r) }

// RoomState is monotonic: Active -> Closing -> Closed.
type RoomState int32

const (
	RoomActive RoomState = iota
	RoomClosing
	RoomClosed
)

func (s RoomState) String() string {
	switch s {
	case RoomActive:
		return "active"
	case RoomClosing:
		return "closing"
	case RoomClosed:
		return "closed"
	default:
		return "unknown"
	}
}
