//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_core.go -package=mocks
package core

import "github.com/dkeye/RoomChat/internal/domain"

// Member is the callback a room uses to push events to a joined participant.
// The room never owns the participant; it only calls Deliver.
// Deliver must not call Close on the delivering room.
type Member interface {
	Deliver(ev domain.Event) error
}

// MemberFunc adapts a plain function to Member.
type MemberFunc func(ev domain.Event) error

func (f MemberFunc) Deliver(ev domain.Event) error { return f(ev) }

// Endpoint is whatever discovery publishes under a name (a room, the directory).
type Endpoint any

// Publisher is the server-side half of discovery.
type Publisher interface {
	Publish(name string, ep Endpoint) error
	Withdraw(name string) error
}

// RoomInfo is a read-only view for listings.
type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}
