//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_client.go -package=mocks
package client

import (
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
)

// Room is what a session needs from a room endpoint. *core.Room satisfies it
// in-process, *RemoteRoom over the network.
type Room interface {
	Name() domain.RoomName
	Join(user domain.UserName, m core.Member) error
	Leave(user domain.UserName) error
	Send(user domain.UserName, text string) error
}

// Presenter receives everything the session wants to show. Calls are made in
// delivery order and never while the session holds a lock.
type Presenter interface {
	Message(room domain.RoomName, ev domain.Event)
	RoomClosed(room domain.RoomName)
	RoomChanged(room domain.RoomName)
	RoomsChanged(rooms []domain.RoomName)
}

// Session is the client side of the room protocol: it is joined to at most
// one room and reacts to the server closing that room.
type Session struct {
	user      domain.UserName
	presenter Presenter

	// opMu serializes join, leave and post. It is never taken by delivery,
	// so a transport can deliver while a call is waiting for its reply.
	opMu sync.Mutex

	mu            sync.Mutex
	current       Room
	pending       domain.RoomName
	pendingClosed bool
	rooms         []domain.RoomName
}

func NewSession(user domain.UserName, presenter Presenter) *Session {
	return &Session{user: user, presenter: presenter}
}

func (s *Session) User() domain.UserName { return s.user }

// CurrentRoom reports the joined room, if any.
func (s *Session) CurrentRoom() (domain.RoomName, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return "", false
	}
	return s.current.Name(), true
}

// Rooms is the last known room listing.
func (s *Session) Rooms() []domain.RoomName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rooms)
}

func (s *Session) SetRooms(rooms []domain.RoomName) {
	s.mu.Lock()
	s.rooms = slices.Clone(rooms)
	s.mu.Unlock()
	s.presenter.RoomsChanged(slices.Clone(rooms))
}

// JoinRoom leaves the current room first, then joins room.
// On failure the session has no room.
func (s *Session) JoinRoom(room Room) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.leaveLocked(); err != nil {
		return err
	}

	name := room.Name()
	s.mu.Lock()
	s.pending, s.pendingClosed = name, false
	s.mu.Unlock()

	err := room.Join(s.user, s.MemberFor(name))

	s.mu.Lock()
	closedEarly := s.pendingClosed
	s.pending, s.pendingClosed = "", false
	if err == nil && !closedEarly {
		s.current = room
	}
	s.mu.Unlock()

	switch {
	case err != nil:
		log.Warn().Err(err).Str("module", "client").Str("room", string(name)).Msg("join failed")
		return err
	case closedEarly:
		return domain.ErrRoomClosed
	}
	log.Info().Str("module", "client").Str("room", string(name)).Str("user", string(s.user)).Msg("joined")
	s.presenter.RoomChanged(name)
	return nil
}

// PostMessage sends text to the current room. Without a room it only logs.
func (s *Session) PostMessage(text string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	room := s.current
	s.mu.Unlock()
	if room == nil {
		log.Warn().Str("module", "client").Str("user", string(s.user)).Msg("post ignored: not joined to a room")
		return nil
	}
	return room.Send(s.user, text)
}

// LeaveCurrentRoom leaves and forgets the current room. The room is forgotten
// even if the leave call fails.
func (s *Session) LeaveCurrentRoom() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.leaveLocked()
}

func (s *Session) leaveLocked() error {
	s.mu.Lock()
	room := s.current
	s.current = nil
	s.mu.Unlock()
	if room == nil {
		return nil
	}

	err := room.Leave(s.user)
	s.presenter.RoomChanged("")
	if errors.Is(err, domain.ErrRoomClosed) || errors.Is(err, domain.ErrNameResolution) {
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "client").Str("room", string(room.Name())).Msg("leave failed")
	}
	return err
}

// Deliver is the member callback for the current room.
func (s *Session) Deliver(ev domain.Event) error {
	name, ok := s.CurrentRoom()
	if !ok {
		return nil
	}
	return s.deliver(name, ev)
}

// MemberFor returns the member callback handed to room at join time.
func (s *Session) MemberFor(room domain.RoomName) core.Member {
	return core.MemberFunc(func(ev domain.Event) error { return s.deliver(room, ev) })
}

func (s *Session) deliver(room domain.RoomName, ev domain.Event) error {
	if ev.IsRoomClosed() {
		s.roomClosed(room)
		return nil
	}
	s.mu.Lock()
	active := s.pending == room || (s.current != nil && s.current.Name() == room)
	s.mu.Unlock()
	if !active {
		log.Debug().Str("module", "client").Str("room", string(room)).Msg("event for a room no longer joined")
		return nil
	}
	s.presenter.Message(room, ev)
	return nil
}

func (s *Session) roomClosed(room domain.RoomName) {
	s.mu.Lock()
	switch {
	case s.current != nil && s.current.Name() == room:
		s.current = nil
	case s.pending == room:
		s.pendingClosed = true
	default:
		s.mu.Unlock()
		return
	}
	s.rooms = slices.DeleteFunc(s.rooms, func(n domain.RoomName) bool { return n == room })
	rooms := slices.Clone(s.rooms)
	s.mu.Unlock()

	log.Info().Str("module", "client").Str("room", string(room)).Msg("room closed by server")
	s.presenter.RoomClosed(room)
	s.presenter.RoomChanged("")
	s.presenter.RoomsChanged(rooms)
}
