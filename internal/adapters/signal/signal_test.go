package signal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/dkeye/RoomChat/internal/protocol"
)

func newTestConn(buffer int) *WsSignalConn {
	return &WsSignalConn{
		sid:    "sid",
		user:   "alice",
		send:   make(chan []byte, buffer),
		joined: make(map[domain.RoomName]*roomMember),
	}
}

func TestWsSignalConn_TrySendBackpressure(t *testing.T) {
	req := require.New(t)
	c := newTestConn(1)

	req.NoError(c.TrySend([]byte("a")))
	req.ErrorIs(c.TrySend([]byte("b")), ErrBackpressure)

	c.closed = true
	req.ErrorIs(c.TrySend([]byte("c")), ErrConnClosed)
}

func TestRoomMember_DeliverWritesEventFrame(t *testing.T) {
	req := require.New(t)
	c := newTestConn(4)
	m := &roomMember{conn: c, room: core.NewRoom("lobby")}
	c.remember(m)

	// When a message is delivered
	req.NoError(m.Deliver(domain.MessageEvent("bob", "hi")))

	// Then an event frame for the room is queued
	var f protocol.Frame
	req.NoError(json.Unmarshal(<-c.send, &f))
	req.Equal(protocol.TypeEvent, f.Type)
	req.Equal(domain.RoomName("lobby"), f.Room)
	req.Equal(domain.MessageEvent("bob", "hi"), *f.Event)

	// When the room closes the socket forgets it
	req.NoError(m.Deliver(domain.RoomClosedEvent()))
	req.Empty(c.takeJoined())
	req.NoError(json.Unmarshal(<-c.send, &f))
	req.True(f.Event.IsRoomClosed())
}

func TestDisconnect_KeepsNewerEndpoint(t *testing.T) {
	req := require.New(t)
	room := core.NewRoom("lobby")
	go room.Run(t.Context())
	t.Cleanup(room.Close)

	// Given alice joined through an old socket, then again through a new one
	old, current := newTestConn(4), newTestConn(4)
	oldMember := &roomMember{conn: old, room: room}
	req.NoError(room.Join("alice", oldMember))
	old.remember(oldMember)
	currentMember := &roomMember{conn: current, room: room}
	req.NoError(room.Join("alice", currentMember))
	current.remember(currentMember)

	// When the old socket's joined rooms are left
	for _, m := range old.takeJoined() {
		left, err := m.room.LeaveMember(old.user, m)
		req.NoError(err)
		req.False(left)
	}

	// Then alice is still a member through the new socket
	req.Equal([]domain.UserName{"alice"}, room.Members())
	req.NoError(room.Send("bob", "still there?"))
	var f protocol.Frame
	req.NoError(json.Unmarshal(<-current.send, &f))
	req.Equal("still there?", f.Event.Text)
}

func TestNewSignalWSController_Defaults(t *testing.T) {
	ctl := NewSignalWSController(nil, Options{})
	require.Equal(t, 256, ctl.SendBuffer())
	require.Positive(t, ctl.pongWait())
}
