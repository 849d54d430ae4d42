package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/dkeye/RoomChat/internal/protocol"
)

// roomMember is the member endpoint a room holds for one socket.
type roomMember struct {
	conn *WsSignalConn
	room *core.Room
}

func (m *roomMember) Deliver(ev domain.Event) error {
	if ev.IsRoomClosed() {
		m.conn.forgetMember(m)
	}
	b, err := json.Marshal(protocol.Frame{Type: protocol.TypeEvent, Room: m.room.Name(), Event: &ev})
	if err != nil {
		return err
	}
	return m.conn.TrySend(b)
}

func (ctl *SignalWSController) resolve(c *WsSignalConn, req protocol.Request) (*core.Room, bool) {
	name, err := domain.NewRoomName(string(req.Room))
	if err != nil {
		ctl.replyErr(c, req, err)
		return nil, false
	}
	room, err := ctl.Registry.ResolveRoom(name)
	if err != nil {
		log.Info().Str("module", "signal").Str("sid", string(c.sid)).Str("room", string(name)).Msg("room is not exists")
		ctl.replyErr(c, req, err)
		return nil, false
	}
	return room, true
}

func (ctl *SignalWSController) handleJoin(c *WsSignalConn, req protocol.Request) {
	room, ok := ctl.resolve(c, req)
	if !ok {
		return
	}
	m := &roomMember{conn: c, room: room}
	if err := room.Join(c.user, m); err != nil {
		ctl.replyErr(c, req, err)
		return
	}
	c.remember(m)
	log.Info().Str("module", "signal").Str("sid", string(c.sid)).Str("room", string(room.Name())).Msg("join")
	ctl.ack(c, req)
}

// handleLeave accepts a leave for a room the socket never joined, which still
// announces the user as gone to the room.
func (ctl *SignalWSController) handleLeave(c *WsSignalConn, req protocol.Request) {
	room, ok := ctl.resolve(c, req)
	if !ok {
		return
	}
	c.forget(room.Name())
	if err := room.Leave(c.user); err != nil {
		ctl.replyErr(c, req, err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(c.sid)).Str("room", string(room.Name())).Msg("leave")
	ctl.ack(c, req)
}

func (ctl *SignalWSController) handleSend(c *WsSignalConn, req protocol.Request) {
	room, ok := ctl.resolve(c, req)
	if !ok {
		return
	}
	if err := room.Send(c.user, req.Text); err != nil {
		ctl.replyErr(c, req, err)
		return
	}
	ctl.ack(c, req)
}
