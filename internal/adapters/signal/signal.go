package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/RoomChat/internal/app"
	"github.com/dkeye/RoomChat/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type SessionID string

// Options tunes every connection served by a controller.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

// SignalWSController serves the room channel: room calls come in as
// protocol.Request frames, replies and room events go out on the same socket.
type SignalWSController struct {
	Registry *app.Registry
	opts     Options
}

func NewSignalWSController(reg *app.Registry, opts Options) *SignalWSController {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	return &SignalWSController{Registry: reg, opts: opts}
}

// WsSignalConn is one client socket. It is the member endpoint for every room
// the client joined through it.
type WsSignalConn struct {
	sid  SessionID
	user domain.UserName
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
	joined map[domain.RoomName]*roomMember
}

func (c *WsSignalConn) TrySend(f []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (c *WsSignalConn) remember(m *roomMember) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joined[m.room.Name()] = m
}

func (c *WsSignalConn) forget(name domain.RoomName) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.joined, name)
}

// forgetMember drops m only if it is still the member held for its room.
func (c *WsSignalConn) forgetMember(m *roomMember) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.joined[m.room.Name()] == m {
		delete(c.joined, m.room.Name())
	}
}

// takeJoined empties and returns the joined set.
func (c *WsSignalConn) takeJoined() []*roomMember {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*roomMember, 0, len(c.joined))
	for name, m := range c.joined {
		out = append(out, m)
		delete(c.joined, name)
	}
	return out
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and serves it until the client goes away
// or ctx is done. sid and user must already be resolved by the router.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, sid SessionID, user domain.UserName) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("user", string(user)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.opts.ReadLimit)

	conn := &WsSignalConn{
		sid:    sid,
		user:   user,
		conn:   ws,
		send:   make(chan []byte, ctl.opts.SendBuffer),
		joined: make(map[domain.RoomName]*roomMember),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go ctl.writePump(ctx, conn)
	ctl.readPump(ctx, conn)
	ctl.disconnect(conn)
}

// disconnect leaves every room the socket still belongs to. A room where the
// user has since joined through another socket is left alone.
func (ctl *SignalWSController) disconnect(c *WsSignalConn) {
	for _, m := range c.takeJoined() {
		if _, err := m.room.LeaveMember(c.user, m); err != nil && !errors.Is(err, domain.ErrRoomClosed) {
			log.Warn().Err(err).Str("module", "signal").Str("room", string(m.room.Name())).Msg("leave on disconnect")
		}
	}
	c.Close()
	log.Info().Str("module", "signal").Str("sid", string(c.sid)).Msg("disconnected")
}

// SendBuffer is the per-connection outbound buffer size.
func (ctl *SignalWSController) SendBuffer() int { return ctl.opts.SendBuffer }
