package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/RoomChat/internal/app"
	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/dkeye/RoomChat/internal/protocol"
)

// DefaultPort is where the server listens unless configured otherwise.
const DefaultPort = "2020"

const callTimeout = 10 * time.Second

var ErrNotConnected = errors.New("room channel not connected")

// Client talks to one server: HTTP for the directory and discovery, one
// WebSocket for every room call and for pushed room events.
type Client struct {
	base   *url.URL
	http   *http.Client
	dialer websocket.Dialer

	nextID atomic.Uint64

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[uint64]chan protocol.Frame
	members map[domain.RoomName]core.Member
	done    chan struct{}
	err     error

	writeMu sync.Mutex
}

// New builds a client for addr, which may be "host", "host:port" or a URL.
func New(addr string) (*Client, error) {
	base, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:    base,
		http:    &http.Client{Jar: jar, Timeout: 10 * time.Second},
		dialer:  websocket.Dialer{Jar: jar, HandshakeTimeout: 10 * time.Second},
		pending: make(map[uint64]chan protocol.Frame),
		members: make(map[domain.RoomName]core.Member),
	}, nil
}

// ParseAddr normalizes a server address to an http base URL.
func ParseAddr(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("server address is required")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("bad server address %q: %w", addr, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("bad server address %q", addr)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), DefaultPort)
	}
	u.Path = ""
	return u, nil
}

func (c *Client) Base() string { return c.base.String() }

func (c *Client) Login(ctx context.Context, name domain.UserName) error {
	return c.doJSON(ctx, http.MethodPost, "/api/login", map[string]string{"name": string(name)}, nil)
}

func (c *Client) ListRooms(ctx context.Context) ([]core.RoomInfo, error) {
	var out []core.RoomInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/rooms", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRoom(ctx context.Context, name domain.RoomName) error {
	return c.doJSON(ctx, http.MethodPost, "/api/rooms", map[string]string{"name": string(name)}, nil)
}

func (c *Client) CloseRoom(ctx context.Context, name domain.RoomName) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/rooms/"+url.PathEscape(string(name)), nil, nil)
}

// Resolve asks discovery what is bound under name.
func (c *Client) Resolve(ctx context.Context, name string) (protocol.Endpoint, error) {
	var ep protocol.Endpoint
	err := c.doJSON(ctx, http.MethodGet, "/api/discovery/"+url.PathEscape(name), nil, &ep)
	return ep, err
}

// ResolveDirectory checks that the well-known directory name is bound.
func (c *Client) ResolveDirectory(ctx context.Context) error {
	ep, err := c.Resolve(ctx, app.DirectoryName)
	if err != nil {
		return err
	}
	if ep.Kind != protocol.KindDirectory {
		return fmt.Errorf("resolve %q: %w", app.DirectoryName, domain.ErrNameResolution)
	}
	return nil
}

// ResolveRoom returns a handle to a live room, or domain.ErrNameResolution.
func (c *Client) ResolveRoom(ctx context.Context, name domain.RoomName) (*RemoteRoom, error) {
	ep, err := c.Resolve(ctx, string(name))
	if err != nil {
		return nil, err
	}
	if ep.Kind != protocol.KindRoom {
		return nil, fmt.Errorf("resolve room %q: %w", name, domain.ErrNameResolution)
	}
	return &RemoteRoom{client: c, name: name}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var eb protocol.ErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			return fmt.Errorf("%s %s: %w: status %d", method, path, domain.ErrTransport, resp.StatusCode)
		}
		return protocol.ErrorOf(eb.Code, eb.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, domain.ErrTransport, err)
	}
	return nil
}

// Connect opens the room channel. Login must have happened first.
func (c *Client) Connect(ctx context.Context) error {
	u := *c.base
	u.Scheme = "ws"
	if c.base.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = protocol.WSPath

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w: %w", u.String(), domain.ErrTransport, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	c.err = nil
	c.mu.Unlock()

	go c.readLoop(conn)
	log.Info().Str("module", "client").Str("url", u.String()).Msg("room channel connected")
	return nil
}

// Done is closed when the room channel drops.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Err reports why the room channel dropped.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return conn.Close()
}

func (c *Client) readLoop(conn *websocket.Conn) {
	var err error
	defer func() { c.fail(err) }()
	for {
		var f protocol.Frame
		if err = conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Type {
		case protocol.TypeEvent:
			c.dispatch(f)
		default:
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.mu.Unlock()
			if ok {
				ch <- f
			} else {
				log.Debug().Str("module", "client").Str("type", f.Type).Uint64("id", f.ID).Msg("reply without caller")
			}
		}
	}
}

func (c *Client) dispatch(f protocol.Frame) {
	if f.Event == nil {
		return
	}
	c.mu.Lock()
	m, ok := c.members[f.Room]
	if ok && f.Event.IsRoomClosed() {
		delete(c.members, f.Room)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	if err := m.Deliver(*f.Event); err != nil {
		log.Warn().Err(err).Str("module", "client").Str("room", string(f.Room)).Msg("deliver failed")
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		if err == nil {
			err = io.EOF
		}
		c.err = fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	if c.done != nil {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
	}
}

// call writes req and waits for its reply.
func (c *Client) call(ctx context.Context, req protocol.Request) error {
	req.ID = c.nextID.Add(1)
	reply := make(chan protocol.Frame, 1)

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	c.pending[req.ID] = reply
	c.mu.Unlock()

	c.writeMu.Lock()
	err := conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forgetCall(req.ID)
		return fmt.Errorf("%s: %w: %w", req.Type, domain.ErrTransport, err)
	}

	select {
	case f, ok := <-reply:
		if !ok {
			return c.Err()
		}
		if f.Type == protocol.TypeError {
			return protocol.ErrorOf(f.Code, f.Error)
		}
		return nil
	case <-ctx.Done():
		c.forgetCall(req.ID)
		return ctx.Err()
	}
}

func (c *Client) forgetCall(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) setMember(room domain.RoomName, m core.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m == nil {
		delete(c.members, room)
		return
	}
	c.members[room] = m
}

// Ping round-trips the room channel.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, protocol.Request{Type: protocol.TypePing})
}

// RemoteRoom is a room reached over the room channel. The server identifies
// the caller by its login, so the user arguments only have to match it.
type RemoteRoom struct {
	client *Client
	name   domain.RoomName
}

func (r *RemoteRoom) Name() domain.RoomName { return r.name }

func (r *RemoteRoom) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), callTimeout)
}

func (r *RemoteRoom) Join(_ domain.UserName, m core.Member) error {
	ctx, cancel := r.ctx()
	defer cancel()
	r.client.setMember(r.name, m)
	if err := r.client.call(ctx, protocol.Request{Type: protocol.TypeJoin, Room: r.name}); err != nil {
		r.client.setMember(r.name, nil)
		return err
	}
	return nil
}

func (r *RemoteRoom) Leave(_ domain.UserName) error {
	ctx, cancel := r.ctx()
	defer cancel()
	r.client.setMember(r.name, nil)
	return r.client.call(ctx, protocol.Request{Type: protocol.TypeLeave, Room: r.name})
}

func (r *RemoteRoom) Send(_ domain.UserName, text string) error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.call(ctx, protocol.Request{Type: protocol.TypeSend, Room: r.name, Text: text})
}
