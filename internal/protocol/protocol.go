// Package protocol defines the JSON frames exchanged over the room WebSocket
// and the error codes shared by the HTTP API and the socket.
package protocol

import (
	"errors"

	"github.com/dkeye/RoomChat/internal/domain"
)

// WSPath is where the room channel is served.
const WSPath = "/api/ws"

// Request types, client to server.
const (
	TypeJoin  = "join"
	TypeLeave = "leave"
	TypeSend  = "send"
	TypePing  = "ping"
)

// Reply and push types, server to client.
const (
	TypeAck   = "ack"
	TypeError = "error"
	TypePong  = "pong"
	TypeEvent = "event"
)

// Error codes.
const (
	CodeNotFound   = "not_found"
	CodeDuplicate  = "duplicate"
	CodeClosed     = "closed"
	CodeBadRequest = "bad_request"
	CodeInternal   = "internal"
)

// Request is a call on a room. ID correlates the reply.
type Request struct {
	ID   uint64          `json:"id"`
	Type string          `json:"type"`
	Room domain.RoomName `json:"room,omitempty"`
	Text string          `json:"text,omitempty"`
}

// Frame is anything the server writes: a reply to a Request (ack, error, pong)
// or a pushed room event.
type Frame struct {
	Type  string          `json:"type"`
	ID    uint64          `json:"id,omitempty"`
	Code  string          `json:"code,omitempty"`
	Error string          `json:"error,omitempty"`
	Room  domain.RoomName `json:"room,omitempty"`
	Event *domain.Event   `json:"event,omitempty"`
}

// ErrorBody is the JSON body of a failed HTTP call.
type ErrorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Endpoint is the discovery answer for a name.
type Endpoint struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Endpoint string `json:"endpoint"`
}

const (
	KindRoom      = "room"
	KindDirectory = "directory"
)

// CodeOf maps an error to its wire code.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrNameResolution):
		return CodeNotFound
	case errors.Is(err, domain.ErrDuplicateName):
		return CodeDuplicate
	case errors.Is(err, domain.ErrRoomClosed):
		return CodeClosed
	case errors.Is(err, domain.ErrRoomNameEmpty),
		errors.Is(err, domain.ErrRoomNameTooLong),
		errors.Is(err, domain.ErrRoomNameInvalid),
		errors.Is(err, domain.ErrRoomNameReserved),
		errors.Is(err, domain.ErrUsernameEmpty),
		errors.Is(err, domain.ErrUsernameTooLong),
		errors.Is(err, domain.ErrUsernameInvalid):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}

// ErrorOf maps a wire code back to the sentinel the caller can match with errors.Is.
func ErrorOf(code, msg string) error {
	var base error
	switch code {
	case CodeNotFound:
		base = domain.ErrNameResolution
	case CodeDuplicate:
		base = domain.ErrDuplicateName
	case CodeClosed:
		base = domain.ErrRoomClosed
	case CodeBadRequest:
		base = ErrBadRequest
	default:
		base = domain.ErrTransport
	}
	if msg == "" {
		return base
	}
	return &RemoteError{Code: code, Message: msg, base: base}
}

var ErrBadRequest = errors.New("bad request")

// RemoteError carries the server's message and unwraps to a sentinel.
type RemoteError struct {
	Code    string
	Message string
	base    error
}

func (e *RemoteError) Error() string { return e.Message }
func (e *RemoteError) Unwrap() error { return e.base }
