package http

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/RoomChat/internal/domain"
)

var errFeedFull = errors.New("event feed full")

// feedMember buffers events for one SSE stream.
type feedMember struct {
	events chan domain.Event
}

func (m *feedMember) Deliver(ev domain.Event) error {
	select {
	case m.events <- ev:
		return nil
	default:
		return errFeedFull
	}
}

// streamEvents joins the room as the logged-in user and streams its events as
// server-sent events until the room closes or the client goes away.
func (api *API) streamEvents(ctx context.Context, c *gin.Context) {
	name, err := domain.NewRoomName(c.Param("name"))
	if err != nil {
		abortWith(c, err)
		return
	}
	room, err := api.Registry.ResolveRoom(name)
	if err != nil {
		abortWith(c, err)
		return
	}
	user := currentUser(c)
	feed := &feedMember{events: make(chan domain.Event, api.Signal.SendBuffer())}
	if err := room.Join(user, feed); err != nil {
		abortWith(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", string(name)).Str("user", string(user)).Msg("event stream opened")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	closed := false
	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-feed.events:
			c.SSEvent(string(ev.Kind), ev)
			closed = ev.IsRoomClosed()
			return !closed
		case <-room.Done():
			// the close notice may have been dropped on a full feed
			for {
				select {
				case ev := <-feed.events:
					c.SSEvent(string(ev.Kind), ev)
				default:
					closed = true
					return false
				}
			}
		case <-c.Request.Context().Done():
			return false
		case <-ctx.Done():
			return false
		}
	})

	if !closed {
		if _, err := room.LeaveMember(user, feed); err != nil && !errors.Is(err, domain.ErrRoomClosed) {
			log.Warn().Err(err).Str("module", "adapters.http").Str("room", string(name)).Msg("leave after stream")
		}
	}
	log.Info().Str("module", "adapters.http").Str("room", string(name)).Str("user", string(user)).Msg("event stream closed")
}
