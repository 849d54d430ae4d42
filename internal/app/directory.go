package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
)

var ErrDirectoryShutdown = errors.New("directory is shutting down")

// Directory is the server-side registry of live rooms. It starts each room's
// broadcast loop and keeps discovery in sync with its own map.
// All mutations are serialized by mu; it never waits on a room loop while holding it.
type Directory struct {
	ctx       context.Context
	cancel    context.CancelFunc
	publisher core.Publisher
	loops     conc.WaitGroup

	mu       sync.Mutex
	rooms    map[domain.RoomName]*core.Room
	order    []domain.RoomName
	shutdown bool
}

func NewDirectory(parent context.Context, publisher core.Publisher) *Directory {
	ctx, cancel := context.WithCancel(parent)
	return &Directory{
		ctx:       ctx,
		cancel:    cancel,
		publisher: publisher,
		rooms:     make(map[domain.RoomName]*core.Room),
	}
}

// ListRooms returns live room names in creation order.
func (d *Directory) ListRooms() []domain.RoomName {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.order)
}

func (d *Directory) Rooms() []core.RoomInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Map(d.order, func(name domain.RoomName, _ int) core.RoomInfo {
		return core.RoomInfo{Name: name, MemberCount: d.rooms[name].MemberCount()}
	})
}

func (d *Directory) Room(name domain.RoomName) (*core.Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[name]
	return room, ok
}

// CreateRoom publishes a new room under name and starts its broadcast loop.
// A live name is rejected with domain.ErrDuplicateName and left untouched.
func (d *Directory) CreateRoom(name domain.RoomName) (*core.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown {
		return nil, ErrDirectoryShutdown
	}
	if name == domain.ReservedRoomName {
		return nil, fmt.Errorf("create room %q: %w", name, domain.ErrRoomNameReserved)
	}
	if _, ok := d.rooms[name]; ok {
		return nil, fmt.Errorf("create room %q: %w", name, domain.ErrDuplicateName)
	}

	room := core.NewRoom(name)
	if err := d.publisher.Publish(string(name), room); err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			return nil, err
		}
		return nil, fmt.Errorf("create room %q: %w: %w", name, domain.ErrTransport, err)
	}
	d.rooms[name] = room
	d.order = append(d.order, name)
	d.loops.Go(func() { room.Run(d.ctx) })

	log.Info().Str("module", "app.directory").Str("room", string(name)).Int("rooms", len(d.rooms)).Msg("room created")
	return room, nil
}

// CloseRoom closes, unregisters and withdraws name. Unknown names are a no-op.
// The room is gone from the directory even when withdrawing from discovery fails.
func (d *Directory) CloseRoom(name domain.RoomName) error {
	d.mu.Lock()
	room, ok := d.rooms[name]
	if !ok {
		d.mu.Unlock()
		return nil
	}
	delete(d.rooms, name)
	d.order = slices.DeleteFunc(d.order, func(n domain.RoomName) bool { return n == name })
	werr := d.publisher.Withdraw(string(name))
	d.mu.Unlock()

	room.Close()
	log.Info().Str("module", "app.directory").Str("room", string(name)).Msg("room removed")

	if werr != nil {
		log.Error().Err(werr).Str("module", "app.directory").Str("room", string(name)).Msg("withdraw failed")
		return fmt.Errorf("close room %q: %w: %w", name, domain.ErrTransport, werr)
	}
	return nil
}

// Shutdown closes every room, notifying their members, and waits for all
// broadcast loops to exit or ctx to expire. Later creates fail.
func (d *Directory) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.shutdown = true
	rooms := make([]*core.Room, 0, len(d.order))
	for _, name := range d.order {
		rooms = append(rooms, d.rooms[name])
		if err := d.publisher.Withdraw(string(name)); err != nil {
			log.Error().Err(err).Str("module", "app.directory").Str("room", string(name)).Msg("withdraw failed")
		}
	}
	clear(d.rooms)
	d.order = nil
	d.mu.Unlock()

	for _, room := range rooms {
		room.Close()
	}
	d.cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if rec := d.loops.WaitAndRecover(); rec != nil {
			log.Error().Err(rec.AsError()).Str("module", "app.directory").Msg("room loop panicked")
		}
	}()
	select {
	case <-stopped:
		log.Info().Str("module", "app.directory").Int("closed", len(rooms)).Msg("directory shut down")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
