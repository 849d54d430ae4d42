package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/dkeye/RoomChat/internal/mocks"
)

type inbox struct {
	mu     sync.Mutex
	events []domain.Event
}

func (i *inbox) Deliver(ev domain.Event) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events = append(i.events, ev)
	return nil
}

func (i *inbox) Events() []domain.Event {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]domain.Event(nil), i.events...)
}

func newDirectory(t *testing.T) (*Directory, *Registry) {
	t.Helper()
	reg := NewRegistry()
	dir := NewDirectory(context.Background(), reg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = dir.Shutdown(ctx)
	})
	return dir, reg
}

func TestDirectory_CreateRoomPublishesAndLists(t *testing.T) {
	req := require.New(t)
	dir, reg := newDirectory(t)

	// When three rooms are created
	for _, name := range []domain.RoomName{"general", "random", "ops"} {
		_, err := dir.CreateRoom(name)
		req.NoError(err)
	}

	// Then they are listed in creation order and resolvable
	req.Equal([]domain.RoomName{"general", "random", "ops"}, dir.ListRooms())
	room, err := reg.ResolveRoom("random")
	req.NoError(err)
	local, ok := dir.Room("random")
	req.True(ok)
	req.Same(local, room)

	req.NoError(room.Join("alice", &inbox{}))
	req.Equal(core.RoomInfo{Name: "random", MemberCount: 1}, dir.Rooms()[1])
}

func TestDirectory_CreateDuplicateKeepsExisting(t *testing.T) {
	req := require.New(t)
	dir, reg := newDirectory(t)

	first, err := dir.CreateRoom("general")
	req.NoError(err)

	_, err = dir.CreateRoom("general")
	req.ErrorIs(err, domain.ErrDuplicateName)

	req.Equal([]domain.RoomName{"general"}, dir.ListRooms())
	got, err := reg.ResolveRoom("general")
	req.NoError(err)
	req.Same(first, got)
}

func TestDirectory_CloseRoom(t *testing.T) {
	req := require.New(t)
	dir, reg := newDirectory(t)

	room, err := dir.CreateRoom("general")
	req.NoError(err)
	_, err = dir.CreateRoom("random")
	req.NoError(err)
	alice := &inbox{}
	req.NoError(room.Join("alice", alice))

	// When the room is closed
	req.NoError(dir.CloseRoom("general"))

	// Then members got the notice and the name is gone everywhere
	req.Equal([]domain.Event{domain.RoomClosedEvent()}, alice.Events())
	req.Equal([]domain.RoomName{"random"}, dir.ListRooms())
	_, err = reg.Resolve("general")
	req.ErrorIs(err, domain.ErrNameResolution)
	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		req.Fail("broadcast loop did not stop")
	}

	// And the name can be reused
	again, err := dir.CreateRoom("general")
	req.NoError(err)
	req.NotSame(room, again)
	req.Equal([]domain.RoomName{"random", "general"}, dir.ListRooms())
}

func TestDirectory_CloseUnknownIsNoop(t *testing.T) {
	req := require.New(t)
	dir, _ := newDirectory(t)

	_, err := dir.CreateRoom("general")
	req.NoError(err)

	req.NoError(dir.CloseRoom("nope"))
	req.Equal([]domain.RoomName{"general"}, dir.ListRooms())
}

func TestDirectory_PublishFailureIsTransport(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	dir := NewDirectory(context.Background(), publisher)

	// Given discovery is down
	publisher.EXPECT().Publish("general", gomock.Any()).Return(errors.New("connection refused"))

	// When a room is created
	_, err := dir.CreateRoom("general")

	// Then the error is a transport failure and nothing is registered
	req.ErrorIs(err, domain.ErrTransport)
	req.Empty(dir.ListRooms())
}

func TestDirectory_WithdrawFailureStillRemoves(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	dir := NewDirectory(context.Background(), publisher)

	publisher.EXPECT().Publish("general", gomock.Any()).Return(nil)
	publisher.EXPECT().Withdraw("general").Return(errors.New("timeout"))

	room, err := dir.CreateRoom("general")
	req.NoError(err)

	err = dir.CloseRoom("general")
	req.ErrorIs(err, domain.ErrTransport)
	req.Empty(dir.ListRooms())
	req.NotEqual(domain.RoomActive, room.State())
}

func TestDirectory_Shutdown(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	dir := NewDirectory(context.Background(), reg)

	a, err := dir.CreateRoom("a")
	req.NoError(err)
	b, err := dir.CreateRoom("b")
	req.NoError(err)
	alice, bob := &inbox{}, &inbox{}
	req.NoError(a.Join("alice", alice))
	req.NoError(b.Join("bob", bob))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req.NoError(dir.Shutdown(ctx))

	req.Equal([]domain.Event{domain.RoomClosedEvent()}, alice.Events())
	req.Equal([]domain.Event{domain.RoomClosedEvent()}, bob.Events())
	req.Equal(domain.RoomClosed, a.State())
	req.Equal(domain.RoomClosed, b.State())
	req.Empty(dir.ListRooms())
	req.Empty(reg.Names())

	_, err = dir.CreateRoom("c")
	req.ErrorIs(err, ErrDirectoryShutdown)
}

func TestDirectory_ReservedNameIsRefused(t *testing.T) {
	req := require.New(t)
	dir, reg := newDirectory(t)
	req.NoError(reg.Publish(DirectoryName, dir))

	_, err := dir.CreateRoom(domain.RoomName(DirectoryName))
	req.ErrorIs(err, domain.ErrRoomNameReserved)
	req.NotErrorIs(err, domain.ErrDuplicateName)
	req.Empty(dir.ListRooms())

	got, err := reg.ResolveDirectory()
	req.NoError(err)
	req.Same(dir, got)
}

func TestDirectory_RacingCreateAndCloseStayConsistent(t *testing.T) {
	req := require.New(t)
	dir, reg := newDirectory(t)
	names := []domain.RoomName{"a", "b", "c"}

	// When creates and closes race on the same names
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				name := names[(w+i)%len(names)]
				if (w+i)%2 == 0 {
					_, err := dir.CreateRoom(name)
					if err != nil && !errors.Is(err, domain.ErrDuplicateName) {
						t.Error(err)
						return
					}
				} else if err := dir.CloseRoom(name); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Then every name is either in both the directory and discovery, or in neither
	for _, name := range names {
		local, listed := dir.Room(name)
		resolved, err := reg.ResolveRoom(name)
		if listed {
			req.NoError(err, fmt.Sprint(name))
			req.Same(local, resolved)
			req.Contains(dir.ListRooms(), name)
		} else {
			req.ErrorIs(err, domain.ErrNameResolution, fmt.Sprint(name))
			req.NotContains(dir.ListRooms(), name)
		}
	}
	req.Len(reg.Names(), len(dir.ListRooms()))
}
