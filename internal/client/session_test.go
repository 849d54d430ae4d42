package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/RoomChat/internal/client"
	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
	"github.com/dkeye/RoomChat/internal/mocks"
)

const user domain.UserName = "alice"

func mockRoom(ctrl *gomock.Controller, name domain.RoomName) *mocks.MockRoom {
	room := mocks.NewMockRoom(ctrl)
	room.EXPECT().Name().Return(name).AnyTimes()
	return room
}

func liveRoom(t *testing.T, name domain.RoomName) *core.Room {
	t.Helper()
	room := core.NewRoom(name)
	go room.Run(context.Background())
	t.Cleanup(func() {
		room.Close()
		<-room.Done()
	})
	return room
}

func TestSession_JoinLeavesPreviousRoom(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	first, second := mockRoom(ctrl, "first"), mockRoom(ctrl, "second")
	s := client.NewSession(user, presenter)

	gomock.InOrder(
		first.EXPECT().Join(user, gomock.Any()).Return(nil),
		presenter.EXPECT().RoomChanged(domain.RoomName("first")),
		first.EXPECT().Leave(user).Return(nil),
		presenter.EXPECT().RoomChanged(domain.RoomName("")),
		second.EXPECT().Join(user, gomock.Any()).Return(nil),
		presenter.EXPECT().RoomChanged(domain.RoomName("second")),
	)

	// Given the session is in the first room
	req.NoError(s.JoinRoom(first))
	current, ok := s.CurrentRoom()
	req.True(ok)
	req.Equal(domain.RoomName("first"), current)

	// When it joins the second one
	req.NoError(s.JoinRoom(second))

	// Then it left the first room before joining
	current, ok = s.CurrentRoom()
	req.True(ok)
	req.Equal(domain.RoomName("second"), current)
}

func TestSession_JoinFailureLeavesNoRoom(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	room := mockRoom(ctrl, "gone")
	s := client.NewSession(user, presenter)

	room.EXPECT().Join(user, gomock.Any()).Return(domain.ErrRoomClosed)

	err := s.JoinRoom(room)
	req.ErrorIs(err, domain.ErrRoomClosed)
	_, ok := s.CurrentRoom()
	req.False(ok)
}

func TestSession_PostWithoutRoomIsIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := client.NewSession(user, mocks.NewMockPresenter(ctrl))

	require.NoError(t, s.PostMessage("hello?"))
}

func TestSession_PostGoesToCurrentRoom(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	room := mockRoom(ctrl, "lobby")
	s := client.NewSession(user, presenter)

	room.EXPECT().Join(user, gomock.Any()).Return(nil)
	presenter.EXPECT().RoomChanged(domain.RoomName("lobby"))
	room.EXPECT().Send(user, "hi all").Return(nil)

	req.NoError(s.JoinRoom(room))
	req.NoError(s.PostMessage("hi all"))
}

func TestSession_LeaveIgnoresClosedRoom(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	room := mockRoom(ctrl, "lobby")
	s := client.NewSession(user, presenter)

	room.EXPECT().Join(user, gomock.Any()).Return(nil)
	presenter.EXPECT().RoomChanged(domain.RoomName("lobby"))
	room.EXPECT().Leave(user).Return(domain.ErrRoomClosed)
	presenter.EXPECT().RoomChanged(domain.RoomName(""))

	req.NoError(s.JoinRoom(room))
	req.NoError(s.LeaveCurrentRoom())
	_, ok := s.CurrentRoom()
	req.False(ok)

	// Leaving again is a no-op
	req.NoError(s.LeaveCurrentRoom())
}

func TestSession_LeaveTransportErrorStillForgetsRoom(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	room := mockRoom(ctrl, "lobby")
	s := client.NewSession(user, presenter)

	room.EXPECT().Join(user, gomock.Any()).Return(nil)
	presenter.EXPECT().RoomChanged(domain.RoomName("lobby"))
	room.EXPECT().Leave(user).Return(errors.New("broken pipe"))
	presenter.EXPECT().RoomChanged(domain.RoomName(""))

	req.NoError(s.JoinRoom(room))
	req.Error(s.LeaveCurrentRoom())
	_, ok := s.CurrentRoom()
	req.False(ok)
}

func TestSession_ReceivesRoomMessages(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	room := liveRoom(t, "lobby")
	s := client.NewSession(user, presenter)

	got := make(chan domain.Event, 1)
	presenter.EXPECT().RoomChanged(domain.RoomName("lobby"))
	presenter.EXPECT().Message(domain.RoomName("lobby"), gomock.Any()).Do(
		func(_ domain.RoomName, ev domain.Event) { got <- ev })
	presenter.EXPECT().RoomClosed(gomock.Any()).AnyTimes()
	presenter.EXPECT().RoomChanged(gomock.Any()).AnyTimes()
	presenter.EXPECT().RoomsChanged(gomock.Any()).AnyTimes()

	req.NoError(s.JoinRoom(room))
	req.NoError(s.PostMessage("hello"))

	select {
	case ev := <-got:
		req.Equal(domain.MessageEvent(user, "hello"), ev)
	case <-time.After(2 * time.Second):
		req.Fail("message was not delivered")
	}
}

func TestSession_RoomClosedByServer(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	room := liveRoom(t, "lobby")
	s := client.NewSession(user, presenter)

	gomock.InOrder(
		presenter.EXPECT().RoomsChanged([]domain.RoomName{"lobby", "other"}),
		presenter.EXPECT().RoomChanged(domain.RoomName("lobby")),
		presenter.EXPECT().RoomClosed(domain.RoomName("lobby")),
		presenter.EXPECT().RoomChanged(domain.RoomName("")),
		presenter.EXPECT().RoomsChanged([]domain.RoomName{"other"}),
	)

	// Given the session sits in a listed room
	s.SetRooms([]domain.RoomName{"lobby", "other"})
	req.NoError(s.JoinRoom(room))

	// When the server closes it
	room.Close()

	// Then the session has no room and the listing forgot it
	_, ok := s.CurrentRoom()
	req.False(ok)
	req.Equal([]domain.RoomName{"other"}, s.Rooms())

	// And posting afterwards is silently ignored
	req.NoError(s.PostMessage("anyone?"))
}

func TestSession_DropsEventsForFormerRoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	s := client.NewSession(user, presenter)

	// No presenter call is expected
	require.NoError(t, s.MemberFor("old").Deliver(domain.MessageEvent("bob", "late")))
	require.NoError(t, s.MemberFor("old").Deliver(domain.RoomClosedEvent()))
}
