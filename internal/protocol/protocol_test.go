package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/RoomChat/internal/domain"
)

func TestCodeOf_RoundTripsSentinels(t *testing.T) {
	req := require.New(t)
	for _, sentinel := range []error{
		domain.ErrNameResolution,
		domain.ErrDuplicateName,
		domain.ErrRoomClosed,
	} {
		wrapped := fmt.Errorf("context: %w", sentinel)
		back := ErrorOf(CodeOf(wrapped), wrapped.Error())
		req.ErrorIs(back, sentinel)
		req.Equal(wrapped.Error(), back.Error())
	}
}

func TestCodeOf_ValidationIsBadRequest(t *testing.T) {
	_, err := domain.NewRoomName("")
	require.Equal(t, CodeBadRequest, CodeOf(err))
	require.ErrorIs(t, ErrorOf(CodeBadRequest, "x"), ErrBadRequest)
}

func TestCodeOf_UnknownIsInternalTransport(t *testing.T) {
	req := require.New(t)
	req.Equal(CodeInternal, CodeOf(errors.New("boom")))
	req.ErrorIs(ErrorOf(CodeInternal, ""), domain.ErrTransport)
}
