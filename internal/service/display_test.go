package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/scorebug/scorebug-server/internal/errors"
	"github.com/scorebug/scorebug-server/internal/model"
)

func TestDisplayCurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the selected game id", func(t *testing.T) {
		store := new(mockPairingStore)
		store.On("CurrentGameID", ctx).Return("2022020211", nil)

		svc := NewDisplayService(store, nil, nil)
		id, err := svc.Current(ctx)

		require.NoError(t, err)
		assert.Equal(t, "2022020211", id)
	})

	t.Run("empty string means no game selected", func(t *testing.T) {
		store := new(mockPairingStore)
		store.On("CurrentGameID", ctx).Return("", nil)

		svc := NewDisplayService(store, nil, nil)
		id, err := svc.Current(ctx)

		require.NoError(t, err)
		assert.Empty(t, id)
	})
}

func TestDisplaySet(t *testing.T) {
	ctx := context.Background()

	t.Run("host sets the pointer", func(t *testing.T) {
		store := new(mockPairingStore)
		store.On("SetCurrentGameID", ctx, "2022020211").Return(nil)

		svc := NewDisplayService(store, nil, nil)
		err := svc.Set(ctx, "2022020211", true, "")

		require.NoError(t, err)
		store.AssertCalled(t, "SetCurrentGameID", ctx, "2022020211")
	})

	t.Run("host clears the pointer with an empty id", func(t *testing.T) {
		store := new(mockPairingStore)
		store.On("ClearCurrentGameID", ctx).Return(nil)

		svc := NewDisplayService(store, nil, nil)
		err := svc.Set(ctx, "", true, "")

		require.NoError(t, err)
		store.AssertCalled(t, "ClearCurrentGameID", ctx)
		store.AssertNotCalled(t, "SetCurrentGameID", mock.Anything, mock.Anything)
	})

	t.Run("linked devices may not move the pointer", func(t *testing.T) {
		store := new(mockPairingStore)

		svc := NewDisplayService(store, nil, nil)
		err := svc.Set(ctx, "2022020211", false, "")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)
		store.AssertNotCalled(t, "SetCurrentGameID", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "ClearCurrentGameID", mock.Anything)
	})

	t.Run("records selection history when enabled", func(t *testing.T) {
		store := new(mockPairingStore)
		store.On("SetCurrentGameID", ctx, "2022020211").Return(nil)

		events := new(mockLinkEventRepo)
		events.On("Record", ctx, mock.MatchedBy(func(p model.RecordLinkEventParams) bool {
			return p.EventType == model.EventGameSelected && p.Detail == "2022020211"
		})).Return(nil)

		svc := NewDisplayService(store, nil, events)
		require.NoError(t, svc.Set(ctx, "2022020211", true, "10.0.0.5"))
		events.AssertExpectations(t)
	})
}
