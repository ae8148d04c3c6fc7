package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scorebug/scorebug-server/internal/model"
	"github.com/scorebug/scorebug-server/internal/nhl"
)

type mockScheduleCache struct {
	mock.Mock
}

func (m *mockScheduleCache) Schedule(ctx context.Context, date string) (json.RawMessage, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *mockScheduleCache) SaveSchedule(ctx context.Context, date string, payload json.RawMessage) error {
	args := m.Called(ctx, date, payload)
	return args.Error(0)
}

type mockLinkEventRepo struct {
	mock.Mock
}

func (m *mockLinkEventRepo) Record(ctx context.Context, params model.RecordLinkEventParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *mockLinkEventRepo) Recent(ctx context.Context, limit int) ([]model.LinkEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LinkEvent), args.Error(1)
}

func (m *mockLinkEventRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	args := m.Called(ctx, age)
	return args.Get(0).(int64), args.Error(1)
}

func TestScheduleRefresher_Refresh(t *testing.T) {
	t.Run("caches schedule payload", func(t *testing.T) {
		payload := `{"dates":[{"games":[]}]}`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(payload))
		}))
		defer server.Close()

		cache := new(mockScheduleCache)
		cache.On("SaveSchedule", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		job := NewScheduleRefresher(nhl.NewClient(server.URL), cache, time.Hour)
		job.refresh()

		cache.AssertCalled(t, "SaveSchedule", mock.Anything,
			time.Now().Format("2006-01-02"), json.RawMessage(payload))
	})

	t.Run("does not cache error payloads", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Object not found","messageNumber":10}`))
		}))
		defer server.Close()

		cache := new(mockScheduleCache)

		job := NewScheduleRefresher(nhl.NewClient(server.URL), cache, time.Hour)
		job.refresh()

		cache.AssertNotCalled(t, "SaveSchedule", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fetch failure leaves cache untouched", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream unavailable"))
		}))
		defer server.Close()

		cache := new(mockScheduleCache)

		job := NewScheduleRefresher(nhl.NewClient(server.URL), cache, time.Hour)
		job.refresh()

		cache.AssertNotCalled(t, "SaveSchedule", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestScheduleRefresher_StartStop(t *testing.T) {
	payload := `{"dates":[]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	cache := new(mockScheduleCache)
	done := make(chan struct{})
	cache.On("SaveSchedule", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		select {
		case <-done:
		default:
			close(done)
		}
	}).Return(nil)

	job := NewScheduleRefresher(nhl.NewClient(server.URL), cache, time.Hour)
	job.Start()
	defer job.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate refresh on start")
	}
}

func TestHistoryPruner_Prune(t *testing.T) {
	t.Run("deletes events past retention", func(t *testing.T) {
		events := new(mockLinkEventRepo)
		events.On("DeleteOlderThan", mock.Anything, 90*24*time.Hour).Return(int64(12), nil)

		job := NewHistoryPruner(events, 90*24*time.Hour, time.Hour)
		job.prune()

		events.AssertExpectations(t)
	})

	t.Run("survives repository errors", func(t *testing.T) {
		events := new(mockLinkEventRepo)
		events.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)

		job := NewHistoryPruner(events, 90*24*time.Hour, time.Hour)
		require.NotPanics(t, func() { job.prune() })
	})
}
