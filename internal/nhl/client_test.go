package nhl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsErrorPayload(t *testing.T) {
	t.Run("detects the message/messageNumber pair", func(t *testing.T) {
		raw := json.RawMessage(`{"messageNumber":2,"message":"Game data couldn't be found"}`)
		apiErr, ok := IsErrorPayload(raw)
		require.True(t, ok)
		assert.Equal(t, 2, apiErr.MessageNumber)
		assert.Equal(t, "Game data couldn't be found", apiErr.Message)
	})

	t.Run("feed payloads are not error payloads", func(t *testing.T) {
		raw := json.RawMessage(`{"gamePk":2022020211,"liveData":{}}`)
		_, ok := IsErrorPayload(raw)
		assert.False(t, ok)
	})

	t.Run("requires both discriminant fields", func(t *testing.T) {
		_, ok := IsErrorPayload(json.RawMessage(`{"message":"hi"}`))
		assert.False(t, ok)
		_, ok = IsErrorPayload(json.RawMessage(`{"messageNumber":10}`))
		assert.False(t, ok)
	})
}

func TestClient(t *testing.T) {
	t.Run("Schedule requests hydrated schedule for date", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.String()
			w.Write([]byte(`{"dates":[]}`))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		raw, err := client.Schedule(context.Background(), "2022-11-12")
		require.NoError(t, err)
		assert.JSONEq(t, `{"dates":[]}`, string(raw))
		assert.Equal(t, "/schedule?hydrate=team,linescore&date=2022-11-12", gotPath)
	})

	t.Run("LiveFeed passes error payloads through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/game/2022020211/feed/live", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"messageNumber":10,"message":"Object not found"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		raw, err := client.LiveFeed(context.Background(), "2022020211")
		require.NoError(t, err)

		apiErr, ok := IsErrorPayload(raw)
		require.True(t, ok)
		assert.Equal(t, 10, apiErr.MessageNumber)
	})

	t.Run("non-JSON upstream body is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.LiveFeed(context.Background(), "2022020211")
		assert.Error(t, err)
	})
}
