package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorebug/scorebug-server/internal/model"
	"github.com/scorebug/scorebug-server/internal/service"
)

func TestSetupCode(t *testing.T) {
	t.Run("issues a code when none is live", func(t *testing.T) {
		store := newFakeStore()
		h := NewSetupHandler(service.NewPairingService(store, nil), "https://scorebug.example")

		req := httptest.NewRequest(http.MethodGet, "/code", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Len(t, body["code"], 4)
		assert.Equal(t, float64(600), body["expiresIn"])
		assert.Equal(t, "https://scorebug.example/link", body["linkUrl"])
		assert.Equal(t, body["code"], store.linkCode)
	})

	t.Run("keeps a live code with TTL headroom", func(t *testing.T) {
		store := newFakeStore()
		store.linkCode = "7K3Q"
		h := NewSetupHandler(service.NewPairingService(store, nil), "")

		req := httptest.NewRequest(http.MethodGet, "/code", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, "7K3Q", decodeBody(t, rec)["code"])
	})

	t.Run("derives the link url from the request without BASE_URL", func(t *testing.T) {
		store := newFakeStore()
		h := NewSetupHandler(service.NewPairingService(store, nil), "")

		req := httptest.NewRequest(http.MethodGet, "/code", nil)
		req.Host = "scorebug.local:8080"
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, "http://scorebug.local:8080/link", decodeBody(t, rec)["linkUrl"])
	})
}

func TestSetupStatus(t *testing.T) {
	t.Run("unclaimed code is not linked", func(t *testing.T) {
		store := newFakeStore()
		store.linkCode = "A9BC"
		h := NewSetupHandler(service.NewPairingService(store, nil), "")

		req := httptest.NewRequest(http.MethodGet, "/status?code=A9BC", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, decodeBody(t, rec)["linked"])
		assert.Equal(t, "A9BC", store.linkCode)
	})

	t.Run("claimed code reports linked and consumes the live code", func(t *testing.T) {
		store := newFakeStore()
		store.linkCode = "A9BC"
		store.authorizations["A9BC"] = model.AuthorizationRecord{Token: "tok", DeviceName: "Phone"}
		h := NewSetupHandler(service.NewPairingService(store, nil), "")

		req := httptest.NewRequest(http.MethodGet, "/status?code=A9BC", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, true, decodeBody(t, rec)["linked"])
		assert.Empty(t, store.linkCode)
	})

	t.Run("missing code parameter is rejected", func(t *testing.T) {
		store := newFakeStore()
		h := NewSetupHandler(service.NewPairingService(store, nil), "")

		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSetupQR(t *testing.T) {
	t.Run("renders a PNG", func(t *testing.T) {
		store := newFakeStore()
		h := NewSetupHandler(service.NewPairingService(store, nil), "https://scorebug.example")

		req := httptest.NewRequest(http.MethodGet, "/qr", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		// PNG magic bytes
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])
	})
}
