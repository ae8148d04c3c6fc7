package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPAHandler(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(
		filepath.Join(tmpDir, "index.html"),
		[]byte("<!DOCTYPE html><html><body>Scorebug</body></html>"), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(tmpDir, "app.css"),
		[]byte("body { background: black; }"), 0644))

	h := NewSPAHandler(tmpDir)

	serve := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("serves index.html for root path", func(t *testing.T) {
		rec := serve("/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Scorebug")
	})

	t.Run("serves static assets", func(t *testing.T) {
		rec := serve("/app.css")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "background")
	})

	t.Run("falls back to index.html for client routes", func(t *testing.T) {
		for _, path := range []string{"/link", "/link/setup", "/games/2022020211"} {
			rec := serve(path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Scorebug")
		}
	})

	t.Run("never swallows api paths", func(t *testing.T) {
		rec := serve("/api/display")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("does not escape the static dir", func(t *testing.T) {
		rec := serve("/../secret.txt")
		// Cleaned to a path inside the static dir, which falls back to index
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Scorebug")
	})
}
