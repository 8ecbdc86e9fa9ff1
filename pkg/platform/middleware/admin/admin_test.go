package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("accepts matching token", func(t *testing.T) {
		h := RequireAdminToken("s3cret", logger)(ok)
		req := httptest.NewRequest(http.MethodDelete, "/loans/x", nil)
		req.Header.Set("X-Admin-Token", "s3cret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		h := RequireAdminToken("s3cret", logger)(ok)
		req := httptest.NewRequest(http.MethodDelete, "/loans/x", nil)
		req.Header.Set("X-Admin-Token", "guess")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("fails closed when no token configured", func(t *testing.T) {
		h := RequireAdminToken("", logger)(ok)
		req := httptest.NewRequest(http.MethodDelete, "/loans/x", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
