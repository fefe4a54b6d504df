package admin

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"handoff/pkg/requestcontext"
)

type stubValidator map[string]string

func (s stubValidator) Operator(token string) (string, error) {
	if op, ok := s[token]; ok {
		return op, nil
	}
	return "", errors.New("invalid token")
}

func serve(t *testing.T, token string, v TokenValidator, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var actor string
	h := RequireOperator(token, v, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor = requestcontext.ActorID(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, actor
}

func TestRequireOperator(t *testing.T) {
	validator := stubValidator{"good": "sam"}

	t.Run("shared token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/rollback", nil)
		req.Header.Set(HeaderAdminToken, "secret")
		rec, actor := serve(t, "secret", validator, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "operator:admin-token", actor)
	})

	t.Run("shared token names operator", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/rollback", nil)
		req.Header.Set(HeaderAdminToken, "secret")
		req.Header.Set(HeaderOperator, "alex")
		_, actor := serve(t, "secret", validator, req)
		assert.Equal(t, "operator:alex", actor)
	})

	t.Run("wrong shared token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/rollback", nil)
		req.Header.Set(HeaderAdminToken, "nope")
		rec, _ := serve(t, "secret", validator, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"operator credentials required"}`, rec.Body.String())
	})

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec, actor := serve(t, "secret", validator, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "operator:sam", actor)
	})

	t.Run("invalid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec, _ := serve(t, "secret", validator, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no credentials", func(t *testing.T) {
		rec, _ := serve(t, "secret", validator, httptest.NewRequest(http.MethodGet, "/admin/status", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("shared token disabled", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
		req.Header.Set(HeaderAdminToken, "")
		rec, _ := serve(t, "", nil, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
