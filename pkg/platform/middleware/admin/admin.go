// Package admin guards operator endpoints.
//
// A request is admitted with either the shared X-Admin-Token or an operator
// bearer token. The resolved operator is stored as the request actor.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"handoff/pkg/requestcontext"
)

const (
	HeaderAdminToken = "X-Admin-Token"
	HeaderOperator   = "X-Operator"

	sharedTokenActor = "operator:admin-token"
)

// TokenValidator resolves a bearer token to an operator name.
type TokenValidator interface {
	Operator(token string) (string, error)
}

// RequireOperator admits requests carrying the shared admin token or a bearer
// token accepted by validator. Either may be disabled by passing "" or nil.
func RequireOperator(expectedToken string, validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actor, ok := authenticate(r, expectedToken, validator)
			if !ok {
				logger.WarnContext(ctx, "operator authentication failed",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"operator credentials required"}`))
				return
			}
			ctx = requestcontext.WithActorID(ctx, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, expectedToken string, validator TokenValidator) (string, bool) {
	if token := r.Header.Get(HeaderAdminToken); token != "" && expectedToken != "" {
		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			return "", false
		}
		if op := strings.TrimSpace(r.Header.Get(HeaderOperator)); op != "" {
			return "operator:" + op, true
		}
		return sharedTokenActor, true
	}
	if validator == nil {
		return "", false
	}
	bearer, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || bearer == "" {
		return "", false
	}
	op, err := validator.Operator(bearer)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(op, "operator:") {
		op = "operator:" + op
	}
	return op, true
}
