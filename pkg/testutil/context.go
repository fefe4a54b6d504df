package testutil

import (
	"context"
	"net/http"

	"handoff/pkg/requestcontext"
)

// WithActor stamps the acting operator on the request, as the admin guard does.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActorID(req.Context(), actor))
}

// OperatorContext returns a background context acting as operator, with a
// fixed request ID.
func OperatorContext(operator string) context.Context {
	ctx := requestcontext.WithActorID(context.Background(), "operator:"+operator)
	return requestcontext.WithRequestID(ctx, "test-request")
}
