package tracing

import (
	"context"

	"github.com/bwise1/snapguide_api/util/values"
)

// Context carries the identifiers attached to every request by the
// tracing middleware.
type Context struct {
	RequestID     string `json:"request_id"`
	RequestSource string `json:"request_source"`
}

func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(values.ContextTracingKey).(Context)
	return tc, ok
}
