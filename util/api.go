package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/util/tracing"
	"github.com/bwise1/snapguide_api/util/values"
	"github.com/goccy/go-json"
	pkgerrors "github.com/pkg/errors"
)

// StatusCode returns the status code represented
// by the specified status. Note that this function
// returns a status code of 200 by default
func StatusCode(status string) int {
	switch status {
	case values.Error:
		return http.StatusInternalServerError
	case values.Created:
		return http.StatusCreated
	case values.BadRequestBody:
		return http.StatusBadRequest
	case values.Unprocessable:
		return http.StatusUnprocessableEntity
	case values.NotAllowed:
		return http.StatusForbidden
	case values.Conflict:
		return http.StatusConflict
	case values.NotFound:
		return http.StatusNotFound
	case values.NotAuthorised, values.TokenExpired:
		return http.StatusUnauthorized
	case values.Unavailable:
		return http.StatusServiceUnavailable
	case values.TooManyRequest:
		return http.StatusTooManyRequests
	default:
		return http.StatusOK
	}
}

// StatusFor maps an error kind onto a response status.
func StatusFor(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		return values.BadRequestBody
	case errors.Is(err, model.ErrNotFound):
		return values.NotFound
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return values.Unavailable
	default:
		return values.Error
	}
}

// DecodeJSONBody ...
func DecodeJSONBody(tc *tracing.Context, body io.ReadCloser, target interface{}) error {
	if body == nil {
		return fmt.Errorf("missing request body for request: %v", tc)
	}
	defer func() {
		_ = body.Close()
	}()

	if err := json.NewDecoder(body).Decode(target); err != nil {
		return pkgerrors.Wrapf(err, "Error parsing json body for request: %v", tc)
	}

	return nil
}

// ViewerFromContext returns the authenticated viewer, if any.
func ViewerFromContext(ctx context.Context) *int64 {
	id, ok := ctx.Value(values.ContextViewerKey).(int64)
	if !ok {
		return nil
	}
	return &id
}

// WithViewer stores the authenticated viewer id on ctx.
func WithViewer(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, values.ContextViewerKey, id)
}
