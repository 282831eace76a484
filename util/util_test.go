package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/util/values"
)

func TestStatusCode(t *testing.T) {
	testCases := []struct {
		status string
		want   int
	}{
		{values.Success, http.StatusOK},
		{values.Created, http.StatusCreated},
		{values.BadRequestBody, http.StatusBadRequest},
		{values.NotFound, http.StatusNotFound},
		{values.NotAuthorised, http.StatusUnauthorized},
		{values.Unavailable, http.StatusServiceUnavailable},
		{values.TooManyRequest, http.StatusTooManyRequests},
		{values.Error, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			if got := StatusCode(tc.status); got != tc.want {
				t.Errorf("StatusCode(%q) = %d; want %d", tc.status, got, tc.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{"invalid", fmt.Errorf("radius: %w", model.ErrInvalidArgument), values.BadRequestBody},
		{"missing", fmt.Errorf("guide 3: %w", model.ErrNotFound), values.NotFound},
		{"timeout", fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, model.ErrTimeout), values.Unavailable},
		{"other", errors.New("boom"), values.Error},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusFor(tc.err); got != tc.want {
				t.Errorf("StatusFor(%v) = %q; want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestQueryParams(t *testing.T) {
	q := url.Values{"lat": {"37.5"}, "size": {"x"}, "cursor": {"11"}, "bad": {"1.2.3"}}

	if v, err := QueryFloat(q, "lat", 0); err != nil || v != 37.5 {
		t.Errorf("QueryFloat(lat) = %v, %v", v, err)
	}
	if v, err := QueryFloat(q, "radius", 20); err != nil || v != 20 {
		t.Errorf("QueryFloat(radius) default = %v, %v", v, err)
	}
	if _, err := QueryFloat(q, "bad", 0); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("QueryFloat(bad) err = %v", err)
	}
	if _, err := QueryRequiredFloat(q, "lng"); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("QueryRequiredFloat(lng) err = %v", err)
	}
	if _, err := QueryInt(q, "size", 20); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("QueryInt(size) err = %v", err)
	}
	if v, err := QueryInt64Ptr(q, "cursor"); err != nil || v == nil || *v != 11 {
		t.Errorf("QueryInt64Ptr(cursor) = %v, %v", v, err)
	}
	if v, err := QueryInt64Ptr(q, "missing"); err != nil || v != nil {
		t.Errorf("QueryInt64Ptr(missing) = %v, %v", v, err)
	}
}

func TestViewerContext(t *testing.T) {
	if ViewerFromContext(context.Background()) != nil {
		t.Error("viewer found on an empty context")
	}
	v := ViewerFromContext(WithViewer(context.Background(), 42))
	if v == nil || *v != 42 {
		t.Errorf("viewer = %v; want 42", v)
	}
}

func TestValidateCoordinate(t *testing.T) {
	testCases := []struct {
		name    string
		c       model.Coordinate
		wantErr bool
	}{
		{"valid", model.Coordinate{Lat: 37.5, Lng: 127}, false},
		{"lat too big", model.Coordinate{Lat: 90.5, Lng: 0}, true},
		{"lng too small", model.Coordinate{Lat: 0, Lng: -180.5}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateStruct(tc.c); (err != nil) != tc.wantErr {
				t.Errorf("ValidateStruct(%+v) = %v; wantErr %v", tc.c, err, tc.wantErr)
			}
		})
	}
}
