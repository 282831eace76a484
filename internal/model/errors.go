package model

import "errors"

var (
	// ErrInvalidArgument marks a query rejected before any store is touched.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable marks a failed store, cache or geocoder call.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrTimeout is wrapped together with ErrUpstreamUnavailable when the
	// failure was a deadline.
	ErrTimeout = errors.New("upstream timeout")

	ErrDataIntegrity = errors.New("data integrity anomaly")
)
