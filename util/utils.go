package util

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bwise1/snapguide_api/internal/model"
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// QueryFloat parses key from q, returning def when it is absent.
func QueryFloat(q url.Values, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", model.ErrInvalidArgument, key)
	}
	return v, nil
}

// QueryRequiredFloat is QueryFloat for parameters without a default.
func QueryRequiredFloat(q url.Values, key string) (float64, error) {
	if !NotBlank(q.Get(key)) {
		return 0, fmt.Errorf("%w: %s is required", model.ErrInvalidArgument, key)
	}
	return QueryFloat(q, key, 0)
}

func QueryInt(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", model.ErrInvalidArgument, key)
	}
	return v, nil
}

// QueryInt64Ptr returns nil when key is absent.
func QueryInt64Ptr(q url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := ParseID(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", model.ErrInvalidArgument, key)
	}
	return &v, nil
}

func ParseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
