package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/jackc/pgx/v5"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want []error
	}{
		{"no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), []error{model.ErrNotFound, pgx.ErrNoRows}},
		{"deadline", context.DeadlineExceeded, []error{model.ErrUpstreamUnavailable, model.ErrTimeout}},
		{"connection", errors.New("dial tcp: connection refused"), []error{model.ErrUpstreamUnavailable}},
		{"already classified", model.ErrInvalidArgument, []error{model.ErrInvalidArgument}},
		{"cancelled", context.Canceled, []error{context.Canceled}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			for _, w := range tc.want {
				if !errors.Is(got, w) {
					t.Errorf("Classify(%v) = %v; want it to wrap %v", tc.err, got, w)
				}
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) != nil")
	}
}

// serverSettings lists the startup parameters pgconn may derive from a DSN or
// the PG* environment.
var serverSettings = map[string]bool{
	"application_name": true,
	"client_encoding":  true,
	"datestyle":        true,
	"options":          true,
	"search_path":      true,
	"timezone":         true,
}

func TestPoolConfig(t *testing.T) {
	testCases := []struct {
		name         string
		dsn          string
		opts         Options
		wantMax      int32
		wantMin      int32
		wantParams   map[string]string
		wantParseErr bool
	}{
		{
			name:       "defaults",
			dsn:        "postgres://u:p@localhost:5432/d",
			wantMax:    25,
			wantMin:    5,
			wantParams: map[string]string{},
		},
		{
			name:       "overrides keep dsn settings",
			dsn:        "postgres://u:p@localhost:5432/d?application_name=snapguide",
			opts:       Options{MaxConns: 8, MinConns: 1},
			wantMax:    8,
			wantMin:    1,
			wantParams: map[string]string{"application_name": "snapguide"},
		},
		{
			name:         "bad dsn",
			dsn:          "postgres://u:p@localhost:notaport/d",
			wantParseErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := poolConfig(tc.dsn, tc.opts)
			if tc.wantParseErr {
				if err == nil {
					t.Fatal("expected a parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("poolConfig: %v", err)
			}
			if cfg.MaxConns != tc.wantMax || cfg.MinConns != tc.wantMin {
				t.Errorf("pool size = %d/%d; want %d/%d", cfg.MaxConns, cfg.MinConns, tc.wantMax, tc.wantMin)
			}
			// Startup parameters reach the server verbatim; unknown ones
			// make it refuse the connection.
			for k := range cfg.ConnConfig.RuntimeParams {
				if !serverSettings[k] {
					t.Errorf("runtime param %q is not a server setting", k)
				}
			}
			for k, v := range tc.wantParams {
				if got := cfg.ConnConfig.RuntimeParams[k]; got != v {
					t.Errorf("runtime param %s = %q; want %q", k, got, v)
				}
			}
		})
	}
}
