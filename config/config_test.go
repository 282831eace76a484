package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	testCases := []struct {
		name string
		got  any
		want any
	}{
		{"port", cfg.Port, "8080"},
		{"db timeout", cfg.DBTimeout, 3 * time.Second},
		{"cache backend", cfg.CacheBackend, "memory"},
		{"cache ttl", cfg.CacheTTL, 30 * time.Minute},
		{"cache precision", cfg.CacheKeyPrecision, 6},
		{"cache timeout", cfg.CacheTimeout, 250 * time.Millisecond},
		{"nearby strategy", cfg.NearbyStrategy, "single"},
		{"cors", cfg.CORSOrigins, []string{"*"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if !reflect.DeepEqual(tc.got, tc.want) {
				t.Errorf("got %v; want %v", tc.got, tc.want)
			}
		})
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_BACKEND", "badger")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("NEARBY_STRATEGY", "two_stage")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != "9090" || cfg.CacheBackend != "badger" || cfg.CacheTTL != 5*time.Minute || cfg.NearbyStrategy != "two_stage" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Setenv("CACHE_TTL", "forever")
	if _, err := Parse(); err == nil {
		t.Error("Parse accepted CACHE_TTL=forever")
	}
}
