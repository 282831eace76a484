package deps

import (
	"context"
	"errors"
	"testing"

	"github.com/bwise1/snapguide_api/config"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/internal/repository/memory"
)

func baseConfig() *config.Config {
	return &config.Config{
		CacheBackend:      "memory",
		CacheMaxBytes:     1 << 20,
		CacheKeyPrecision: 6,
		NearbyStrategy:    "single",
	}
}

func TestBuildBackends(t *testing.T) {
	testCases := []struct {
		backend   string
		wantCache bool
		wantErr   bool
	}{
		{"memory", true, false},
		{"badger", true, false},
		{"none", false, false},
		{"redis", false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.backend, func(t *testing.T) {
			cfg := baseConfig()
			cfg.CacheBackend = tc.backend

			d, err := Build(cfg, memory.New())
			if (err != nil) != tc.wantErr {
				t.Fatalf("Build err = %v; wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				if !errors.Is(err, model.ErrInvalidArgument) {
					t.Errorf("err = %v; want ErrInvalidArgument", err)
				}
				return
			}
			defer d.Close()

			if (d.Cache != nil) != tc.wantCache {
				t.Errorf("cache = %v; want present %v", d.Cache, tc.wantCache)
			}
			if d.Nearby == nil || d.Guides == nil || d.Resolver == nil {
				t.Error("services not wired")
			}
		})
	}
}

func TestBuildRejectsUnknownStrategy(t *testing.T) {
	cfg := baseConfig()
	cfg.NearbyStrategy = "teleport"
	if _, err := Build(cfg, memory.New()); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("err = %v; want ErrInvalidArgument", err)
	}
}

func TestNewWithoutDSNUsesMemoryStore(t *testing.T) {
	d, err := New(baseConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if d.DB != nil {
		t.Error("DB set without a DSN")
	}
	if _, ok := d.Store.(*memory.Store); !ok {
		t.Errorf("store = %T; want *memory.Store", d.Store)
	}
	if err := d.Ping(context.Background()); err != nil {
		t.Errorf("Ping = %v", err)
	}
}
