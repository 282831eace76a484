package deps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwise1/snapguide_api/config"
	"github.com/bwise1/snapguide_api/internal/assembler"
	"github.com/bwise1/snapguide_api/internal/cache"
	"github.com/bwise1/snapguide_api/internal/db"
	"github.com/bwise1/snapguide_api/internal/finder"
	"github.com/bwise1/snapguide_api/internal/guide"
	stadiamaps "github.com/bwise1/snapguide_api/internal/http/stadia_maps"
	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/internal/nearby"
	"github.com/bwise1/snapguide_api/internal/repository/memory"
	"github.com/bwise1/snapguide_api/internal/repository/postgres"
)

// Store is everything the services need from persistence. Both
// postgres.Store and memory.Store satisfy it.
type Store interface {
	finder.LocationStore
	finder.LocationCreator
	assembler.GuideStore
	assembler.MediaStore
	assembler.LikeStore
	guide.Store
	guide.LikeToggler
	FindUserByID(ctx context.Context, id int64) (model.User, error)
}

type Dependencies struct {
	// DB is nil when running on the in-memory store.
	DB       *db.DB
	Store    Store
	Cache    *cache.ProximityCache
	Nearby   *nearby.Service
	Guides   *guide.Service
	Resolver *finder.Resolver
}

// New connects to PostgreSQL when a DSN is configured and falls back to the
// in-memory store otherwise.
func New(cfg *config.Config) (*Dependencies, error) {
	if cfg.Dsn == "" {
		logging.Warn().Msg("DSN not set, serving from the in-memory store")
		return Build(cfg, memory.New())
	}

	database, err := db.New(cfg.Dsn, db.Options{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Timeout:  cfg.DBTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	d, err := Build(cfg, postgres.New(database))
	if err != nil {
		database.Close()
		return nil, err
	}
	d.DB = database
	return d, nil
}

// Build wires the cache, geocoder and services around store.
func Build(cfg *config.Config, store Store) (*Dependencies, error) {
	mode, err := nearby.ParseMode(cfg.NearbyStrategy)
	if err != nil {
		return nil, err
	}

	var geocoder finder.Geocoder
	if cfg.StadiaAPIKey != "" {
		client, err := stadiamaps.NewClient(cfg.StadiaAPIKey, cfg.StadiaBaseURL, cfg.GeocoderTimeout)
		if err != nil {
			return nil, fmt.Errorf("creating geocoder: %w", err)
		}
		geocoder = client
	} else {
		logging.Info().Msg("STADIA_API_KEY not set, new locations are stored unnamed")
	}

	c, err := newCache(cfg)
	if err != nil {
		return nil, err
	}

	f := finder.New(store)
	a := assembler.New(store, store, store)

	return &Dependencies{
		Store:    store,
		Cache:    c,
		Nearby:   nearby.NewService(f, a, c, mode),
		Guides:   guide.NewService(store, store, a),
		Resolver: finder.NewResolver(f, store, geocoder),
	}, nil
}

func newCache(cfg *config.Config) (*cache.ProximityCache, error) {
	var (
		backend cache.Backend
		err     error
	)
	switch name := strings.ToLower(strings.TrimSpace(cfg.CacheBackend)); name {
	case "none", "":
		logging.Info().Msg("nearby cache disabled")
		return nil, nil
	case "memory":
		backend, err = cache.NewMemoryBackend(cfg.CacheMaxBytes)
	case "badger":
		backend, err = cache.OpenBadger(cfg.CacheDir)
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", model.ErrInvalidArgument, cfg.CacheBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s cache: %w", cfg.CacheBackend, err)
	}

	backend = cache.NewBreakerBackend(backend, cache.BreakerSettings{
		Name:     cfg.CacheBackend,
		Failures: 5,
		Cooldown: 30 * time.Second,
	})
	return cache.New(backend, cache.Config{
		TTL:       cfg.CacheTTL,
		Precision: cfg.CacheKeyPrecision,
		Timeout:   cfg.CacheTimeout,
	}), nil
}

// Ping reports whether the store is reachable.
func (d *Dependencies) Ping(ctx context.Context) error {
	if d.DB == nil {
		return nil
	}
	return db.Classify(d.DB.Pool().Ping(ctx))
}

func (d *Dependencies) Close() {
	if err := d.Cache.Close(); err != nil {
		logging.Error().Err(err).Msg("closing cache")
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
