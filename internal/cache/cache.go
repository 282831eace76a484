// Package cache is the read-through cache in front of the nearby pipeline.
// Entries expire by TTL only; writes to guides never invalidate them, so a
// page may be up to one TTL stale.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/internal/metrics"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/goccy/go-json"
)

const (
	DefaultTTL       = 30 * time.Minute
	DefaultPrecision = 6
	DefaultTimeout   = 250 * time.Millisecond

	keyPrefix = "nearby:v1"
)

// Backend stores opaque values with a time to live.
type Backend interface {
	// Get returns the value under key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

type Config struct {
	TTL time.Duration
	// Precision is the number of decimals the center is rounded to in keys.
	Precision int
	// Timeout bounds each backend call. A slow backend is treated as a miss.
	Timeout time.Duration
}

type Page = model.CursorPage[model.GuideView]

// ProximityCache caches whole nearby pages. A nil *ProximityCache is valid
// and caches nothing.
type ProximityCache struct {
	backend Backend
	cfg     Config
}

func New(backend Backend, cfg Config) *ProximityCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Precision <= 0 {
		cfg.Precision = DefaultPrecision
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &ProximityCache{backend: backend, cfg: cfg}
}

// Key identifies a nearby query: rounded center, radius, cursor, page size
// and viewer.
func Key(q model.NearbyQuery, precision int) string {
	cursor := "first"
	if q.Cursor != nil {
		cursor = strconv.FormatInt(*q.Cursor, 10)
	}
	viewer := "anon"
	if q.ViewerID != nil {
		viewer = strconv.FormatInt(*q.ViewerID, 10)
	}

	return strings.Join([]string{
		keyPrefix,
		round(q.Lat, precision),
		round(q.Lng, precision),
		strconv.FormatFloat(q.RadiusKm, 'f', -1, 64),
		cursor,
		strconv.Itoa(q.PageSize),
		viewer,
	}, ":")
}

func round(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if strings.TrimLeft(s, "-0.") == "" {
		return strings.TrimPrefix(s, "-")
	}
	return s
}

// GetOrCompute returns the cached page for q or runs compute and caches its
// result. Failed and empty results are not cached. Backend failures never
// fail the call.
func (c *ProximityCache) GetOrCompute(ctx context.Context, q model.NearbyQuery, compute func(context.Context) (Page, error)) (Page, error) {
	if c == nil || c.backend == nil {
		metrics.CacheRequests.WithLabelValues("bypass").Inc()
		return compute(ctx)
	}

	key := Key(q, c.cfg.Precision)
	if page, ok := c.get(ctx, key); ok {
		return page, nil
	}

	page, err := compute(ctx)
	if err != nil {
		return page, err
	}
	if page.Empty() {
		metrics.CacheRequests.WithLabelValues("skip_empty").Inc()
		return page, nil
	}

	c.set(ctx, key, page)
	return page, nil
}

func (c *ProximityCache) get(ctx context.Context, key string) (Page, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	raw, found, err := c.backend.Get(ctx, key)
	if err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache read failed, bypassing")
		return Page{}, false
	}
	if !found {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return Page{}, false
	}

	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return Page{}, false
	}
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return page, true
}

func (c *ProximityCache) set(ctx context.Context, key string, page Page) {
	raw, err := json.Marshal(page)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("key", key).Msg("encoding page for cache")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	if err := c.backend.Set(ctx, key, raw, c.cfg.TTL); err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *ProximityCache) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Close()
}

// unavailable wraps a backend failure so callers can tell it apart.
func unavailable(op string, err error) error {
	if errors.Is(err, model.ErrUpstreamUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("cache %s: %w: %w: %w", op, model.ErrUpstreamUnavailable, model.ErrTimeout, err)
	}
	return fmt.Errorf("cache %s: %w: %w", op, model.ErrUpstreamUnavailable, err)
}
