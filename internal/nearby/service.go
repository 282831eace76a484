// Package nearby runs the nearby guides pipeline: validate the query, consult
// the cache, find the guides around the center, assemble the page and write
// it back to the cache.
package nearby

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwise1/snapguide_api/internal/assembler"
	"github.com/bwise1/snapguide_api/internal/cache"
	"github.com/bwise1/snapguide_api/internal/finder"
	"github.com/bwise1/snapguide_api/internal/geo"
	"github.com/bwise1/snapguide_api/internal/metrics"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/internal/pagination"
	"github.com/bwise1/snapguide_api/util"
)

// Mode selects how guides are located.
type Mode string

const (
	// ModeSingleStage filters guides spatially in one store query.
	ModeSingleStage Mode = "single"
	// ModeTwoStage finds location ids first, then the guides anchored there.
	ModeTwoStage Mode = "two_stage"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSingleStage, ModeTwoStage:
		return m, nil
	case "":
		return ModeSingleStage, nil
	default:
		return "", fmt.Errorf("%w: unknown nearby mode %q", model.ErrInvalidArgument, s)
	}
}

type Service struct {
	finder    *finder.Finder
	assembler *assembler.Assembler
	cache     *cache.ProximityCache
	mode      Mode
}

// NewService wires the pipeline. c may be nil to disable caching.
func NewService(f *finder.Finder, a *assembler.Assembler, c *cache.ProximityCache, mode Mode) *Service {
	if mode == "" {
		mode = ModeSingleStage
	}
	return &Service{finder: f, assembler: a, cache: c, mode: mode}
}

// Nearby returns one page of guides anchored within q.RadiusKm of the center,
// ordered by guide id.
func (s *Service) Nearby(ctx context.Context, q model.NearbyQuery) (model.CursorPage[model.GuideView], error) {
	if q.PageSize > model.MaxPageSize {
		q.PageSize = model.MaxPageSize
	}
	if err := Validate(q); err != nil {
		return model.CursorPage[model.GuideView]{}, err
	}

	start := time.Now()
	defer func() {
		metrics.NearbyDuration.WithLabelValues(string(s.mode)).Observe(time.Since(start).Seconds())
	}()

	return s.cache.GetOrCompute(ctx, q, func(ctx context.Context) (model.CursorPage[model.GuideView], error) {
		return s.compute(ctx, q)
	})
}

func (s *Service) compute(ctx context.Context, q model.NearbyQuery) (model.CursorPage[model.GuideView], error) {
	req := pagination.Request{Cursor: q.Cursor, Size: q.PageSize}

	if s.mode == ModeTwoStage {
		locs, err := s.finder.Nearby(ctx, q.Center(), q.RadiusKm)
		if err != nil {
			return model.CursorPage[model.GuideView]{}, err
		}
		return s.assembler.ByLocationIDs(ctx, finder.IDs(locs), req, q.ViewerID)
	}
	return s.assembler.Near(ctx, q.Center(), q.RadiusKm, req, q.ViewerID)
}

// Locations runs a single location strategy, bypassing the cache.
func (s *Service) Locations(ctx context.Context, strategy finder.Strategy, center model.Coordinate, radiusKm float64) ([]model.Location, error) {
	return s.finder.Search(ctx, strategy, center, radiusKm)
}

// Validate rejects queries that must not reach a store.
func Validate(q model.NearbyQuery) error {
	if err := util.ValidateStruct(q); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
	}
	return geo.CheckCenter(q.Lat, q.Lng, q.RadiusKm)
}
