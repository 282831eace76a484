// Package finder answers "which locations are near this point" with four
// interchangeable strategies that must agree on membership: exact match,
// bounding box, full Haversine scan and the combined box then distance search.
package finder

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bwise1/snapguide_api/internal/geo"
	"github.com/bwise1/snapguide_api/internal/metrics"
	"github.com/bwise1/snapguide_api/internal/model"
)

type Strategy string

const (
	StrategyExact  Strategy = "exact"
	StrategySquare Strategy = "square"
	StrategyRadius Strategy = "radius"
	StrategyNearby Strategy = "nearby"
)

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyExact, StrategySquare, StrategyRadius, StrategyNearby:
		return st, nil
	case "":
		return StrategyNearby, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", model.ErrInvalidArgument, s)
	}
}

// LocationStore is the persistence the finder reads from.
type LocationStore interface {
	// FindByCoordinate returns locations within epsilon degrees of c on both axes.
	FindByCoordinate(ctx context.Context, c model.Coordinate, epsilon float64) ([]model.Location, error)
	// FindInBox returns locations inside box using a range predicate.
	FindInBox(ctx context.Context, box geo.Box) ([]model.Location, error)
	// FindWithinRadius evaluates the great-circle distance on every row.
	FindWithinRadius(ctx context.Context, center model.Coordinate, radiusKm float64) ([]model.Location, error)
}

// NativeNearbyStore is implemented by stores that can run the box prefilter
// and the distance test in a single query.
type NativeNearbyStore interface {
	FindNearby(ctx context.Context, center model.Coordinate, radiusKm float64) ([]model.Location, error)
}

type Finder struct {
	store LocationStore
}

func New(store LocationStore) *Finder {
	return &Finder{store: store}
}

// Search dispatches to the named strategy. radiusKm is ignored by exact.
func (f *Finder) Search(ctx context.Context, strategy Strategy, center model.Coordinate, radiusKm float64) ([]model.Location, error) {
	switch strategy {
	case StrategyExact:
		return f.Exact(ctx, center)
	case StrategySquare:
		return f.Square(ctx, center, radiusKm)
	case StrategyRadius:
		return f.Radius(ctx, center, radiusKm)
	case StrategyNearby:
		return f.Nearby(ctx, center, radiusKm)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", model.ErrInvalidArgument, strategy)
	}
}

// Exact returns the locations equal to c within model.CoordinateEpsilon.
func (f *Finder) Exact(ctx context.Context, c model.Coordinate) ([]model.Location, error) {
	if err := checkCoordinate(c); err != nil {
		return nil, err
	}
	metrics.LocationSearches.WithLabelValues(string(StrategyExact)).Inc()

	locs, err := f.store.FindByCoordinate(ctx, c, model.CoordinateEpsilon)
	if err != nil {
		return nil, fmt.Errorf("exact location search: %w", err)
	}
	return sortByID(locs), nil
}

// Square returns every location inside the bounding box of the radius. It
// over-includes the box corners.
func (f *Finder) Square(ctx context.Context, center model.Coordinate, radiusKm float64) ([]model.Location, error) {
	if err := geo.CheckCenter(center.Lat, center.Lng, radiusKm); err != nil {
		return nil, err
	}
	metrics.LocationSearches.WithLabelValues(string(StrategySquare)).Inc()

	locs, err := f.store.FindInBox(ctx, geo.BoundingBox(center.Lat, center.Lng, radiusKm))
	if err != nil {
		return nil, fmt.Errorf("square location search: %w", err)
	}
	return sortByID(locs), nil
}

// Radius returns the locations whose great-circle distance to center is at
// most radiusKm, evaluating the distance on every row.
func (f *Finder) Radius(ctx context.Context, center model.Coordinate, radiusKm float64) ([]model.Location, error) {
	if err := geo.CheckCenter(center.Lat, center.Lng, radiusKm); err != nil {
		return nil, err
	}
	metrics.LocationSearches.WithLabelValues(string(StrategyRadius)).Inc()

	locs, err := f.store.FindWithinRadius(ctx, center, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("radius location search: %w", err)
	}
	return sortByID(locs), nil
}

// Nearby returns the same set as Radius. The store narrows candidates with the
// bounding box and the exact distance is checked afterwards, unless the store
// can do both itself.
func (f *Finder) Nearby(ctx context.Context, center model.Coordinate, radiusKm float64) ([]model.Location, error) {
	if err := geo.CheckCenter(center.Lat, center.Lng, radiusKm); err != nil {
		return nil, err
	}
	metrics.LocationSearches.WithLabelValues(string(StrategyNearby)).Inc()

	if native, ok := f.store.(NativeNearbyStore); ok {
		locs, err := native.FindNearby(ctx, center, radiusKm)
		if err != nil {
			return nil, fmt.Errorf("nearby location search: %w", err)
		}
		return sortByID(locs), nil
	}

	candidates, err := f.store.FindInBox(ctx, geo.BoundingBox(center.Lat, center.Lng, radiusKm))
	if err != nil {
		return nil, fmt.Errorf("nearby location prefilter: %w", err)
	}
	return sortByID(WithinRadius(candidates, center, radiusKm)), nil
}

// WithinRadius keeps the locations at most radiusKm from center.
func WithinRadius(locs []model.Location, center model.Coordinate, radiusKm float64) []model.Location {
	out := make([]model.Location, 0, len(locs))
	for _, l := range locs {
		if geo.Distance(center, l.Coordinate) <= radiusKm {
			out = append(out, l)
		}
	}
	return out
}

// IDs returns the ids of locs in order.
func IDs(locs []model.Location) []int64 {
	ids := make([]int64, len(locs))
	for i, l := range locs {
		ids[i] = l.ID
	}
	return ids
}

func checkCoordinate(c model.Coordinate) error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: coordinate (%v, %v) out of range", model.ErrInvalidArgument, c.Lat, c.Lng)
	}
	return nil
}

func sortByID(locs []model.Location) []model.Location {
	if locs == nil {
		return []model.Location{}
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].ID < locs[j].ID })
	return locs
}
