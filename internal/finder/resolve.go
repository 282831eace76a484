package finder

import (
	"context"
	"fmt"

	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/internal/model"
)

type LocationCreator interface {
	CreateLocation(ctx context.Context, loc model.Location) (model.Location, error)
}

// Geocoder turns a coordinate into an address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*model.Address, error)
}

// Resolver maps a coordinate to a stored location, creating one when no
// location matches within model.CoordinateEpsilon.
type Resolver struct {
	finder   *Finder
	creator  LocationCreator
	geocoder Geocoder
}

// NewResolver builds a Resolver. geocoder may be nil, in which case new
// locations are stored without a name.
func NewResolver(f *Finder, creator LocationCreator, geocoder Geocoder) *Resolver {
	return &Resolver{finder: f, creator: creator, geocoder: geocoder}
}

// Resolve returns the location at c and whether it was created by this call.
func (r *Resolver) Resolve(ctx context.Context, c model.Coordinate) (model.Location, bool, error) {
	existing, err := r.finder.Exact(ctx, c)
	if err != nil {
		return model.Location{}, false, err
	}
	if len(existing) > 0 {
		return existing[0], false, nil
	}

	loc := model.Location{Coordinate: c}
	if r.geocoder != nil {
		addr, err := r.geocoder.ReverseGeocode(ctx, c.Lat, c.Lng)
		switch {
		case err != nil:
			logging.Ctx(ctx).Warn().Err(err).
				Float64("lat", c.Lat).Float64("lng", c.Lng).
				Msg("reverse geocoding failed, storing unnamed location")
		case addr != nil:
			loc.Name = nonEmpty(addr.Name)
			loc.Address = nonEmpty(addr.FormattedAddress)
			loc.Raw = addr.Raw
		}
	}

	created, err := r.creator.CreateLocation(ctx, loc)
	if err != nil {
		return model.Location{}, false, fmt.Errorf("creating location: %w", err)
	}
	return created, true, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
