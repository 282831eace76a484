// Package geo holds the great-circle math used by every proximity search:
// Haversine distance and the radius to bounding box reduction.
package geo

import (
	"fmt"
	"math"

	"github.com/bwise1/snapguide_api/internal/model"
)

const (
	// EarthRadiusKm is the mean Earth radius used by DistanceKm.
	EarthRadiusKm = 6371.0

	// KmPerDegree approximates the length of one degree of latitude.
	KmPerDegree = 111.0

	// MaxCenterLatitude bounds the search centers BoundingBox is trusted for.
	// Past it the longitude span grows without bound as cos(lat) tends to 0.
	MaxCenterLatitude = 85.0
)

// Box is an axis-aligned latitude/longitude rectangle. MinLon may be below
// -180 or MaxLon above 180 when the box crosses the antimeridian; use
// LonRanges or Contains rather than comparing against the raw bounds.
type Box struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// LonRange is a closed longitude interval inside [-180, 180].
type LonRange struct {
	Min float64
	Max float64
}

// DistanceKm returns the Haversine great-circle distance in kilometres.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Distance is DistanceKm over coordinates.
func Distance(a, b model.Coordinate) float64 {
	return DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// BoundingBox returns the rectangle enclosing every point within radiusKm of
// (lat, lon). It is a superset of the radius disc and is only meaningful for
// centers accepted by CheckCenter.
//
// The longitude half-width is r/(R*cos(lat)) widened to the exact extent of the
// spherical cap, asin(sin(r/R)/cos(lat)). The two agree to first order; the
// exact term only matters for large radii at high latitudes.
func BoundingBox(lat, lon, radiusKm float64) Box {
	ang := radiusKm / EarthRadiusKm
	cosLat := math.Cos(toRadians(lat))

	deltaLat := toDegrees(ang)
	deltaLon := 180.0
	if s := math.Sin(ang) / cosLat; s < 1 {
		deltaLon = toDegrees(math.Max(ang/cosLat, math.Asin(s)))
	}

	return Box{
		MinLat: lat - deltaLat,
		MaxLat: lat + deltaLat,
		MinLon: lon - deltaLon,
		MaxLon: lon + deltaLon,
	}
}

// KmToDegrees converts a radius to the widest degree span it covers at lat,
// which is what degree based geometry predicates expect.
func KmToDegrees(lat, radiusKm float64) float64 {
	latDeg := radiusKm / KmPerDegree
	lonDeg := radiusKm / (KmPerDegree * math.Cos(toRadians(lat)))
	return math.Max(latDeg, lonDeg)
}

// CheckCenter reports whether a search around (lat, lon) with radiusKm can be
// answered with a bounding box. The box must not reach a pole.
func CheckCenter(lat, lon, radiusKm float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsNaN(radiusKm) {
		return fmt.Errorf("%w: coordinate is not a number", model.ErrInvalidArgument)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", model.ErrInvalidArgument, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", model.ErrInvalidArgument, lon)
	}
	if radiusKm <= 0 || math.IsInf(radiusKm, 0) {
		return fmt.Errorf("%w: radius must be positive, got %v", model.ErrInvalidArgument, radiusKm)
	}
	if math.Abs(lat) > MaxCenterLatitude {
		return fmt.Errorf("%w: latitude %v is beyond %v degrees", model.ErrInvalidArgument, lat, MaxCenterLatitude)
	}

	box := BoundingBox(lat, lon, radiusKm)
	if box.MinLat < -90 || box.MaxLat > 90 {
		return fmt.Errorf("%w: radius %v km around latitude %v reaches a pole", model.ErrInvalidArgument, radiusKm, lat)
	}
	return nil
}

// LonRanges splits the box longitude span into one or two ranges within
// [-180, 180].
func (b Box) LonRanges() []LonRange {
	switch {
	case b.MaxLon-b.MinLon >= 360:
		return []LonRange{{Min: -180, Max: 180}}
	case b.MinLon < -180:
		return []LonRange{{Min: b.MinLon + 360, Max: 180}, {Min: -180, Max: b.MaxLon}}
	case b.MaxLon > 180:
		return []LonRange{{Min: b.MinLon, Max: 180}, {Min: -180, Max: b.MaxLon - 360}}
	default:
		return []LonRange{{Min: b.MinLon, Max: b.MaxLon}}
	}
}

// Contains reports whether c lies inside the box, edges included.
func (b Box) Contains(c model.Coordinate) bool {
	if c.Lat < b.MinLat || c.Lat > b.MaxLat {
		return false
	}
	for _, r := range b.LonRanges() {
		if c.Lng >= r.Min && c.Lng <= r.Max {
			return true
		}
	}
	return false
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
