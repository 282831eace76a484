package model

const (
	DefaultRadiusKm = 20.0
	DefaultPageSize = 20
	// MaxPageSize caps larger requested sizes; it is not a validation limit.
	MaxPageSize = 100
)

// NearbyQuery asks for guides anchored within RadiusKm of a center.
type NearbyQuery struct {
	Lat      float64 `json:"latitude" validate:"latitude"`
	Lng      float64 `json:"longitude" validate:"longitude"`
	RadiusKm float64 `json:"radius_km" validate:"gt=0"`
	Cursor   *int64  `json:"cursor,omitempty" validate:"omitempty,gte=0"`
	PageSize int     `json:"page_size" validate:"gt=0"`
	ViewerID *int64  `json:"viewer_id,omitempty"`
}

func (q NearbyQuery) Center() Coordinate {
	return Coordinate{Lat: q.Lat, Lng: q.Lng}
}
