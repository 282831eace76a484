// Package postgres implements the stores on PostgreSQL with PostGIS.
// Box searches are plain latitude/longitude predicates. Radius searches
// narrow candidates with ST_DWithin on the indexed geography column and keep
// only rows whose Haversine distance, computed like the geo package, is within
// the radius.
package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwise1/snapguide_api/internal/geo"
)

// params collects positional query arguments.
type params struct {
	values []any
}

// add appends v and returns its placeholder.
func (p *params) add(v any) string {
	p.values = append(p.values, v)
	return "$" + strconv.Itoa(len(p.values))
}

// boxFilter renders box as a predicate on the latitude/longitude columns of
// alias. A box crossing the antimeridian becomes two longitude ranges.
func boxFilter(alias string, box geo.Box, p *params) string {
	ranges := box.LonRanges()
	lon := make([]string, len(ranges))
	for i, r := range ranges {
		lon[i] = fmt.Sprintf("%s.longitude BETWEEN %s AND %s", alias, p.add(r.Min), p.add(r.Max))
	}
	return fmt.Sprintf("%s.latitude BETWEEN %s AND %s AND (%s)",
		alias, p.add(box.MinLat), p.add(box.MaxLat), strings.Join(lon, " OR "))
}

// withinSlack widens the ST_DWithin candidate radius. PostGIS measures on a
// sphere of radius 6371008.8 m, a little larger than geo.EarthRadiusKm, and
// the Haversine recheck does the exact cut.
const withinSlack = 1.01

// withinFilter renders an index-backed candidate predicate for rows of alias
// within radiusKm of (lat, lng). The antimeridian and poles need no special
// casing on geography.
func withinFilter(alias, lat, lng, radiusKm string) string {
	return fmt.Sprintf("ST_DWithin(%s.position, ST_SetSRID(ST_MakePoint(%s::float8, %s::float8), 4326)::geography, %s::float8 * 1000 * %v, false)",
		alias, lng, lat, radiusKm, withinSlack)
}

// distanceExpr is the Haversine distance in km from (lat, lng) to the row.
func distanceExpr(alias, lat, lng string) string {
	return fmt.Sprintf(`2 * %v * asin(least(1, sqrt(
		power(sin(radians(%[2]s.latitude - %[3]s::float8) / 2), 2) +
		cos(radians(%[3]s::float8)) * cos(radians(%[2]s.latitude)) *
		power(sin(radians(%[2]s.longitude - %[4]s::float8) / 2), 2))))`,
		geo.EarthRadiusKm, alias, lat, lng)
}
