package postgres

import (
	"context"
	"fmt"

	"github.com/bwise1/snapguide_api/internal/db"
	"github.com/bwise1/snapguide_api/internal/geo"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/jackc/pgx/v5"
)

const locationColumns = `l.id, l.latitude, l.longitude, l.name, l.address, l.raw, l.created_at`

type LocationRepo struct {
	DB *db.DB
}

func (r *LocationRepo) FindByCoordinate(ctx context.Context, c model.Coordinate, epsilon float64) ([]model.Location, error) {
	query := `
        SELECT ` + locationColumns + `
        FROM locations l
        WHERE l.latitude BETWEEN $1 AND $2
          AND l.longitude BETWEEN $3 AND $4
        ORDER BY l.id
    `
	return r.query(ctx, "find_by_coordinate", query, c.Lat-epsilon, c.Lat+epsilon, c.Lng-epsilon, c.Lng+epsilon)
}

func (r *LocationRepo) FindInBox(ctx context.Context, box geo.Box) ([]model.Location, error) {
	var p params
	query := `
        SELECT ` + locationColumns + `
        FROM locations l
        WHERE ` + boxFilter("l", box, &p) + `
        ORDER BY l.id
    `
	return r.query(ctx, "find_in_box", query, p.values...)
}

func (r *LocationRepo) FindWithinRadius(ctx context.Context, center model.Coordinate, radiusKm float64) ([]model.Location, error) {
	var p params
	lat, lng := p.add(center.Lat), p.add(center.Lng)
	query := fmt.Sprintf(`
        SELECT %s
        FROM locations l
        WHERE %s <= %s
        ORDER BY l.id
    `, locationColumns, distanceExpr("l", lat, lng), p.add(radiusKm))
	return r.query(ctx, "find_within_radius", query, p.values...)
}

// FindNearby lets PostGIS pick candidates through the GiST index on position
// and rechecks them with Haversine.
func (r *LocationRepo) FindNearby(ctx context.Context, center model.Coordinate, radiusKm float64) ([]model.Location, error) {
	var p params
	lat, lng := p.add(center.Lat), p.add(center.Lng)
	radius := p.add(radiusKm)
	query := fmt.Sprintf(`
        SELECT %s
        FROM locations l
        WHERE %s
          AND %s <= %s
        ORDER BY l.id
    `, locationColumns, withinFilter("l", lat, lng, radius), distanceExpr("l", lat, lng), radius)
	return r.query(ctx, "find_nearby", query, p.values...)
}

func (r *LocationRepo) CreateLocation(ctx context.Context, l model.Location) (model.Location, error) {
	ctx, cancel := r.DB.WithTimeout(ctx)
	defer cancel()

	query := `
        INSERT INTO locations (latitude, longitude, position, name, address, raw)
        VALUES ($1, $2, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3, $4, $5)
        RETURNING id, created_at
    `
	var raw []byte
	if len(l.Raw) > 0 {
		raw = l.Raw
	}
	err := r.DB.Pool().QueryRow(ctx, query, l.Coordinate.Lat, l.Coordinate.Lng, l.Name, l.Address, raw).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return model.Location{}, storeError("create_location", err)
	}
	return l, nil
}

func (r *LocationRepo) query(ctx context.Context, op, query string, args ...any) ([]model.Location, error) {
	ctx, cancel := r.DB.WithTimeout(ctx)
	defer cancel()

	rows, err := r.DB.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	locs, err := pgx.CollectRows(rows, scanLocation)
	if err != nil {
		return nil, storeError(op, err)
	}
	return locs, nil
}

func scanLocation(row pgx.CollectableRow) (model.Location, error) {
	var (
		l   model.Location
		raw []byte
	)
	err := row.Scan(&l.ID, &l.Coordinate.Lat, &l.Coordinate.Lng, &l.Name, &l.Address, &raw, &l.CreatedAt)
	if len(raw) > 0 {
		l.Raw = raw
	}
	return l, err
}
