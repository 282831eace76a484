package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwise1/snapguide_api/internal/db"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/jackc/pgx/v5"
)

// guideSelect joins a guide with its author and location. The location name
// falls back to the address, as model.Location.DisplayName does.
const guideSelect = `
        SELECT g.id, g.tip, g.user_id, g.location_id, g.like_count, g.created_at,
               u.id, u.email, NULLIF(COALESCE(NULLIF(l.name, ''), l.address), '')
        FROM guides g
        JOIN users u ON u.id = g.user_id
        LEFT JOIN locations l ON l.id = g.location_id
`

type GuideRepo struct {
	DB *db.DB
}

func (r *GuideRepo) FindGuidesByLocationIDs(ctx context.Context, locationIDs []int64, cursor *int64, limit int) ([]model.GuideRow, error) {
	var p params
	query := fmt.Sprintf(`%s
        WHERE g.location_id = ANY(%s)
          AND (%s::bigint IS NULL OR g.id > %[3]s)
        ORDER BY g.id
        LIMIT %s
    `, guideSelect, p.add(locationIDs), p.add(cursor), p.add(limit))
	return r.query(ctx, "guides_by_location", query, p.values...)
}

// FindGuidesNear filters, pages and joins in one statement.
func (r *GuideRepo) FindGuidesNear(ctx context.Context, center model.Coordinate, radiusKm float64, cursor *int64, limit int) ([]model.GuideRow, error) {
	var p params
	lat, lng := p.add(center.Lat), p.add(center.Lng)
	radius := p.add(radiusKm)
	cur := p.add(cursor)
	query := fmt.Sprintf(`%s
        WHERE %s
          AND %s <= %s
          AND (%s::bigint IS NULL OR g.id > %[5]s)
        ORDER BY g.id
        LIMIT %s
    `, guideSelect, withinFilter("l", lat, lng, radius), distanceExpr("l", lat, lng), radius, cur, p.add(limit))
	return r.query(ctx, "guides_near", query, p.values...)
}

func (r *GuideRepo) FindGuideByID(ctx context.Context, id int64) (model.GuideRow, error) {
	ctx, cancel := r.DB.WithTimeout(ctx)
	defer cancel()

	rows, err := r.DB.Pool().Query(ctx, guideSelect+` WHERE g.id = $1`, id)
	if err != nil {
		return model.GuideRow{}, storeError("guide_by_id", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, scanGuideRow)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.GuideRow{}, fmt.Errorf("guide %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.GuideRow{}, storeError("guide_by_id", err)
	}
	return row, nil
}

func (r *GuideRepo) FindGuidesByAuthor(ctx context.Context, authorID int64, cursor *int64, limit int) ([]model.GuideRow, error) {
	query := guideSelect + `
        WHERE g.user_id = $1
          AND ($2::bigint IS NULL OR g.id > $2)
        ORDER BY g.id
        LIMIT $3
    `
	return r.query(ctx, "guides_by_author", query, authorID, cursor, limit)
}

func (r *GuideRepo) query(ctx context.Context, op, query string, args ...any) ([]model.GuideRow, error) {
	ctx, cancel := r.DB.WithTimeout(ctx)
	defer cancel()

	rows, err := r.DB.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	guides, err := pgx.CollectRows(rows, scanGuideRow)
	if err != nil {
		return nil, storeError(op, err)
	}
	return guides, nil
}

func scanGuideRow(row pgx.CollectableRow) (model.GuideRow, error) {
	var g model.GuideRow
	err := row.Scan(&g.ID, &g.Tip, &g.AuthorID, &g.LocationID, &g.LikeCount, &g.CreatedAt,
		&g.Author.ID, &g.Author.Email, &g.LocationName)
	return g, err
}

type MediaRepo struct {
	DB *db.DB
}

func (r *MediaRepo) FindMediaByGuideIDs(ctx context.Context, guideIDs []int64) ([]model.Media, error) {
	ctx, cancel := r.DB.WithTimeout(ctx)
	defer cancel()

	query := `
        SELECT id, guide_id, file_name, url
        FROM media
        WHERE guide_id = ANY($1)
        ORDER BY id
    `
	rows, err := r.DB.Pool().Query(ctx, query, guideIDs)
	if err != nil {
		return nil, storeError("media_by_guides", err)
	}
	media, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Media, error) {
		var m model.Media
		err := row.Scan(&m.ID, &m.GuideID, &m.FileName, &m.URL)
		return m, err
	})
	if err != nil {
		return nil, storeError("media_by_guides", err)
	}
	return media, nil
}
