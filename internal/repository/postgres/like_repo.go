package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwise1/snapguide_api/internal/db"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/jackc/pgx/v5"
)

type LikeRepo struct {
	DB *db.DB
}

// FindLikedGuideIDs resolves the viewer and their likes in one query: the
// left join yields a single null row for a viewer with no likes, and no row
// at all for an unknown viewer.
func (r *LikeRepo) FindLikedGuideIDs(ctx context.Context, viewerID int64, guideIDs []int64) ([]int64, error) {
	ctx, cancel := r.DB.WithTimeout(ctx)
	defer cancel()

	query := `
        SELECT u.id, gl.guide_id
        FROM users u
        LEFT JOIN guide_likes gl ON gl.user_id = u.id AND gl.guide_id = ANY($2)
        WHERE u.id = $1
    `
	rows, err := r.DB.Pool().Query(ctx, query, viewerID, guideIDs)
	if err != nil {
		return nil, storeError("liked_guides", err)
	}
	defer rows.Close()

	var (
		found bool
		liked []int64
	)
	for rows.Next() {
		var (
			userID  int64
			guideID *int64
		)
		if err := rows.Scan(&userID, &guideID); err != nil {
			return nil, storeError("liked_guides", err)
		}
		found = true
		if guideID != nil {
			liked = append(liked, *guideID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("liked_guides", err)
	}
	if !found {
		return nil, fmt.Errorf("viewer %d: %w", viewerID, model.ErrNotFound)
	}
	return liked, nil
}

// ToggleLike flips the like inside a transaction. The guide row is locked
// first so concurrent toggles on one guide serialize and the counter stays
// equal to the number of likes.
func (r *LikeRepo) ToggleLike(ctx context.Context, guideID, viewerID int64) (model.LikeResult, error) {
	ctx, cancel := r.DB.WithTimeout(ctx)
	defer cancel()

	result := model.LikeResult{GuideID: guideID}
	err := r.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT like_count FROM guides WHERE id = $1 FOR UPDATE`, guideID).Scan(&result.LikeCount)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("guide %d: %w", guideID, model.ErrNotFound)
		}
		if err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, viewerID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("viewer %d: %w", viewerID, model.ErrNotFound)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM guide_likes WHERE user_id = $1 AND guide_id = $2`, viewerID, guideID)
		if err != nil {
			return err
		}

		if tag.RowsAffected() > 0 {
			err = tx.QueryRow(ctx, `
                UPDATE guides SET like_count = like_count - 1
                WHERE id = $1 AND like_count > 0
                RETURNING like_count
            `, guideID).Scan(&result.LikeCount)
			if errors.Is(err, pgx.ErrNoRows) {
				// Counter was already zero.
				return nil
			}
			return err
		}

		if _, err := tx.Exec(ctx, `INSERT INTO guide_likes (user_id, guide_id) VALUES ($1, $2)`, viewerID, guideID); err != nil {
			return err
		}
		result.Liked = true
		return tx.QueryRow(ctx, `
            UPDATE guides SET like_count = like_count + 1
            WHERE id = $1
            RETURNING like_count
        `, guideID).Scan(&result.LikeCount)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.LikeResult{}, err
		}
		return model.LikeResult{}, storeError("toggle_like", err)
	}
	return result, nil
}
