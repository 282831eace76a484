package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwise1/snapguide_api/internal/db"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	DB *db.DB
}

func (r *UserRepo) FindUserByID(ctx context.Context, id int64) (model.User, error) {
	ctx, cancel := r.DB.WithTimeout(ctx)
	defer cancel()

	var u model.User
	err := r.DB.Pool().QueryRow(ctx, `SELECT id, email, nickname, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Nickname, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.User{}, storeError("user_by_id", err)
	}
	return u, nil
}
