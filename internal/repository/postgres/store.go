package postgres

import "github.com/bwise1/snapguide_api/internal/db"

// Store bundles the repositories so one value satisfies every store
// interface, like memory.Store does.
type Store struct {
	*LocationRepo
	*GuideRepo
	*MediaRepo
	*LikeRepo
	*UserRepo
}

func New(d *db.DB) *Store {
	return &Store{
		LocationRepo: &LocationRepo{DB: d},
		GuideRepo:    &GuideRepo{DB: d},
		MediaRepo:    &MediaRepo{DB: d},
		LikeRepo:     &LikeRepo{DB: d},
		UserRepo:     &UserRepo{DB: d},
	}
}
