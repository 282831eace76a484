package model

import "time"

// Guide is a travel tip written by a user, optionally anchored to a location.
type Guide struct {
	ID         int64     `json:"id"`
	Tip        string    `json:"tip"`
	AuthorID   int64     `json:"author_id"`
	LocationID *int64    `json:"location_id,omitempty"`
	LikeCount  int       `json:"like_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// GuideRow is a guide joined with its author and location name, the shape
// every guide query returns.
type GuideRow struct {
	Guide
	Author       Author  `json:"author"`
	LocationName *string `json:"location_name,omitempty"`
}

type Author struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Media is a file attached to a guide.
type Media struct {
	ID       int64  `json:"id"`
	GuideID  *int64 `json:"guide_id,omitempty"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// GuideView is a guide as returned to a viewer.
type GuideView struct {
	ID           int64       `json:"id"`
	Tip          string      `json:"tip"`
	Author       Author      `json:"author"`
	LocationName *string     `json:"location_name"`
	Media        []MediaView `json:"media"`
	LikeCount    int         `json:"like_count"`
	UserHasLiked bool        `json:"user_has_liked"`
}

type MediaView struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

type LikeResult struct {
	GuideID   int64 `json:"guide_id"`
	Liked     bool  `json:"liked"`
	LikeCount int   `json:"like_count"`
}
