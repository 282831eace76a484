package model

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Nickname  *string   `json:"nickname,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Author() Author {
	return Author{ID: u.ID, Email: u.Email}
}
