package models

import "time"

// Versioned carries the optimistic-lock fields shared by every mutable entity.
// Version starts at 1 and increments by exactly one for each committed mutation.
type Versioned struct {
	ID        string    `db:"id" json:"id"`
	Version   int64     `db:"version" json:"version"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
