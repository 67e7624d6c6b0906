package domain

import "time"

// Article is a text document owned by exactly one user. Ownership never
// transfers after creation.
type Article struct {
	ID        string
	OwnerID   string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArticlePatch carries the optional fields of a partial update. Nil fields
// keep their stored values.
type ArticlePatch struct {
	Title   *string
	Content *string
}
