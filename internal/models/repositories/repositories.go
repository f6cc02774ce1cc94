package repositories

import (
	"github.com/google/uuid"
)

// BaseModel — общие поля. Время хранится в unix-секундах, чтобы схема
// одинаково работала в postgres и sqlite.
type BaseModel struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt int64     `db:"created_at"`
	UpdatedAt int64     `db:"updated_at"`
}

type Post struct {
	BaseModel
	PostType  string `db:"post_type"`
	Title     string `db:"title"`
	Content   string `db:"content"`
	Thumbnail string `db:"thumbnail"`
	Status    string `db:"status"`
	Author    string `db:"author"`
}

type PostMeta struct {
	PostID    uuid.UUID `db:"post_id"`
	MetaKey   string    `db:"meta_key"`
	MetaValue string    `db:"meta_value"`
}

// PostWithMeta — строка выборки записи вместе с одним значением метаданных.
type PostWithMeta struct {
	Post
	MetaValue string `db:"meta_value"`
}

type Term struct {
	ID       uuid.UUID `db:"id"`
	Taxonomy string    `db:"taxonomy"`
	Name     string    `db:"name"`
	Slug     string    `db:"slug"`
	ParentID string    `db:"parent_id"`
}
