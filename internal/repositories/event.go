package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plainEvents/internal/models/domain"
	"plainEvents/internal/models/repositories"

	"github.com/google/uuid"
)

const postColumns = `id, post_type, title, content, thumbnail, status, author, created_at, updated_at`

func (r *Repository) CreatePost(ctx context.Context, event domain.Event) (domain.Event, error) {
	op := "repository.CreatePost()"

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = domain.PostStatusDraft
	}
	now := r.now().UTC().Truncate(time.Second)
	event.CreatedAt = now
	event.UpdatedAt = now

	repoPost := mapToRepo(event)

	insertQuery := r.DB.Rebind(`INSERT INTO posts (` + postColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.DB.ExecContext(ctx, insertQuery,
		repoPost.ID,
		repoPost.PostType,
		repoPost.Title,
		repoPost.Content,
		repoPost.Thumbnail,
		repoPost.Status,
		repoPost.Author,
		repoPost.CreatedAt,
		repoPost.UpdatedAt,
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

func (r *Repository) FindPostByID(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	op := "repository.FindPostByID()"

	var repoPost repositories.Post
	query := r.DB.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE id = ? LIMIT 1`)

	err := r.DB.GetContext(ctx, &repoPost, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, fmt.Errorf("%s: post %s: %w", op, id, ErrNotFound)
		}
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return mapToDomain(repoPost), nil
}

// UpdatePost обновляет основные поля записи (заголовок, текст, миниатюру, статус).
func (r *Repository) UpdatePost(ctx context.Context, event domain.Event) (domain.Event, error) {
	op := "repository.UpdatePost()"

	event.UpdatedAt = r.now().UTC().Truncate(time.Second)
	repoPost := mapToRepo(event)

	updateQuery := r.DB.Rebind(`UPDATE posts SET
		title = ?, content = ?, thumbnail = ?, status = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.DB.ExecContext(ctx, updateQuery,
		repoPost.Title,
		repoPost.Content,
		repoPost.Thumbnail,
		repoPost.Status,
		repoPost.UpdatedAt,
		repoPost.ID,
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Event{}, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rowsAffected == 0 {
		return domain.Event{}, fmt.Errorf("%s: post %s: %w", op, event.ID, ErrNotFound)
	}

	return r.FindPostByID(ctx, event.ID)
}

// DeletePost удаляет запись вместе с её метаданными и связями с терминами.
func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	op := "repository.DeletePost()"

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM post_meta WHERE post_id = ?`), id); err != nil {
		return fmt.Errorf("%s: delete meta: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM term_relationships WHERE post_id = ?`), id); err != nil {
		return fmt.Errorf("%s: delete term relationships: %w", op, err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM posts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: post %s: %w", op, id, ErrNotFound)
	}

	return tx.Commit()
}

// ListPosts возвращает записи типа postType. Пустой status означает любой статус.
func (r *Repository) ListPosts(ctx context.Context, postType string, status domain.PostStatus) ([]domain.Event, error) {
	op := "repository.ListPosts()"

	var repoPosts []repositories.Post
	query := `SELECT ` + postColumns + ` FROM posts WHERE post_type = ?`
	args := []any{postType}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id`

	if err := r.DB.SelectContext(ctx, &repoPosts, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]domain.Event, len(repoPosts))
	for i, p := range repoPosts {
		result[i] = mapToDomain(p)
	}

	return result, nil
}

func mapToRepo(e domain.Event) repositories.Post {
	return repositories.Post{
		BaseModel: repositories.BaseModel{
			ID:        e.ID,
			CreatedAt: e.CreatedAt.Unix(),
			UpdatedAt: e.UpdatedAt.Unix(),
		},
		PostType:  e.PostType,
		Title:     e.Title,
		Content:   e.Content,
		Thumbnail: e.Thumbnail,
		Status:    string(e.Status),
		Author:    e.Author,
	}
}

func mapToDomain(p repositories.Post) domain.Event {
	return domain.Event{
		ID:        p.ID,
		PostType:  p.PostType,
		Title:     p.Title,
		Content:   p.Content,
		Thumbnail: p.Thumbnail,
		Status:    domain.PostStatus(p.Status),
		Author:    p.Author,
		CreatedAt: time.Unix(p.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(p.UpdatedAt, 0).UTC(),
	}
}
