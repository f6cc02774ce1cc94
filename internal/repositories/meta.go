package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"plainEvents/internal/models/domain"
	"plainEvents/internal/models/repositories"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GetMeta возвращает значение ключа метаданных и признак его наличия.
func (r *Repository) GetMeta(ctx context.Context, postID uuid.UUID, key string) (string, bool, error) {
	op := "repository.GetMeta()"

	var value string
	query := r.DB.Rebind(`SELECT meta_value FROM post_meta WHERE post_id = ? AND meta_key = ?`)
	if err := r.DB.GetContext(ctx, &value, query, postID, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	return value, true, nil
}

// GetAllMeta возвращает все метаданные записи.
func (r *Repository) GetAllMeta(ctx context.Context, postID uuid.UUID) (map[string]string, error) {
	op := "repository.GetAllMeta()"

	var rows []repositories.PostMeta
	query := r.DB.Rebind(`SELECT post_id, meta_key, meta_value FROM post_meta WHERE post_id = ?`)
	if err := r.DB.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	meta := make(map[string]string, len(rows))
	for _, row := range rows {
		meta[row.MetaKey] = row.MetaValue
	}

	return meta, nil
}

// UpdateMeta вставляет или перезаписывает значение (last-write-wins).
func (r *Repository) UpdateMeta(ctx context.Context, postID uuid.UUID, key, value string) error {
	op := "repository.UpdateMeta()"

	query := r.DB.Rebind(`INSERT INTO post_meta (post_id, meta_key, meta_value) VALUES (?, ?, ?)
		ON CONFLICT (post_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value`)
	if _, err := r.DB.ExecContext(ctx, query, postID, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// QueryPostsWithMeta возвращает записи типа postType со статусом status,
// у которых задан ключ metaKey, вместе со всеми их метаданными.
func (r *Repository) QueryPostsWithMeta(ctx context.Context, postType string, status domain.PostStatus, metaKey string) ([]domain.Event, map[uuid.UUID]map[string]string, error) {
	op := "repository.QueryPostsWithMeta()"

	var repoPosts []repositories.PostWithMeta
	query := r.DB.Rebind(`SELECT p.id, p.post_type, p.title, p.content, p.thumbnail, p.status, p.author,
			p.created_at, p.updated_at, m.meta_value
		FROM posts p
		JOIN post_meta m ON m.post_id = p.id AND m.meta_key = ?
		WHERE p.post_type = ? AND p.status = ?`)
	if err := r.DB.SelectContext(ctx, &repoPosts, query, metaKey, postType, string(status)); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	events := make([]domain.Event, 0, len(repoPosts))
	metas := make(map[uuid.UUID]map[string]string, len(repoPosts))
	ids := make([]uuid.UUID, 0, len(repoPosts))
	for _, p := range repoPosts {
		events = append(events, mapToDomain(p.Post))
		metas[p.ID] = make(map[string]string)
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		return events, metas, nil
	}

	// Метаданные всех найденных записей одним запросом.
	query, args, err := sqlx.In(`SELECT post_id, meta_key, meta_value FROM post_meta WHERE post_id IN (?)`, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	var rows []repositories.PostMeta
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, row := range rows {
		if meta, ok := metas[row.PostID]; ok {
			meta[row.MetaKey] = row.MetaValue
		}
	}

	return events, metas, nil
}
