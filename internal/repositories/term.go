package repositories

import (
	"context"
	"fmt"

	"plainEvents/internal/models/domain"
	"plainEvents/internal/models/repositories"

	"github.com/google/uuid"
)

func (r *Repository) CreateTerm(ctx context.Context, c domain.Category) (domain.Category, error) {
	op := "repository.CreateTerm()"

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	repoTerm := mapTermToRepo(c)

	query := r.DB.Rebind(`INSERT INTO terms (id, taxonomy, name, slug, parent_id) VALUES (?, ?, ?, ?, ?)`)
	if _, err := r.DB.ExecContext(ctx, query,
		repoTerm.ID, repoTerm.Taxonomy, repoTerm.Name, repoTerm.Slug, repoTerm.ParentID,
	); err != nil {
		return domain.Category{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (r *Repository) ListTerms(ctx context.Context, taxonomy string) ([]domain.Category, error) {
	op := "repository.ListTerms()"

	var rows []repositories.Term
	query := r.DB.Rebind(`SELECT id, taxonomy, name, slug, parent_id FROM terms WHERE taxonomy = ? ORDER BY name`)
	if err := r.DB.SelectContext(ctx, &rows, query, taxonomy); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return mapTermsToDomain(rows), nil
}

// SetPostTerms заменяет набор терминов таксономии у записи.
func (r *Repository) SetPostTerms(ctx context.Context, postID uuid.UUID, taxonomy string, termIDs []uuid.UUID) error {
	op := "repository.SetPostTerms()"

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := tx.Rebind(`DELETE FROM term_relationships
		WHERE post_id = ? AND term_id IN (SELECT id FROM terms WHERE taxonomy = ?)`)
	if _, err := tx.ExecContext(ctx, deleteQuery, postID, taxonomy); err != nil {
		return fmt.Errorf("%s: clear: %w", op, err)
	}

	insertQuery := tx.Rebind(`INSERT INTO term_relationships (post_id, term_id)
		SELECT CAST(? AS TEXT), id FROM terms WHERE id = ? AND taxonomy = ?`)
	for _, termID := range termIDs {
		result, err := tx.ExecContext(ctx, insertQuery, postID, termID, taxonomy)
		if err != nil {
			return fmt.Errorf("%s: insert: %w", op, err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%s: term %s: %w", op, termID, ErrNotFound)
		}
	}

	return tx.Commit()
}

func (r *Repository) PostTerms(ctx context.Context, postID uuid.UUID, taxonomy string) ([]domain.Category, error) {
	op := "repository.PostTerms()"

	var rows []repositories.Term
	query := r.DB.Rebind(`SELECT t.id, t.taxonomy, t.name, t.slug, t.parent_id
		FROM terms t
		JOIN term_relationships tr ON tr.term_id = t.id
		WHERE tr.post_id = ? AND t.taxonomy = ?
		ORDER BY t.name`)
	if err := r.DB.SelectContext(ctx, &rows, query, postID, taxonomy); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return mapTermsToDomain(rows), nil
}

func mapTermToRepo(c domain.Category) repositories.Term {
	parent := ""
	if c.ParentID != uuid.Nil {
		parent = c.ParentID.String()
	}
	return repositories.Term{
		ID:       c.ID,
		Taxonomy: c.Taxonomy,
		Name:     c.Name,
		Slug:     c.Slug,
		ParentID: parent,
	}
}

func mapTermsToDomain(rows []repositories.Term) []domain.Category {
	result := make([]domain.Category, len(rows))
	for i, t := range rows {
		parent, _ := uuid.Parse(t.ParentID)
		result[i] = domain.Category{
			ID:       t.ID,
			Taxonomy: t.Taxonomy,
			Name:     t.Name,
			Slug:     t.Slug,
			ParentID: parent,
		}
	}
	return result
}
