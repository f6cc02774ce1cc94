package handlers

import (
	"context"

	"plainEvents/internal/metabox"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/shortcode"

	"github.com/google/uuid"
)

// EventRepository — интерфейс для работы с записями мероприятий из хэндлеров.
type EventRepository interface {
	CreatePost(ctx context.Context, event domain.Event) (domain.Event, error)
	FindPostByID(ctx context.Context, id uuid.UUID) (domain.Event, error)
	UpdatePost(ctx context.Context, event domain.Event) (domain.Event, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	ListPosts(ctx context.Context, postType string, status domain.PostStatus) ([]domain.Event, error)
	GetAllMeta(ctx context.Context, postID uuid.UUID) (map[string]string, error)
}

// TermRepository — термины таксономии и их связи с записями.
type TermRepository interface {
	CreateTerm(ctx context.Context, c domain.Category) (domain.Category, error)
	ListTerms(ctx context.Context, taxonomy string) ([]domain.Category, error)
	SetPostTerms(ctx context.Context, postID uuid.UUID, taxonomy string, termIDs []uuid.UUID) error
	PostTerms(ctx context.Context, postID uuid.UUID, taxonomy string) ([]domain.Category, error)
}

type Metabox interface {
	Render(ctx context.Context, event domain.Event, actor domain.Actor) (string, error)
	Persist(ctx context.Context, req metabox.SaveRequest) (metabox.Outcome, error)
}

type ShortcodeExpander interface {
	Expand(ctx context.Context, content string) (string, error)
}

type UpcomingRenderer interface {
	Render(ctx context.Context, attrs shortcode.Attributes) (string, error)
}

type FeedBuilder interface {
	Build(ctx context.Context, attrs shortcode.Attributes) (string, error)
}

type Nonces interface {
	Create(action, userID string) (string, error)
	Verify(token, action, userID string) bool
}

type CellRenderer interface {
	Render(ctx context.Context, column string, postID uuid.UUID) (string, error)
}
