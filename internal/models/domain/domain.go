package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound — запись или термин отсутствуют в хранилище.
var ErrNotFound = errors.New("not found")

// PostType — тип записи контента. Сервис регистрирует только "event".
const PostTypeEvent = "event"

// TaxonomyEventCategory — иерархическая таксономия категорий мероприятий.
const TaxonomyEventCategory = "event_category"

// PostStatus представляет статус публикации записи
type PostStatus string

const (
	// PostStatusDraft — запись видна только в админке
	PostStatusDraft PostStatus = "draft"
	// PostStatusPublish — запись опубликована
	PostStatusPublish PostStatus = "publish"
)

// Ключи метаданных мероприятия.
const (
	MetaStartDate = "event-start-date"
	MetaEndDate   = "event-end-date"
	MetaTime      = "event-time"
	MetaLocation  = "event-location"
	MetaLink      = "event-link"
)

// Event - доменная модель записи мероприятия
type Event struct {
	ID        uuid.UUID
	PostType  string
	Title     string
	Content   string
	Thumbnail string
	Status    PostStatus
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEvent сообщает, относится ли запись к типу "event".
func (e Event) IsEvent() bool {
	return e.PostType == PostTypeEvent
}

// Category — термин таксономии event_category.
type Category struct {
	ID       uuid.UUID
	Taxonomy string
	Name     string
	Slug     string
	ParentID uuid.UUID
}

// UpcomingEvent — опубликованная запись вместе с её метаданными.
type UpcomingEvent struct {
	Event Event
	Meta  EventMeta
}

func ToPostStatus(s string) (PostStatus, bool) {
	switch PostStatus(s) {
	case PostStatusDraft, PostStatusPublish:
		return PostStatus(s), true
	default:
		return "", false
	}
}
