package dto

import (
	"time"

	"plainEvents/internal/models/domain"

	"github.com/google/uuid"
)

// EventResponse — DTO записи мероприятия для REST.
type EventResponse struct {
	ID         uuid.UUID          `json:"id"`
	Type       string             `json:"type"`
	Title      string             `json:"title"`
	Content    string             `json:"content"`
	Thumbnail  string             `json:"thumbnail,omitempty"`
	Status     string             `json:"status"`
	Author     string             `json:"author"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Meta       EventMetaResponse  `json:"meta"`
	Categories []CategoryResponse `json:"event_category"`
}

// EventMetaResponse — метаданные мероприятия. Даты отдаются как календарные
// дни в часовом поясе сайта; исходные значения лежат в Raw.
type EventMetaResponse struct {
	StartDate string            `json:"start_date,omitempty"`
	EndDate   string            `json:"end_date,omitempty"`
	Time      string            `json:"time,omitempty"`
	Location  string            `json:"location,omitempty"`
	Link      string            `json:"link,omitempty"`
	Raw       map[string]string `json:"raw"`
}

type CategoryResponse struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent,omitempty"`
}

// CreateCategoryRequest — DTO для создания термина event_category.
type CreateCategoryRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"parent"`
}

// UpdateStatusRequest — DTO для запроса на изменение статуса записи.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

const dateLayout = "2006-01-02"

// MapDomainToEventResponse конвертирует запись, её метаданные и категории в DTO.
func MapDomainToEventResponse(e domain.Event, meta domain.EventMeta, cats []domain.Category) EventResponse {
	resp := EventResponse{
		ID:         e.ID,
		Type:       e.PostType,
		Title:      e.Title,
		Content:    e.Content,
		Thumbnail:  e.Thumbnail,
		Status:     string(e.Status),
		Author:     e.Author,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
		Categories: MapDomainToCategoryResponseList(cats),
		Meta: EventMetaResponse{
			Time:     meta.Time,
			Location: meta.Location,
			Link:     meta.Link,
			Raw:      meta.Raw,
		},
	}
	if resp.Meta.Raw == nil {
		resp.Meta.Raw = map[string]string{}
	}
	if meta.StartDate != nil {
		resp.Meta.StartDate = meta.StartDate.Format(dateLayout)
	}
	if meta.EndDate != nil {
		resp.Meta.EndDate = meta.EndDate.Format(dateLayout)
	}
	return resp
}

func MapDomainToCategoryResponse(c domain.Category) CategoryResponse {
	resp := CategoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug}
	if c.ParentID != uuid.Nil {
		parent := c.ParentID
		resp.ParentID = &parent
	}
	return resp
}

// MapDomainToCategoryResponseList конвертирует слайс терминов; nil превращается в пустой список.
func MapDomainToCategoryResponseList(cats []domain.Category) []CategoryResponse {
	result := make([]CategoryResponse, len(cats))
	for i, c := range cats {
		result[i] = MapDomainToCategoryResponse(c)
	}
	return result
}
