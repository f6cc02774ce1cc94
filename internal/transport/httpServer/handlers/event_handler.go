package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"plainEvents/internal/auth"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/sanitize"
	"plainEvents/internal/transport/httpServer/handlers/dto"
	"plainEvents/internal/utils"
	"plainEvents/internal/utils/logger/sl"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var (
	errUnauthorized = errors.New("authentication required")
	errForbidden    = errors.New("not allowed")
)

// EventHandler — REST API записей мероприятий и категорий.
type EventHandler struct {
	repository EventRepository
	terms      TermRepository
	loc        *time.Location
	log        *slog.Logger
}

func NewEventHandler(log *slog.Logger, repo EventRepository, terms TermRepository, loc *time.Location) *EventHandler {
	return &EventHandler{
		repository: repo,
		terms:      terms,
		loc:        loc,
		log:        log,
	}
}

// GetEvents обрабатывает GET /api/v1/events?status=...
// Без параметра возвращаются опубликованные записи. Другие статусы доступны
// только авторизованным пользователям и только в пределах их прав.
func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.GetEvents()"
	log := h.log.With(slog.String("op", op))

	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	status := domain.PostStatusPublish
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, ok := domain.ToPostStatus(raw)
		if !ok {
			h.respondError(log, fmt.Errorf("invalid status filter: %s", raw), w, http.StatusBadRequest)
			return
		}
		status = s
	}
	if status != domain.PostStatusPublish && actor.IsZero() {
		h.respondError(log, errUnauthorized, w, http.StatusUnauthorized)
		return
	}

	events, err := h.repository.ListPosts(ctx, domain.PostTypeEvent, status)
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to get events: %w", err), w, http.StatusInternalServerError)
		return
	}

	response := make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		if status != domain.PostStatusPublish && !actor.CanEditPost(e) {
			continue
		}
		item, err := h.eventResponse(r, e)
		if err != nil {
			h.respondError(log, err, w, http.StatusInternalServerError)
			return
		}
		response = append(response, item)
	}

	if err := utils.Json(w, http.StatusOK, response); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

// GetEvent обрабатывает GET /api/v1/events/{eventId}.
// Неопубликованная запись видна только тем, кто может её редактировать.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.GetEvent()"
	log := h.log.With(slog.String("op", op))

	id, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		h.respondError(log, fmt.Errorf("invalid eventId: %w", err), w, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	event, err := h.repository.FindPostByID(ctx, id)
	if err != nil {
		h.respondError(log, err, w, statusFor(err))
		return
	}

	actor, _ := auth.ActorFromContext(ctx)
	if !event.IsEvent() || (event.Status != domain.PostStatusPublish && !actor.CanEditPost(event)) {
		h.respondError(log, domain.ErrNotFound, w, http.StatusNotFound)
		return
	}

	response, err := h.eventResponse(r, event)
	if err != nil {
		h.respondError(log, err, w, http.StatusInternalServerError)
		return
	}

	if err := utils.Json(w, http.StatusOK, response); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

// UpdateStatus обрабатывает PUT /api/v1/events/{eventId}/status
func (h *EventHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.UpdateStatus()"
	log := h.log.With(slog.String("op", op))

	ctx := r.Context()
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		h.respondError(log, errUnauthorized, w, http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		h.respondError(log, fmt.Errorf("invalid eventId: %w", err), w, http.StatusBadRequest)
		return
	}

	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(log, fmt.Errorf("cannot decode json: %w", err), w, http.StatusBadRequest)
		return
	}

	status, ok := domain.ToPostStatus(req.Status)
	if !ok {
		h.respondError(log, fmt.Errorf("invalid status: %s", req.Status), w, http.StatusBadRequest)
		return
	}

	event, err := h.repository.FindPostByID(ctx, id)
	if err != nil {
		h.respondError(log, err, w, statusFor(err))
		return
	}
	if !event.IsEvent() {
		h.respondError(log, domain.ErrNotFound, w, http.StatusNotFound)
		return
	}
	if !actor.CanEditPost(event) || (status == domain.PostStatusPublish && !actor.CanPublish()) {
		h.respondError(log, errForbidden, w, http.StatusForbidden)
		return
	}

	log.Info("updating event status",
		slog.String("eventID", id.String()),
		slog.String("status", string(status)),
		slog.String("user", actor.UserID),
	)

	event.Status = status
	if _, err := h.repository.UpdatePost(ctx, event); err != nil {
		h.respondError(log, fmt.Errorf("failed to update event status: %w", err), w, http.StatusInternalServerError)
		return
	}

	if err := utils.Json(w, http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

// GetCategories обрабатывает GET /api/v1/event_category
func (h *EventHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.GetCategories()"
	log := h.log.With(slog.String("op", op))

	cats, err := h.terms.ListTerms(r.Context(), domain.TaxonomyEventCategory)
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to list categories: %w", err), w, http.StatusInternalServerError)
		return
	}

	if err := utils.Json(w, http.StatusOK, dto.MapDomainToCategoryResponseList(cats)); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

// CreateCategory обрабатывает POST /api/v1/event_category
func (h *EventHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.CreateCategory()"
	log := h.log.With(slog.String("op", op))

	ctx := r.Context()
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		h.respondError(log, errUnauthorized, w, http.StatusUnauthorized)
		return
	}
	if !actor.CanManageTerms() {
		h.respondError(log, errForbidden, w, http.StatusForbidden)
		return
	}

	var req dto.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(log, fmt.Errorf("cannot decode json: %w", err), w, http.StatusBadRequest)
		return
	}

	name := sanitize.TextField(req.Name)
	slug := sanitize.Slug(req.Slug)
	if slug == "" {
		slug = sanitize.Slug(name)
	}
	if name == "" || slug == "" {
		h.respondError(log, fmt.Errorf("name is required"), w, http.StatusBadRequest)
		return
	}

	existing, err := h.terms.ListTerms(ctx, domain.TaxonomyEventCategory)
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to list categories: %w", err), w, http.StatusInternalServerError)
		return
	}

	category := domain.Category{
		Taxonomy: domain.TaxonomyEventCategory,
		Name:     name,
		Slug:     slug,
	}
	if req.ParentID != "" {
		parent, err := uuid.Parse(req.ParentID)
		if err != nil {
			h.respondError(log, fmt.Errorf("invalid parent: %w", err), w, http.StatusBadRequest)
			return
		}
		category.ParentID = parent
	}

	parentFound := category.ParentID == uuid.Nil
	for _, c := range existing {
		if c.Slug == slug {
			h.respondError(log, fmt.Errorf("slug %q already exists", slug), w, http.StatusConflict)
			return
		}
		if c.ID == category.ParentID {
			parentFound = true
		}
	}
	if !parentFound {
		h.respondError(log, fmt.Errorf("parent category not found"), w, http.StatusBadRequest)
		return
	}

	created, err := h.terms.CreateTerm(ctx, category)
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to create category: %w", err), w, http.StatusInternalServerError)
		return
	}

	log.Info("category created", slog.String("slug", created.Slug), slog.String("user", actor.UserID))

	if err := utils.Json(w, http.StatusCreated, dto.MapDomainToCategoryResponse(created)); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

func (h *EventHandler) eventResponse(r *http.Request, e domain.Event) (dto.EventResponse, error) {
	ctx := r.Context()

	raw, err := h.repository.GetAllMeta(ctx, e.ID)
	if err != nil {
		return dto.EventResponse{}, fmt.Errorf("failed to get meta: %w", err)
	}
	cats, err := h.terms.PostTerms(ctx, e.ID, domain.TaxonomyEventCategory)
	if err != nil {
		return dto.EventResponse{}, fmt.Errorf("failed to get categories: %w", err)
	}

	return dto.MapDomainToEventResponse(e, domain.ParseEventMeta(raw, h.loc), cats), nil
}

func (h *EventHandler) respondError(log *slog.Logger, err error, w http.ResponseWriter, status int) {
	if status >= http.StatusInternalServerError {
		log.Error("handler error", sl.Err(err))
	} else {
		log.Debug("request rejected", sl.Err(err), slog.Int("status", status))
	}
	if httpErr := utils.Err(w, status, err); httpErr != nil {
		log.Error("error sending http response", sl.Err(httpErr))
	}
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
