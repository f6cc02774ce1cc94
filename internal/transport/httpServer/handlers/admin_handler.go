package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"plainEvents/internal/assets"
	"plainEvents/internal/auth"
	"plainEvents/internal/columns"
	"plainEvents/internal/i18n"
	"plainEvents/internal/metabox"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/registry"
	"plainEvents/internal/sanitize"
	"plainEvents/internal/utils/logger/sl"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	actionCreateEvent = "create-event"
	actionDeleteEvent = "delete-event_"
	actionUpdateEvent = "update-event_"
	adminNonceField   = "_wpnonce"

	maxFormBytes = 1 << 20

	featureTitle     = "title"
	featureEditor    = "editor"
	featureThumbnail = "thumbnail"
)

// AdminHandler — экраны админки: список мероприятий, создание, редактирование
// с метабоксом и удаление. Все маршруты требуют авторизованного пользователя.
type AdminHandler struct {
	repository EventRepository
	terms      TermRepository
	metabox    Metabox
	cells      CellRenderer
	nonces     Nonces
	registry   *registry.Registry
	tr         *i18n.Translator
	assets     AssetsConfig
	log        *slog.Logger
}

func NewAdminHandler(
	log *slog.Logger,
	repo EventRepository,
	terms TermRepository,
	mb Metabox,
	cells CellRenderer,
	nonces Nonces,
	reg *registry.Registry,
	tr *i18n.Translator,
	assetsCfg AssetsConfig,
) *AdminHandler {
	return &AdminHandler{
		repository: repo,
		terms:      terms,
		metabox:    mb,
		cells:      cells,
		nonces:     nonces,
		registry:   reg,
		tr:         tr,
		assets:     assetsCfg,
		log:        log,
	}
}

type listCell struct {
	Key  string
	Text string
	Href string
	Note string
}

type listRow struct {
	ID    uuid.UUID
	Cells []listCell
}

// defaultColumns — колонки списка до добавления производных.
func defaultColumns() []columns.Column {
	return []columns.Column{
		{Key: "title", Label: "Title"},
		{Key: "categories", Label: "Categories"},
		{Key: columns.KeyDate, Label: "Date"},
	}
}

// ListEvents обрабатывает GET /admin/events
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.AdminHandler.ListEvents()"
	log := h.log.With(slog.String("op", op))

	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	events, err := h.repository.ListPosts(ctx, domain.PostTypeEvent, "")
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to list events: %w", err), w, http.StatusInternalServerError)
		return
	}

	cols := columns.Translate(columns.Columns(defaultColumns()), h.tr)

	rows := make([]listRow, 0, len(events))
	for _, e := range events {
		row := listRow{ID: e.ID, Cells: make([]listCell, 0, len(cols))}
		for _, c := range cols {
			cell, err := h.cell(r, actor, c.Key, e)
			if err != nil {
				h.respondError(log, err, w, http.StatusInternalServerError)
				return
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}

	token, err := h.nonces.Create(actionCreateEvent, actor.UserID)
	if err != nil {
		h.respondError(log, err, w, http.StatusInternalServerError)
		return
	}

	ct := h.contentType()
	renderPage(log, w, http.StatusOK, "admin_list.html", page{
		Lang:      h.tr.Tag().String(),
		Title:     ct.Labels.AllItems,
		BodyClass: "wp-admin edit-php post-type-" + domain.PostTypeEvent,
		Assets:    h.assets.tags(assets.Screen{Admin: true, PostType: domain.PostTypeEvent}),
		Data: struct {
			Labels  registry.Labels
			Columns []columns.Column
			Rows    []listRow
			Nonce   string
		}{
			Labels:  ct.Labels,
			Columns: cols,
			Rows:    rows,
			Nonce:   token,
		},
	})
}

func (h *AdminHandler) cell(r *http.Request, actor domain.Actor, key string, e domain.Event) (listCell, error) {
	ctx := r.Context()
	c := listCell{Key: key}

	switch key {
	case "title":
		c.Text = e.Title
		if c.Text == "" {
			c.Text = "(no title)"
		}
		if actor.CanEditPost(e) {
			c.Href = editURL(e.ID)
		}
		if e.Status == domain.PostStatusDraft {
			c.Note = "Draft"
		}
	case "categories":
		cats, err := h.terms.PostTerms(ctx, e.ID, domain.TaxonomyEventCategory)
		if err != nil {
			return c, fmt.Errorf("failed to get categories: %w", err)
		}
		names := make([]string, len(cats))
		for i, cat := range cats {
			names[i] = cat.Name
		}
		c.Text = strings.Join(names, ", ")
	default:
		text, err := h.cells.Render(ctx, key, e.ID)
		if err != nil {
			return c, err
		}
		c.Text = text
	}

	return c, nil
}

// CreateEvent обрабатывает POST /admin/events: создаёт черновик и открывает
// экран редактирования.
func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.AdminHandler.CreateEvent()"
	log := h.log.With(slog.String("op", op))

	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	if err := h.parseForm(w, r); err != nil {
		h.respondError(log, err, w, http.StatusBadRequest)
		return
	}
	if !h.nonces.Verify(r.PostForm.Get(adminNonceField), actionCreateEvent, actor.UserID) {
		h.respondError(log, fmt.Errorf("invalid nonce"), w, http.StatusForbidden)
		return
	}

	created, err := h.repository.CreatePost(ctx, domain.Event{
		PostType: domain.PostTypeEvent,
		Title:    sanitize.TextField(r.PostForm.Get("post_title")),
		Status:   domain.PostStatusDraft,
		Author:   actor.UserID,
	})
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to create event: %w", err), w, http.StatusInternalServerError)
		return
	}

	log.Info("event created", slog.String("eventID", created.ID.String()), slog.String("user", actor.UserID))

	http.Redirect(w, r, editURL(created.ID), http.StatusSeeOther)
}

// EditEvent обрабатывает GET /admin/events/{eventId}/edit
func (h *AdminHandler) EditEvent(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.AdminHandler.EditEvent()"
	log := h.log.With(slog.String("op", op))

	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	event, ok := h.editableEvent(log, w, r, actor)
	if !ok {
		return
	}

	form, err := h.metabox.Render(ctx, event, actor)
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to render metabox: %w", err), w, http.StatusInternalServerError)
		return
	}

	all, err := h.terms.ListTerms(ctx, domain.TaxonomyEventCategory)
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to list categories: %w", err), w, http.StatusInternalServerError)
		return
	}
	assigned, err := h.terms.PostTerms(ctx, event.ID, domain.TaxonomyEventCategory)
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to get categories: %w", err), w, http.StatusInternalServerError)
		return
	}

	type categoryOption struct {
		ID      uuid.UUID
		Name    string
		Checked bool
	}
	options := make([]categoryOption, len(all))
	for i, c := range all {
		options[i] = categoryOption{
			ID:   c.ID,
			Name: c.Name,
			Checked: slices.ContainsFunc(assigned, func(a domain.Category) bool {
				return a.ID == c.ID
			}),
		}
	}

	deleteToken, err := h.nonces.Create(actionDeleteEvent+event.ID.String(), actor.UserID)
	if err != nil {
		h.respondError(log, err, w, http.StatusInternalServerError)
		return
	}
	updateToken, err := h.nonces.Create(actionUpdateEvent+event.ID.String(), actor.UserID)
	if err != nil {
		h.respondError(log, err, w, http.StatusInternalServerError)
		return
	}

	ct := h.contentType()
	tx, _ := h.registry.Taxonomy(domain.TaxonomyEventCategory)

	renderPage(log, w, http.StatusOK, "admin_edit.html", page{
		Lang:      h.tr.Tag().String(),
		Title:     ct.Labels.EditItem,
		BodyClass: "wp-admin post-php post-type-" + domain.PostTypeEvent,
		Assets:    h.assets.tags(assets.Screen{Admin: true, PostType: event.PostType}),
		Data: struct {
			Labels       registry.Labels
			Taxonomy     registry.Taxonomy
			Event        domain.Event
			Categories   []categoryOption
			MetaboxTitle string
			Metabox      template.HTML
			Supports     map[string]bool
			CanPublish   bool
			UpdateNonce  string
			DeleteNonce  string
			Updated      bool
		}{
			Labels:       ct.Labels,
			Taxonomy:     tx,
			Event:        event,
			Categories:   options,
			MetaboxTitle: h.tr.T("metabox.title"),
			Metabox:      template.HTML(form),
			Supports:     h.supports(),
			CanPublish:   actor.CanPublish(),
			UpdateNonce:  updateToken,
			DeleteNonce:  deleteToken,
			Updated:      r.URL.Query().Get("message") == "1",
		},
	})
}

// SaveEvent обрабатывает POST /admin/events/{eventId}: сохраняет основные поля,
// категории и метаданные. Без токена формы запрос отклоняется целиком;
// отказ метабокса не прерывает сохранение и не виден пользователю.
func (h *AdminHandler) SaveEvent(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.AdminHandler.SaveEvent()"
	log := h.log.With(slog.String("op", op))

	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	if err := h.parseForm(w, r); err != nil {
		h.respondError(log, err, w, http.StatusBadRequest)
		return
	}

	event, ok := h.editableEvent(log, w, r, actor)
	if !ok {
		return
	}
	if !h.nonces.Verify(r.PostForm.Get(adminNonceField), actionUpdateEvent+event.ID.String(), actor.UserID) {
		h.respondError(log, fmt.Errorf("invalid nonce"), w, http.StatusForbidden)
		return
	}

	autosave := r.PostForm.Get("autosave") != ""
	if !autosave {
		if err := h.saveCore(r, actor, event); err != nil {
			h.respondError(log, err, w, http.StatusInternalServerError)
			return
		}
	}

	outcome, err := h.metabox.Persist(ctx, metabox.SaveRequest{
		PostID:   event.ID,
		Actor:    actor,
		Form:     r.PostForm,
		Autosave: autosave,
	})
	if err != nil {
		h.respondError(log, fmt.Errorf("failed to save event meta: %w", err), w, http.StatusInternalServerError)
		return
	}
	log.Debug("event saved",
		slog.String("eventID", event.ID.String()),
		slog.String("metabox", outcome.String()),
	)

	if autosave {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, editURL(event.ID)+"?message=1", http.StatusSeeOther)
}

func (h *AdminHandler) saveCore(r *http.Request, actor domain.Actor, event domain.Event) error {
	ctx := r.Context()
	form := r.PostForm
	supports := h.supports()

	if _, ok := form["post_title"]; ok && supports[featureTitle] {
		event.Title = sanitize.TextField(form.Get("post_title"))
	}
	if _, ok := form["content"]; ok && supports[featureEditor] {
		event.Content = form.Get("content")
		if !actor.CanUnfilteredHTML() {
			event.Content = sanitize.ContentHTML(event.Content)
		}
	}
	if _, ok := form["thumbnail"]; ok && supports[featureThumbnail] {
		event.Thumbnail = sanitize.TextField(form.Get("thumbnail"))
	}
	if s, ok := domain.ToPostStatus(form.Get("post_status")); ok {
		if s == domain.PostStatusPublish && !actor.CanPublish() {
			s = domain.PostStatusDraft
		}
		event.Status = s
	}

	if _, err := h.repository.UpdatePost(ctx, event); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	field := domain.TaxonomyEventCategory + "[]"
	ids := make([]uuid.UUID, 0, len(form[field]))
	for _, raw := range form[field] {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := h.terms.SetPostTerms(ctx, event.ID, domain.TaxonomyEventCategory, ids); err != nil {
		return fmt.Errorf("failed to set categories: %w", err)
	}

	return nil
}

// DeleteEvent обрабатывает POST /admin/events/{eventId}/delete
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.AdminHandler.DeleteEvent()"
	log := h.log.With(slog.String("op", op))

	ctx := r.Context()
	actor, _ := auth.ActorFromContext(ctx)

	if err := h.parseForm(w, r); err != nil {
		h.respondError(log, err, w, http.StatusBadRequest)
		return
	}

	event, ok := h.editableEvent(log, w, r, actor)
	if !ok {
		return
	}
	if !h.nonces.Verify(r.PostForm.Get(adminNonceField), actionDeleteEvent+event.ID.String(), actor.UserID) {
		h.respondError(log, fmt.Errorf("invalid nonce"), w, http.StatusForbidden)
		return
	}

	if err := h.repository.DeletePost(ctx, event.ID); err != nil {
		h.respondError(log, fmt.Errorf("failed to delete event: %w", err), w, statusFor(err))
		return
	}

	log.Info("event deleted", slog.String("eventID", event.ID.String()), slog.String("user", actor.UserID))

	http.Redirect(w, r, "/admin/events", http.StatusSeeOther)
}

// editableEvent загружает запись из URL и проверяет, что это мероприятие,
// которое actor может редактировать. При отказе ответ уже записан.
func (h *AdminHandler) editableEvent(log *slog.Logger, w http.ResponseWriter, r *http.Request, actor domain.Actor) (domain.Event, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		h.respondError(log, fmt.Errorf("invalid eventId: %w", err), w, http.StatusBadRequest)
		return domain.Event{}, false
	}

	event, err := h.repository.FindPostByID(r.Context(), id)
	if err != nil {
		h.respondError(log, err, w, statusFor(err))
		return domain.Event{}, false
	}
	if !event.IsEvent() {
		h.respondError(log, domain.ErrNotFound, w, http.StatusNotFound)
		return domain.Event{}, false
	}
	if !actor.CanEditPost(event) {
		h.respondError(log, errForbidden, w, http.StatusForbidden)
		return domain.Event{}, false
	}

	return event, true
}

func (h *AdminHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("cannot parse form: %w", err)
	}
	return nil
}

// supports — поля записи, объявленные типом контента в реестре.
func (h *AdminHandler) supports() map[string]bool {
	out := make(map[string]bool, 3)
	for _, f := range []string{featureTitle, featureEditor, featureThumbnail} {
		out[f] = h.registry.Supports(domain.PostTypeEvent, f)
	}
	return out
}

func (h *AdminHandler) contentType() registry.ContentType {
	if ct, ok := h.registry.ContentType(domain.PostTypeEvent); ok {
		return ct
	}
	return registry.EventContentType()
}

func (h *AdminHandler) respondError(log *slog.Logger, err error, w http.ResponseWriter, status int) {
	if status >= http.StatusInternalServerError {
		log.Error("handler error", sl.Err(err))
	} else {
		log.Debug("request rejected", sl.Err(err), slog.Int("status", status))
	}
	http.Error(w, http.StatusText(status), status)
}

func editURL(id uuid.UUID) string {
	return "/admin/events/" + id.String() + "/edit"
}
