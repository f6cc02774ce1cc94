package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"plainEvents/internal/assets"
	"plainEvents/internal/i18n"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/registry"
	"plainEvents/internal/shortcode"
	"plainEvents/internal/utils"
	"plainEvents/internal/utils/logger/sl"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// archiveBody — содержимое страницы архива мероприятий.
const archiveBody = "[" + shortcode.Tag + "]"

// PublicHandler — публичные страницы мероприятий, фрагмент списка и iCal-лента.
type PublicHandler struct {
	repository EventRepository
	terms      TermRepository
	shortcodes ShortcodeExpander
	upcoming   UpcomingRenderer
	feed       FeedBuilder
	registry   *registry.Registry
	tr         *i18n.Translator
	loc        *time.Location
	assets     AssetsConfig
	log        *slog.Logger
}

func NewPublicHandler(
	log *slog.Logger,
	repo EventRepository,
	terms TermRepository,
	shortcodes ShortcodeExpander,
	upcoming UpcomingRenderer,
	feed FeedBuilder,
	reg *registry.Registry,
	tr *i18n.Translator,
	loc *time.Location,
	assetsCfg AssetsConfig,
) *PublicHandler {
	return &PublicHandler{
		repository: repo,
		terms:      terms,
		shortcodes: shortcodes,
		upcoming:   upcoming,
		feed:       feed,
		registry:   reg,
		tr:         tr,
		loc:        loc,
		assets:     assetsCfg,
		log:        log,
	}
}

// Archive обрабатывает GET / и GET /{slug}/, если у типа есть архив.
func (h *PublicHandler) Archive(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.PublicHandler.Archive()"
	log := h.log.With(slog.String("op", op))

	body, err := h.shortcodes.Expand(r.Context(), archiveBody)
	if err != nil {
		log.Error("failed to expand archive", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ct, _ := h.registry.ContentType(domain.PostTypeEvent)
	renderPage(log, w, http.StatusOK, "public_archive.html", page{
		Lang:      h.tr.Tag().String(),
		Title:     ct.Labels.Name,
		BodyClass: "archive post-type-archive post-type-archive-" + domain.PostTypeEvent,
		Assets:    h.assets.tags(assets.Screen{}),
		Data: struct {
			Body template.HTML
		}{
			Body: template.HTML(body),
		},
	})
}

// Single обрабатывает GET /{slug}/{eventId}: только опубликованные мероприятия.
func (h *PublicHandler) Single(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.PublicHandler.Single()"
	log := h.log.With(slog.String("op", op))

	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	event, err := h.repository.FindPostByID(ctx, id)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		log.Error("failed to get event", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !event.IsEvent() || event.Status != domain.PostStatusPublish {
		http.NotFound(w, r)
		return
	}

	raw, err := h.repository.GetAllMeta(ctx, event.ID)
	if err != nil {
		log.Error("failed to get meta", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	cats, err := h.terms.PostTerms(ctx, event.ID, domain.TaxonomyEventCategory)
	if err != nil {
		log.Error("failed to get categories", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	content, err := h.shortcodes.Expand(ctx, event.Content)
	if err != nil {
		log.Error("failed to expand content", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !h.registry.Supports(domain.PostTypeEvent, featureThumbnail) {
		event.Thumbnail = ""
	}

	meta := domain.ParseEventMeta(raw, h.loc)
	date := ""
	if meta.StartDate != nil {
		date = shortcode.FormatRange(h.tr, *meta.StartDate, meta.EndDate)
	}

	renderPage(log, w, http.StatusOK, "public_single.html", page{
		Lang:      h.tr.Tag().String(),
		Title:     event.Title,
		BodyClass: "single single-" + domain.PostTypeEvent,
		Assets:    h.assets.tags(assets.Screen{}),
		Data: struct {
			Event         domain.Event
			Meta          domain.EventMeta
			Categories    []domain.Category
			Content       template.HTML
			Date          string
			Link          string
			DateLabel     string
			TimeLabel     string
			LocationLabel string
		}{
			Event:         event,
			Meta:          meta,
			Categories:    cats,
			Content:       template.HTML(content),
			Date:          date,
			Link:          linkURL(meta.Link),
			DateLabel:     h.tr.T("listing.date"),
			TimeLabel:     h.tr.T("listing.time"),
			LocationLabel: h.tr.T("listing.location"),
		},
	})
}

// Upcoming обрабатывает GET /upcoming?display=&order=&class=&no_events_text=
// и отдаёт HTML-фрагмент шорткода.
func (h *PublicHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.PublicHandler.Upcoming()"
	log := h.log.With(slog.String("op", op))

	out, err := h.upcoming.Render(r.Context(), attributesFromQuery(r))
	if err != nil {
		log.Error("failed to render upcoming events", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := utils.Html(w, http.StatusOK, out); err != nil {
		log.Error("error sending http response", sl.Err(err))
	}
}

// Feed обрабатывает GET /events.ics
func (h *PublicHandler) Feed(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.PublicHandler.Feed()"
	log := h.log.With(slog.String("op", op))

	out, err := h.feed.Build(r.Context(), attributesFromQuery(r))
	if err != nil {
		log.Error("failed to build feed", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(out)); err != nil {
		log.Error("error sending http response", sl.Err(err))
	}
}

// attributesFromQuery читает атрибуты шорткода из query-параметров.
func attributesFromQuery(r *http.Request) shortcode.Attributes {
	q := r.URL.Query()
	raw := make(map[string]string, len(q))
	for k := range q {
		raw[strings.ToLower(k)] = q.Get(k)
	}
	return shortcode.ParseAttributes(raw)
}

// linkURL превращает сохранённую ссылку в абсолютный URL. Значения со
// схемой, отличной от http(s), отбрасываются.
func linkURL(link string) string {
	link = strings.TrimSpace(link)
	switch {
	case link == "":
		return ""
	case strings.HasPrefix(link, "http://"), strings.HasPrefix(link, "https://"):
		return link
	case strings.Contains(link, ":"):
		return ""
	default:
		return "https://" + link
	}
}

