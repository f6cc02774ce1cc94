package shortcode

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"plainEvents/internal/i18n"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/sanitize"

	"github.com/google/uuid"
)

// Tag — имя шорткода списка ближайших мероприятий.
const Tag = "upcoming_events"

// Значения атрибутов по умолчанию.
const (
	DefaultClass        = "events-listing"
	DefaultDisplay      = 0
	DefaultOrder        = OrderAsc
	DefaultNoEventsText = "There are no upcoming events."

	excerptWords = 70
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Attributes — настройки шорткода upcoming_events.
type Attributes struct {
	Class        string
	Display      int
	Order        Order
	NoEventsText string
}

// DefaultAttributes возвращает значения по умолчанию.
func DefaultAttributes() Attributes {
	return Attributes{
		Class:        DefaultClass,
		Display:      DefaultDisplay,
		Order:        DefaultOrder,
		NoEventsText: DefaultNoEventsText,
	}
}

// ParseAttributes накладывает известные атрибуты на значения по умолчанию.
// Неизвестные имена игнорируются; нечисловой display даёт 0 (все);
// order без учёта регистра, всё кроме "desc" — по возрастанию.
func ParseAttributes(raw map[string]string) Attributes {
	a := DefaultAttributes()
	if v, ok := raw["class"]; ok {
		a.Class = v
	}
	if v, ok := raw["display"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			n = 0
		}
		a.Display = n
	}
	if v, ok := raw["order"]; ok {
		if strings.EqualFold(strings.TrimSpace(v), string(OrderDesc)) {
			a.Order = OrderDesc
		} else {
			a.Order = OrderAsc
		}
	}
	if v, ok := raw["no_events_text"]; ok {
		a.NoEventsText = v
	}
	return a
}

// EventQuerier выбирает опубликованные записи с заданным ключом метаданных.
type EventQuerier interface {
	QueryPostsWithMeta(ctx context.Context, postType string, status domain.PostStatus, metaKey string) ([]domain.Event, map[uuid.UUID]map[string]string, error)
}

// Recorder считает отрисовки шорткода.
type Recorder interface {
	ShortcodeRendered(events int)
}

// Upcoming рисует список ближайших мероприятий.
type Upcoming struct {
	logger   *slog.Logger
	store    EventQuerier
	tr       *i18n.Translator
	loc      *time.Location
	now      func() time.Time
	recorder Recorder
}

func NewUpcoming(logger *slog.Logger, store EventQuerier, tr *i18n.Translator, loc *time.Location, recorder Recorder) *Upcoming {
	if loc == nil {
		loc = time.UTC
	}
	return &Upcoming{
		logger:   logger,
		store:    store,
		tr:       tr,
		loc:      loc,
		now:      time.Now,
		recorder: recorder,
	}
}

// Query возвращает опубликованные мероприятия с датой начала не раньше
// начала сегодняшнего дня, отсортированные по дате начала в порядке
// attrs.Order и ограниченные attrs.Display (0 — без ограничения).
// Записи без разбираемой даты начала в выборку не попадают.
func (u *Upcoming) Query(ctx context.Context, attrs Attributes) ([]domain.UpcomingEvent, error) {
	op := "shortcode.Upcoming.Query()"

	events, metas, err := u.store.QueryPostsWithMeta(ctx, domain.PostTypeEvent, domain.PostStatusPublish, domain.MetaStartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	today := domain.StartOfDay(u.now(), u.loc)

	result := make([]domain.UpcomingEvent, 0, len(events))
	for _, e := range events {
		meta := domain.ParseEventMeta(metas[e.ID], u.loc)
		if !meta.HasStartDate() || meta.StartDate.Before(today) {
			continue
		}
		result = append(result, domain.UpcomingEvent{Event: e, Meta: meta})
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].Meta.StartDate.Unix(), result[j].Meta.StartDate.Unix()
		if a == b {
			return result[i].Event.ID.String() < result[j].Event.ID.String()
		}
		if attrs.Order == OrderDesc {
			return a > b
		}
		return a < b
	})

	if attrs.Display > 0 && len(result) > attrs.Display {
		result = result[:attrs.Display]
	}

	return result, nil
}

// Render возвращает HTML-фрагмент списка. Если мероприятий нет, внутри
// обёртки выводится attrs.NoEventsText.
func (u *Upcoming) Render(ctx context.Context, attrs Attributes) (string, error) {
	op := "shortcode.Upcoming.Render()"
	log := u.logger.With(slog.String("op", op))

	events, err := u.Query(ctx, attrs)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`<div class="` + html.EscapeString(attrs.Class) + `">`)
	if len(events) == 0 {
		b.WriteString("<p>" + html.EscapeString(attrs.NoEventsText) + "</p>")
	}
	for _, ev := range events {
		u.writeEvent(&b, ev)
	}
	b.WriteString("</div>")

	if u.recorder != nil {
		u.recorder.ShortcodeRendered(len(events))
	}
	log.Debug("upcoming events rendered", slog.Int("count", len(events)))

	return b.String(), nil
}

// Handle — обработчик шорткода для Registry.
func (u *Upcoming) Handle(ctx context.Context, raw map[string]string) (string, error) {
	return u.Render(ctx, ParseAttributes(raw))
}

func (u *Upcoming) writeEvent(b *strings.Builder, ev domain.UpcomingEvent) {
	b.WriteString("<h4>" + html.EscapeString(ev.Event.Title) + "</h4>")

	b.WriteString(`<div class="event-meta">`)
	if ev.Event.Thumbnail != "" {
		b.WriteString(`<img src="` + html.EscapeString(ev.Event.Thumbnail) + `" class="alignright" alt="" />`)
	}
	b.WriteString("<strong>" + u.tr.T("listing.date") + "</strong>: ")
	b.WriteString(html.EscapeString(FormatRange(u.tr, *ev.Meta.StartDate, ev.Meta.EndDate)))
	if ev.Meta.Time != "" {
		b.WriteString("<br /> <strong>" + u.tr.T("listing.time") + "</strong>: " + html.EscapeString(ev.Meta.Time))
	}
	if ev.Meta.Location != "" {
		b.WriteString("<br /> <strong>" + u.tr.T("listing.location") + "</strong>: " + html.EscapeString(ev.Meta.Location))
	}
	b.WriteString("</div>")

	b.WriteString("<p>" + excerpt(ev.Event.Content) + "</p>")
}

func excerpt(content string) string {
	words := strings.Fields(sanitize.StripAllTags(content))
	if len(words) <= excerptWords {
		return html.EscapeString(strings.Join(words, " "))
	}
	return html.EscapeString(strings.Join(words[:excerptWords], " ")) + "&hellip;"
}

// FormatRange форматирует диапазон дат мероприятия. Если дата окончания
// есть и год совпадает, у начала год опускается: "June 1 – June 3, 2024".
// Иначе начало выводится полностью, а окончание, если есть, через тире.
func FormatRange(tr *i18n.Translator, start time.Time, end *time.Time) string {
	if end != nil && start.Year() == end.Year() {
		return tr.FormatDate(start, i18n.LayoutMonthDay) + " – " + tr.FormatDate(*end, i18n.LayoutMonthDayYear)
	}
	s := tr.FormatDate(start, i18n.LayoutMonthDayYear)
	if end != nil {
		s += " – " + tr.FormatDate(*end, i18n.LayoutMonthDayYear)
	}
	return s
}

// Init регистрирует шорткод upcoming_events.
func Init(r *Registry, u *Upcoming) {
	r.Register(Tag, u.Handle)
}
