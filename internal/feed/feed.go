// Package feed отдаёт ближайшие мероприятия в формате iCalendar.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"plainEvents/internal/models/domain"
	"plainEvents/internal/sanitize"
	"plainEvents/internal/shortcode"

	ical "github.com/arran4/golang-ical"
)

const productID = "-//plainEvents//Upcoming Events//EN"

// Source возвращает мероприятия для ленты.
type Source interface {
	Query(ctx context.Context, attrs shortcode.Attributes) ([]domain.UpcomingEvent, error)
}

type Feed struct {
	source Source
	host   string
	now    func() time.Time
}

// New создаёт ленту; host используется в UID событий.
func New(source Source, host string) *Feed {
	if host == "" {
		host = "localhost"
	}
	return &Feed{source: source, host: host, now: time.Now}
}

// Build собирает календарь из тех же мероприятий, что показывает шорткод
// с атрибутами attrs. Все события — на весь день; DTEND исключающий.
func (f *Feed) Build(ctx context.Context, attrs shortcode.Attributes) (string, error) {
	op := "feed.Build()"

	events, err := f.source.Query(ctx, attrs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	stamp := f.now().UTC()
	for _, ev := range events {
		vevent := cal.AddEvent(ev.Event.ID.String() + "@" + f.host)
		vevent.SetDtStampTime(stamp)
		vevent.SetModifiedAt(ev.Event.UpdatedAt)
		vevent.SetSummary(ev.Event.Title)

		start := *ev.Meta.StartDate
		end := start
		if ev.Meta.EndDate != nil && !ev.Meta.EndDate.Before(start) {
			end = *ev.Meta.EndDate
		}
		vevent.SetAllDayStartAt(start)
		vevent.SetAllDayEndAt(end.AddDate(0, 0, 1))

		if ev.Meta.Location != "" {
			vevent.SetLocation(ev.Meta.Location)
		}
		if link := normalizeLink(ev.Meta.Link); link != "" {
			vevent.SetURL(link)
		}
		if desc := sanitize.TrimWords(ev.Event.Content, 70, "…"); desc != "" {
			vevent.SetDescription(desc)
		}
	}

	return cal.Serialize(), nil
}

// normalizeLink дописывает схему к ссылкам вида www.example.com.
func normalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if strings.Contains(link, "://") {
		return link
	}
	return "https://" + link
}
