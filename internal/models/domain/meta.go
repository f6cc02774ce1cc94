package domain

import (
	"strconv"
	"strings"
	"time"
)

// EventMeta — типизированное представление метаданных мероприятия.
// Сырые строки хранятся как есть; даты разбираются один раз при построении.
type EventMeta struct {
	Raw map[string]string

	StartDate *time.Time
	EndDate   *time.Time
	Time      string
	Location  string
	Link      string
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
}

// ParseEventMeta строит EventMeta из сырых значений. Даты, которые не
// удалось разобрать, остаются nil, а их сырые строки доступны в Raw.
func ParseEventMeta(raw map[string]string, loc *time.Location) EventMeta {
	if loc == nil {
		loc = time.UTC
	}
	m := EventMeta{
		Raw:      make(map[string]string, len(raw)),
		Time:     raw[MetaTime],
		Location: raw[MetaLocation],
		Link:     raw[MetaLink],
	}
	for k, v := range raw {
		m.Raw[k] = v
	}
	if t, ok := ParseDate(raw[MetaStartDate], loc); ok {
		m.StartDate = &t
	}
	if t, ok := ParseDate(raw[MetaEndDate], loc); ok {
		m.EndDate = &t
	}
	return m
}

// ParseDate разбирает значение даты: unix-секунды (так отдаёт datepicker)
// либо календарная дата в одном из dateLayouts в часовом поясе loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(n, 0).In(loc), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HasStartDate сообщает, пригодна ли запись для сортировки и фильтрации по дате.
func (m EventMeta) HasStartDate() bool {
	return m.StartDate != nil
}

// StartOfDay возвращает полночь дня t в часовом поясе loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
