// Package columns добавляет производные колонки в список мероприятий админки.
package columns

import (
	"context"
	"fmt"
	"strings"

	"plainEvents/internal/i18n"
	"plainEvents/internal/models/domain"

	"github.com/google/uuid"
)

// Ключи колонок списка.
const (
	KeyDate      = "date"
	KeyStartDate = "start_date_column"
	KeyEndDate   = "end_date_column"
	KeyTime      = "time_column"
	KeyLocation  = "location_column"
)

// Column — колонка списка записей.
type Column struct {
	Key   string
	Label string
}

var metaByColumn = map[string]string{
	KeyStartDate: domain.MetaStartDate,
	KeyEndDate:   domain.MetaEndDate,
	KeyTime:      domain.MetaTime,
	KeyLocation:  domain.MetaLocation,
}

// Derived возвращает четыре колонки, которые добавляются к набору по умолчанию.
func Derived() []Column {
	return []Column{
		{Key: KeyStartDate, Label: "Start date"},
		{Key: KeyEndDate, Label: "End date"},
		{Key: KeyTime, Label: "Time"},
		{Key: KeyLocation, Label: "Location"},
	}
}

// Columns убирает колонку "date" и добавляет производные колонки в конец,
// сохраняя порядок остальных.
func Columns(defaults []Column) []Column {
	out := make([]Column, 0, len(defaults)+4)
	for _, c := range defaults {
		if c.Key == KeyDate {
			continue
		}
		out = append(out, c)
	}
	return append(out, Derived()...)
}

// Translate подставляет локализованные заголовки из каталога (ключи column.*).
// Колонки без перевода сохраняют исходный заголовок.
func Translate(cols []Column, tr *i18n.Translator) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		key := "column." + strings.TrimSuffix(c.Key, "_column")
		if label := tr.T(key); label != key {
			c.Label = label
		}
		out[i] = c
	}
	return out
}

// Cell возвращает значение ячейки column для метаданных meta. Для пустых
// значений и неизвестных колонок ячейка пустая.
func Cell(column string, meta map[string]string) string {
	key, ok := metaByColumn[column]
	if !ok {
		return ""
	}
	return meta[key]
}

// MetaReader читает метаданные записи.
type MetaReader interface {
	GetAllMeta(ctx context.Context, postID uuid.UUID) (map[string]string, error)
}

// Renderer заполняет ячейки, читая метаданные из хранилища.
type Renderer struct {
	meta MetaReader
}

func NewRenderer(meta MetaReader) *Renderer {
	return &Renderer{meta: meta}
}

// Render возвращает содержимое ячейки column для записи postID.
func (r *Renderer) Render(ctx context.Context, column string, postID uuid.UUID) (string, error) {
	if _, ok := metaByColumn[column]; !ok {
		return "", nil
	}
	meta, err := r.meta.GetAllMeta(ctx, postID)
	if err != nil {
		return "", fmt.Errorf("columns.Render(): %w", err)
	}
	return Cell(column, meta), nil
}
