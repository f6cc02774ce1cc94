// Package i18n загружает текстовый домен ql-plain-events и форматирует даты
// с локализованными названиями месяцев.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// TextDomain — имя текстового домена каталогов.
const TextDomain = "ql-plain-events"

// Форматы дат в нотации date_i18n, которые понимает FormatDate.
const (
	LayoutMonthDay     = "F j"
	LayoutMonthDayYear = "F j, Y"
	LayoutYear         = "Y"
)

//go:embed locales/*.yaml
var localesFS embed.FS

var (
	messages  = catalog.NewBuilder(catalog.Fallback(language.English))
	supported = mustRegister(localesFS, messages)
)

// Translator переводит ключи каталога для одной локали.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// Load выбирает ближайшую поддерживаемую локаль; по умолчанию английский.
func Load(locale string) *Translator {
	tag := language.English
	if t, err := language.Parse(locale); err == nil {
		matcher := language.NewMatcher(supported)
		_, idx, conf := matcher.Match(t)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Tag возвращает выбранную локаль.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// T возвращает перевод ключа; неизвестный ключ возвращается как есть.
func (t *Translator) T(key string) string {
	return t.printer.Sprintf(key)
}

// MonthName возвращает локализованное название месяца.
func (t *Translator) MonthName(m time.Month) string {
	return t.T("month." + strings.ToLower(m.String()))
}

// FormatDate форматирует tm по одному из форматов LayoutMonthDay,
// LayoutMonthDayYear, LayoutYear.
func (t *Translator) FormatDate(tm time.Time, layout string) string {
	var b strings.Builder
	for _, r := range layout {
		switch r {
		case 'F':
			b.WriteString(t.MonthName(tm.Month()))
		case 'j':
			b.WriteString(strconv.Itoa(tm.Day()))
		case 'Y':
			b.WriteString(strconv.Itoa(tm.Year()))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func mustRegister(fsys fs.FS, b *catalog.Builder) []language.Tag {
	tags, err := register(fsys, b)
	if err != nil {
		panic(err)
	}
	return tags
}

// register читает locales/<lang>.yaml и добавляет сообщения в каталог.
// Английский всегда идёт первым, чтобы стать fallback для matcher.
// Переводы не содержат глаголов формата, поэтому % экранируется.
func register(fsys fs.FS, b *catalog.Builder) ([]language.Tag, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	sort.Strings(paths)

	tags := []language.Tag{language.English}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}

		var entries map[string]string
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}

		tag, err := language.Parse(strings.TrimSuffix(path.Base(p), ".yaml"))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}
		for key, value := range entries {
			if err := b.SetString(tag, key, strings.ReplaceAll(value, "%", "%%")); err != nil {
				return nil, fmt.Errorf("catalog %s key %s: %w", p, key, err)
			}
		}
		if tag != language.English {
			tags = append(tags, tag)
		}
	}

	return tags, nil
}
