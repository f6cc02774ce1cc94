// Package shortcode разворачивает шорткоды вида [tag attr="value"] в тексте
// записи и содержит шорткод upcoming_events.
package shortcode

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Handler строит разметку для одного вхождения шорткода.
type Handler func(ctx context.Context, attrs map[string]string) (string, error)

// Registry хранит обработчики по имени тега.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register добавляет или заменяет обработчик тега.
func (r *Registry) Register(tag string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[tag] = h
}

func (r *Registry) handler(tag string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[tag]
	return h, ok
}

var (
	tagRe  = regexp.MustCompile(`\[(\[?)([A-Za-z0-9_-]+)((?:\s[^\]]*)?)\](\]?)`)
	attrRe = regexp.MustCompile(`([A-Za-z0-9_-]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s'"]+))`)
)

// Expand заменяет зарегистрированные шорткоды в content результатом их
// обработчиков. Незарегистрированные теги остаются как есть, у экранированных
// [[tag]] зарегистрированного тега снимается одна пара скобок.
func (r *Registry) Expand(ctx context.Context, content string) (string, error) {
	var firstErr error

	out := tagRe.ReplaceAllStringFunc(content, func(match string) string {
		if firstErr != nil {
			return match
		}
		m := tagRe.FindStringSubmatch(match)
		open, tag, rawAttrs, closing := m[1], m[2], m[3], m[4]

		h, ok := r.handler(tag)
		if !ok {
			return match
		}
		if open == "[" && closing == "]" {
			return match[1 : len(match)-1]
		}

		html, err := h(ctx, ParseAttrs(rawAttrs))
		if err != nil {
			firstErr = fmt.Errorf("shortcode %q: %w", tag, err)
			return match
		}
		return open + html + closing
	})

	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ParseAttrs разбирает строку атрибутов шорткода. Имена приводятся
// к нижнему регистру.
func ParseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(s, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		if value == "" {
			value = m[4]
		}
		attrs[strings.ToLower(m[1])] = value
	}
	return attrs
}
