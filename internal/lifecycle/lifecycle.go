// Package lifecycle выполняет действия при включении и выключении сервиса.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"plainEvents/internal/i18n"
	"plainEvents/internal/registry"
)

type Migrator interface {
	Migrate(ctx context.Context) error
}

type Lifecycle struct {
	logger   *slog.Logger
	store    Migrator
	registry *registry.Registry
	locale   string
}

func New(logger *slog.Logger, store Migrator, reg *registry.Registry, locale string) *Lifecycle {
	return &Lifecycle{
		logger:   logger,
		store:    store,
		registry: reg,
		locale:   locale,
	}
}

// Activate готовит схему и регистрирует тип записи и таксономию.
// Повторный вызов безопасен.
func (l *Lifecycle) Activate(ctx context.Context) (*i18n.Translator, error) {
	op := "lifecycle.Activate()"
	log := l.logger.With(slog.String("op", op))

	if err := l.store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := registry.Init(l.registry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tr := i18n.Load(l.locale)

	log.Info("activated",
		slog.String("text_domain", i18n.TextDomain),
		slog.String("locale", tr.Tag().String()),
	)

	return tr, nil
}

// Deactivate ничего не удаляет: данные мероприятий сохраняются.
func (l *Lifecycle) Deactivate(ctx context.Context) error {
	l.logger.Info("deactivated", slog.String("op", "lifecycle.Deactivate()"))
	return nil
}
