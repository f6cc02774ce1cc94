// Package metabox рисует форму метаданных мероприятия и сохраняет её.
package metabox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"

	"plainEvents/internal/i18n"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/sanitize"

	"github.com/google/uuid"
)

const (
	// NonceAction — действие, к которому привязан токен формы.
	NonceAction = "event_metabox_nonce"
	// NonceField — имя скрытого поля с токеном.
	NonceField = "event_metabox_nonce"
)

// Field описывает одно поле формы. Ключ поля совпадает с ключом метаданных.
type Field struct {
	Key         string
	LabelKey    string
	MaxLength   int
	Placeholder string
	Required    bool
}

// Fields возвращает поля формы в порядке отображения.
func Fields() []Field {
	return []Field{
		{Key: domain.MetaStartDate, LabelKey: "field.start_date", MaxLength: 40, Placeholder: "placeholder.datepicker", Required: true},
		{Key: domain.MetaEndDate, LabelKey: "field.end_date", MaxLength: 40, Placeholder: "placeholder.datepicker", Required: true},
		{Key: domain.MetaTime, LabelKey: "field.time", MaxLength: 20, Placeholder: "placeholder.time", Required: true},
		{Key: domain.MetaLocation, LabelKey: "field.location", MaxLength: 100, Placeholder: "placeholder.location", Required: true},
		{Key: domain.MetaLink, LabelKey: "field.link", MaxLength: 200, Placeholder: "placeholder.link"},
	}
}

// MetaStore — хранилище метаданных, нужное форме.
type MetaStore interface {
	FindPostByID(ctx context.Context, id uuid.UUID) (domain.Event, error)
	GetAllMeta(ctx context.Context, postID uuid.UUID) (map[string]string, error)
	UpdateMeta(ctx context.Context, postID uuid.UUID, key, value string) error
}

// Nonces выпускает и проверяет токены формы.
type Nonces interface {
	Create(action, userID string) (string, error)
	Verify(token, action, userID string) bool
}

// Recorder считает исходы сохранения.
type Recorder interface {
	MetaboxOutcome(outcome string)
}

type Metabox struct {
	logger   *slog.Logger
	store    MetaStore
	nonces   Nonces
	tr       *i18n.Translator
	recorder Recorder
}

func New(logger *slog.Logger, store MetaStore, nonces Nonces, tr *i18n.Translator, recorder Recorder) *Metabox {
	return &Metabox{
		logger:   logger,
		store:    store,
		nonces:   nonces,
		tr:       tr,
		recorder: recorder,
	}
}

var formTmpl = template.Must(template.New("metabox").Parse(`<input type="hidden" id="{{.NonceField}}" name="{{.NonceField}}" value="{{.Nonce}}" />
{{range .Fields}}<p>
	<label for="{{.Key}}">{{.Label}}</label>
	<input class="widefat" id="{{.Key}}" type="text" name="{{.Key}}"{{if .Required}} required{{end}} maxlength="{{.MaxLength}}" placeholder="{{.Placeholder}}" value="{{.Value}}" />
</p>
{{end}}`))

type fieldView struct {
	Key         string
	Label       string
	MaxLength   int
	Placeholder string
	Required    bool
	Value       string
}

// Render возвращает HTML формы, заполненной сохранёнными значениями
// (пустая строка для незаданных), с токеном, выпущенным для actor.
func (m *Metabox) Render(ctx context.Context, event domain.Event, actor domain.Actor) (string, error) {
	op := "metabox.Render()"

	meta, err := m.store.GetAllMeta(ctx, event.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := m.nonces.Create(NonceAction, actor.UserID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	fields := Fields()
	views := make([]fieldView, len(fields))
	for i, f := range fields {
		views[i] = fieldView{
			Key:         f.Key,
			Label:       m.tr.T(f.LabelKey),
			MaxLength:   f.MaxLength,
			Placeholder: m.tr.T(f.Placeholder),
			Required:    f.Required,
			Value:       meta[f.Key],
		}
	}

	var buf bytes.Buffer
	err = formTmpl.Execute(&buf, struct {
		NonceField string
		Nonce      string
		Fields     []fieldView
	}{
		NonceField: NonceField,
		Nonce:      token,
		Fields:     views,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return buf.String(), nil
}

// SaveRequest — отправка формы для записи PostID.
type SaveRequest struct {
	PostID   uuid.UUID
	Actor    domain.Actor
	Form     url.Values
	Autosave bool
}

// Persist проверяет токен, автосохранение, тип записи и права, затем
// сохраняет присланные поля. Отсутствующие в форме поля не трогаются.
// Отказ не является ошибкой: он возвращается как Outcome, error — только
// при сбое хранилища.
func (m *Metabox) Persist(ctx context.Context, req SaveRequest) (Outcome, error) {
	op := "metabox.Persist()"
	log := m.logger.With(
		slog.String("op", op),
		slog.String("postID", req.PostID.String()),
	)

	outcome, err := m.persist(ctx, req)
	if err != nil {
		return outcome, fmt.Errorf("%s: %w", op, err)
	}

	if m.recorder != nil {
		m.recorder.MetaboxOutcome(outcome.String())
	}
	log.Debug("metabox save", slog.String("outcome", outcome.String()))

	return outcome, nil
}

func (m *Metabox) persist(ctx context.Context, req SaveRequest) (Outcome, error) {
	token, ok := req.Form[NonceField]
	if !ok || len(token) == 0 {
		return RejectedMissingToken, nil
	}
	if !m.nonces.Verify(token[0], NonceAction, req.Actor.UserID) {
		return RejectedInvalidToken, nil
	}
	if req.Autosave {
		return RejectedAutosave, nil
	}

	event, err := m.store.FindPostByID(ctx, req.PostID)
	if errors.Is(err, domain.ErrNotFound) {
		return RejectedWrongType, nil
	}
	if err != nil {
		return RejectedWrongType, err
	}
	if !event.IsEvent() {
		return RejectedWrongType, nil
	}
	if !req.Actor.CanEditPost(event) {
		return RejectedForbidden, nil
	}

	for _, f := range Fields() {
		values, present := req.Form[f.Key]
		if !present {
			continue
		}
		value := ""
		if len(values) > 0 {
			value = values[0]
		}
		value = sanitize.Truncate(sanitize.TextField(value), f.MaxLength)
		if err := m.store.UpdateMeta(ctx, req.PostID, f.Key, value); err != nil {
			return Saved, err
		}
	}

	return Saved, nil
}
