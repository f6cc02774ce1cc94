package metabox

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"strings"
	"testing"
	"time"

	"plainEvents/internal/i18n"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/nonce"

	"github.com/google/uuid"
)

type fakeStore struct {
	posts map[uuid.UUID]domain.Event
	meta  map[uuid.UUID]map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts: make(map[uuid.UUID]domain.Event),
		meta:  make(map[uuid.UUID]map[string]string),
	}
}

func (s *fakeStore) add(e domain.Event, meta map[string]string) {
	s.posts[e.ID] = e
	s.meta[e.ID] = meta
}

func (s *fakeStore) FindPostByID(_ context.Context, id uuid.UUID) (domain.Event, error) {
	e, ok := s.posts[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return e, nil
}

func (s *fakeStore) GetAllMeta(_ context.Context, id uuid.UUID) (map[string]string, error) {
	return maps.Clone(s.meta[id]), nil
}

func (s *fakeStore) UpdateMeta(_ context.Context, id uuid.UUID, key, value string) error {
	if s.meta[id] == nil {
		s.meta[id] = make(map[string]string)
	}
	s.meta[id][key] = value
	return nil
}

type countingRecorder map[string]int

func (c countingRecorder) MetaboxOutcome(outcome string) { c[outcome]++ }

var editor = domain.Actor{UserID: "ed", Role: domain.RoleEditor}

func setup(t *testing.T) (*Metabox, *fakeStore, *nonce.Manager, countingRecorder) {
	t.Helper()
	store := newFakeStore()
	nonces := nonce.New("test-secret", time.Hour)
	rec := countingRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, store, nonces, i18n.Load("en"), rec), store, nonces, rec
}

func validToken(t *testing.T, n *nonce.Manager, userID string) string {
	t.Helper()
	token, err := n.Create(NonceAction, userID)
	if err != nil {
		t.Fatalf("create nonce: %v", err)
	}
	return token
}

func TestPersistPartialUpdate(t *testing.T) {
	mb, store, nonces, rec := setup(t)
	id := uuid.New()
	store.add(domain.Event{ID: id, PostType: domain.PostTypeEvent, Author: "ed"}, map[string]string{
		domain.MetaTime:     "18:00",
		domain.MetaLocation: "Old Hall",
	})

	form := url.Values{
		NonceField:           {validToken(t, nonces, editor.UserID)},
		domain.MetaStartDate: {"1717200000"},
		domain.MetaLocation:  {"<b>Union</b> Square"},
	}

	outcome, err := mb.Persist(context.Background(), SaveRequest{PostID: id, Actor: editor, Form: form})
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if outcome != Saved {
		t.Fatalf("outcome = %v, want saved", outcome)
	}

	got := store.meta[id]
	want := map[string]string{
		domain.MetaStartDate: "1717200000",
		domain.MetaLocation:  "Union Square",
		domain.MetaTime:      "18:00",
	}
	if !maps.Equal(got, want) {
		t.Errorf("meta = %v, want %v", got, want)
	}
	if rec["saved"] != 1 {
		t.Errorf("recorder = %v", rec)
	}
}

func TestPersistEmptyValueClearsField(t *testing.T) {
	mb, store, nonces, _ := setup(t)
	id := uuid.New()
	store.add(domain.Event{ID: id, PostType: domain.PostTypeEvent}, map[string]string{domain.MetaLink: "example.org"})

	form := url.Values{
		NonceField:      {validToken(t, nonces, editor.UserID)},
		domain.MetaLink: {""},
	}
	if _, err := mb.Persist(context.Background(), SaveRequest{PostID: id, Actor: editor, Form: form}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if v, ok := store.meta[id][domain.MetaLink]; !ok || v != "" {
		t.Errorf("link = %q (present %v), want empty and present", v, ok)
	}
}

func TestPersistTruncatesToMaxLength(t *testing.T) {
	mb, store, nonces, _ := setup(t)
	id := uuid.New()
	store.add(domain.Event{ID: id, PostType: domain.PostTypeEvent}, nil)

	form := url.Values{
		NonceField:      {validToken(t, nonces, editor.UserID)},
		domain.MetaTime: {strings.Repeat("9", 30)},
	}
	if _, err := mb.Persist(context.Background(), SaveRequest{PostID: id, Actor: editor, Form: form}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if got := store.meta[id][domain.MetaTime]; len(got) != 20 {
		t.Errorf("time length = %d, want 20", len(got))
	}
}

func TestPersistRejections(t *testing.T) {
	mb, store, nonces, rec := setup(t)

	eventID := uuid.New()
	pageID := uuid.New()
	foreignID := uuid.New()
	before := map[string]string{domain.MetaLocation: "Union Square"}
	store.add(domain.Event{ID: eventID, PostType: domain.PostTypeEvent, Author: "ed"}, maps.Clone(before))
	store.add(domain.Event{ID: pageID, PostType: "page", Author: "ed"}, maps.Clone(before))
	store.add(domain.Event{ID: foreignID, PostType: domain.PostTypeEvent, Author: "someone"}, maps.Clone(before))

	author := domain.Actor{UserID: "au", Role: domain.RoleAuthor}

	tests := []struct {
		name     string
		postID   uuid.UUID
		actor    domain.Actor
		token    string
		noToken  bool
		autosave bool
		want     Outcome
	}{
		{name: "missing token", postID: eventID, actor: editor, noToken: true, want: RejectedMissingToken},
		{name: "invalid token", postID: eventID, actor: editor, token: "garbage", want: RejectedInvalidToken},
		{name: "token of another user", postID: eventID, actor: editor, token: validToken(t, nonces, "other"), want: RejectedInvalidToken},
		{name: "autosave", postID: eventID, actor: editor, token: validToken(t, nonces, "ed"), autosave: true, want: RejectedAutosave},
		{name: "not an event", postID: pageID, actor: editor, token: validToken(t, nonces, "ed"), want: RejectedWrongType},
		{name: "unknown record", postID: uuid.New(), actor: editor, token: validToken(t, nonces, "ed"), want: RejectedWrongType},
		{name: "no permission", postID: foreignID, actor: author, token: validToken(t, nonces, "au"), want: RejectedForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{domain.MetaLocation: {"Hijacked"}}
			if !tt.noToken {
				form.Set(NonceField, tt.token)
			}

			outcome, err := mb.Persist(context.Background(), SaveRequest{
				PostID:   tt.postID,
				Actor:    tt.actor,
				Form:     form,
				Autosave: tt.autosave,
			})
			if err != nil {
				t.Fatalf("rejection must be silent, got error %v", err)
			}
			if outcome != tt.want {
				t.Fatalf("outcome = %v, want %v", outcome, tt.want)
			}
			if outcome.IsSaved() {
				t.Fatal("rejected outcome reports saved")
			}
			if meta, ok := store.meta[tt.postID]; ok && !maps.Equal(meta, before) {
				t.Errorf("meta changed on rejection: %v", meta)
			}
		})
	}

	if rec["rejected_invalid_token"] != 2 {
		t.Errorf("invalid token count = %d, want 2", rec["rejected_invalid_token"])
	}
}

func TestRender(t *testing.T) {
	mb, store, nonces, _ := setup(t)
	id := uuid.New()
	store.add(domain.Event{ID: id, PostType: domain.PostTypeEvent}, map[string]string{
		domain.MetaLocation: `"Quoted" <Hall>`,
		domain.MetaTime:     "19:00 - 21:00",
	})

	out, err := mb.Render(context.Background(), domain.Event{ID: id}, editor)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		`name="event_metabox_nonce"`,
		`name="event-start-date" required maxlength="40" placeholder="Use datepicker" value=""`,
		`name="event-end-date" required maxlength="40"`,
		`name="event-time" required maxlength="20" placeholder="Example: 19:00 - 21:00" value="19:00 - 21:00"`,
		`name="event-location" required maxlength="100"`,
		`value="&#34;Quoted&#34; &lt;Hall&gt;"`,
		`name="event-link" maxlength="200" placeholder="Example: www.eventsite.com" value=""`,
		`<label for="event-link">Link to more info</label>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q\n%s", want, out)
		}
	}

	start := strings.Index(out, `value="`) + len(`value="`)
	token := out[start : start+strings.Index(out[start:], `"`)]
	if !nonces.Verify(token, NonceAction, editor.UserID) {
		t.Error("rendered token does not verify for the rendering user")
	}
}
