package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"plainEvents/internal/auth"
	"plainEvents/internal/columns"
	"plainEvents/internal/i18n"
	"plainEvents/internal/metabox"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/nonce"
	"plainEvents/internal/registry"
	"plainEvents/internal/shortcode"
	myMiddleware "plainEvents/internal/transport/httpServer/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type memRepo struct {
	mu    sync.Mutex
	clock time.Time
	posts map[uuid.UUID]domain.Event
	meta  map[uuid.UUID]map[string]string
	terms []domain.Category
	rels  map[uuid.UUID][]uuid.UUID
}

func newMemRepo() *memRepo {
	return &memRepo{
		clock: time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
		posts: make(map[uuid.UUID]domain.Event),
		meta:  make(map[uuid.UUID]map[string]string),
		rels:  make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *memRepo) CreatePost(_ context.Context, e domain.Event) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = domain.PostStatusDraft
	}
	m.clock = m.clock.Add(time.Minute)
	e.CreatedAt, e.UpdatedAt = m.clock, m.clock
	m.posts[e.ID] = e
	return e, nil
}

func (m *memRepo) FindPostByID(_ context.Context, id uuid.UUID) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.posts[id]
	if !ok {
		return domain.Event{}, fmt.Errorf("memRepo.FindPostByID(): %w", domain.ErrNotFound)
	}
	return e, nil
}

func (m *memRepo) UpdatePost(_ context.Context, e domain.Event) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[e.ID]; !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	m.posts[e.ID] = e
	return e, nil
}

func (m *memRepo) DeletePost(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.posts, id)
	delete(m.meta, id)
	delete(m.rels, id)
	return nil
}

func (m *memRepo) ListPosts(_ context.Context, postType string, status domain.PostStatus) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Event
	for _, e := range m.posts {
		if e.PostType == postType && (status == "" || e.Status == status) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b domain.Event) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *memRepo) GetAllMeta(_ context.Context, id uuid.UUID) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := maps.Clone(m.meta[id])
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

func (m *memRepo) UpdateMeta(_ context.Context, id uuid.UUID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.meta[id] == nil {
		m.meta[id] = make(map[string]string)
	}
	m.meta[id][key] = value
	return nil
}

func (m *memRepo) CreateTerm(_ context.Context, c domain.Category) (domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.terms = append(m.terms, c)
	return c, nil
}

func (m *memRepo) ListTerms(_ context.Context, taxonomy string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Category
	for _, c := range m.terms {
		if c.Taxonomy == taxonomy {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) SetPostTerms(_ context.Context, postID uuid.UUID, _ string, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rels[postID] = slices.Clone(ids)
	return nil
}

func (m *memRepo) PostTerms(_ context.Context, postID uuid.UUID, taxonomy string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Category
	for _, c := range m.terms {
		if c.Taxonomy == taxonomy && slices.Contains(m.rels[postID], c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) add(t *testing.T, title, author string, status domain.PostStatus, meta map[string]string) domain.Event {
	t.Helper()
	e, err := m.CreatePost(context.Background(), domain.Event{
		PostType: domain.PostTypeEvent,
		Title:    title,
		Content:  "<p>About " + title + "</p>",
		Status:   status,
		Author:   author,
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	for k, v := range meta {
		_ = m.UpdateMeta(context.Background(), e.ID, k, v)
	}
	return e
}

type noopRecorder struct{}

func (noopRecorder) MetaboxOutcome(string) {}

type stubUpcoming struct {
	last shortcode.Attributes
}

func (s *stubUpcoming) Render(_ context.Context, attrs shortcode.Attributes) (string, error) {
	s.last = attrs
	return `<div class="` + attrs.Class + `">LISTING</div>`, nil
}

type stubFeed struct{}

func (stubFeed) Build(context.Context, shortcode.Attributes) (string, error) {
	return "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", nil
}

type testEnv struct {
	repo     *memRepo
	nonces   *nonce.Manager
	authn    *auth.Authenticator
	upcoming *stubUpcoming
	mux      *chi.Mux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	reg := registry.New()
	if err := registry.Init(reg); err != nil {
		t.Fatalf("registry init: %v", err)
	}
	return newTestEnvWith(t, reg)
}

func newTestEnvWith(t *testing.T, reg *registry.Registry) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemRepo()
	tr := i18n.Load("en")
	nonces := nonce.New("test-secret", time.Hour)
	authn := auth.New("test-secret")
	upcoming := &stubUpcoming{}

	shortcodes := shortcode.NewRegistry()
	shortcodes.Register(shortcode.Tag, func(ctx context.Context, raw map[string]string) (string, error) {
		return upcoming.Render(ctx, shortcode.ParseAttributes(raw))
	})

	assetsCfg := AssetsConfig{Prefix: "/assets", Version: "test"}
	eventHandler := NewEventHandler(logger, repo, repo, time.UTC)
	adminHandler := NewAdminHandler(logger, repo, repo,
		metabox.New(logger, repo, nonces, tr, noopRecorder{}),
		columns.NewRenderer(repo), nonces, reg, tr, assetsCfg)
	publicHandler := NewPublicHandler(logger, repo, repo, shortcodes, upcoming, stubFeed{}, reg, tr, time.UTC, assetsCfg)

	mux := chi.NewRouter()
	mux.Use(myMiddleware.Authenticate(authn))
	mux.Get("/", publicHandler.Archive)
	mux.Get("/upcoming", publicHandler.Upcoming)
	mux.Get("/events.ics", publicHandler.Feed)
	mux.Get("/event/{eventId}", publicHandler.Single)
	mux.Route("/admin/events", func(mux chi.Router) {
		mux.Use(myMiddleware.RequireActor)
		mux.Get("/", adminHandler.ListEvents)
		mux.Post("/", adminHandler.CreateEvent)
		mux.Get("/{eventId}/edit", adminHandler.EditEvent)
		mux.Post("/{eventId}", adminHandler.SaveEvent)
		mux.Post("/{eventId}/delete", adminHandler.DeleteEvent)
	})
	mux.Route("/api/v1", func(mux chi.Router) {
		mux.Get("/events", eventHandler.GetEvents)
		mux.Get("/events/{eventId}", eventHandler.GetEvent)
		mux.Put("/events/{eventId}/status", eventHandler.UpdateStatus)
		mux.Get("/event_category", eventHandler.GetCategories)
		mux.Post("/event_category", eventHandler.CreateCategory)
	})

	return &testEnv{repo: repo, nonces: nonces, authn: authn, upcoming: upcoming, mux: mux}
}

func (e *testEnv) token(t *testing.T, user string, role domain.Role) string {
	t.Helper()
	token, err := e.authn.IssueToken(domain.Actor{UserID: user, Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (e *testEnv) nonce(t *testing.T, action, user string) string {
	t.Helper()
	token, err := e.nonces.Create(action, user)
	if err != nil {
		t.Fatalf("create nonce: %v", err)
	}
	return token
}

// do выполняет запрос; body с префиксом "{" отправляется как JSON, иначе как форма.
func (e *testEnv) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	switch {
	case strings.HasPrefix(body, "{"):
		req.Header.Set("Content-Type", "application/json")
	case body != "":
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func form(kv ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Add(kv[i], kv[i+1])
	}
	return v.Encode()
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

