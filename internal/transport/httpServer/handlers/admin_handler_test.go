package handlers

import (
	"net/http"
	"strings"
	"testing"

	"plainEvents/internal/metabox"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/registry"
)

func TestAdminRequiresActor(t *testing.T) {
	env := newTestEnv(t)
	wantStatus(t, env.do(t, http.MethodGet, "/admin/events/", "", ""), http.StatusUnauthorized)
}

func TestAdminListColumns(t *testing.T) {
	env := newTestEnv(t)
	env.repo.add(t, "Summer Fair", "alice", domain.PostStatusDraft, map[string]string{
		domain.MetaStartDate: "1717200000",
		domain.MetaLocation:  "Union Square",
	})

	rec := env.do(t, http.MethodGet, "/admin/events/", env.token(t, "erin", domain.RoleEditor), "")
	wantStatus(t, rec, http.StatusOK)
	body := rec.Body.String()

	for _, want := range []string{
		`column-start_date_column">Start date</th>`,
		`column-location_column">Location</th>`,
		`<td class="column-location_column">Union Square</td>`,
		`<td class="column-start_date_column">1717200000</td>`,
		`<span class="post-state">Draft</span>`,
		`ql-plain-events-admin.css?ver=test`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("listing missing %q", want)
		}
	}
	if strings.Contains(body, `column-date"`) {
		t.Error("default date column must be removed")
	}
}

func TestAdminCreateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "alice", domain.RoleAuthor)

	rec := env.do(t, http.MethodPost, "/admin/events/", token, form("post_title", "New one", adminNonceField, "forged"))
	wantStatus(t, rec, http.StatusForbidden)

	rec = env.do(t, http.MethodPost, "/admin/events/", token,
		form("post_title", "New one", adminNonceField, env.nonce(t, actionCreateEvent, "alice")))
	wantStatus(t, rec, http.StatusSeeOther)
	if len(env.repo.posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(env.repo.posts))
	}

	var created domain.Event
	for _, e := range env.repo.posts {
		created = e
	}
	if created.Status != domain.PostStatusDraft || created.Author != "alice" || created.Title != "New one" {
		t.Errorf("created = %+v", created)
	}
	if loc := rec.Header().Get("Location"); loc != editURL(created.ID) {
		t.Errorf("redirect = %q", loc)
	}

	deleteURL := "/admin/events/" + created.ID.String() + "/delete"
	wantStatus(t, env.do(t, http.MethodPost, deleteURL, token, form(adminNonceField, "forged")), http.StatusForbidden)
	wantStatus(t, env.do(t, http.MethodPost, deleteURL, env.token(t, "bob", domain.RoleAuthor),
		form(adminNonceField, env.nonce(t, actionDeleteEvent+created.ID.String(), "bob"))), http.StatusForbidden)

	rec = env.do(t, http.MethodPost, deleteURL, token,
		form(adminNonceField, env.nonce(t, actionDeleteEvent+created.ID.String(), "alice")))
	wantStatus(t, rec, http.StatusSeeOther)
	if len(env.repo.posts) != 0 {
		t.Errorf("posts = %d after delete, want 0", len(env.repo.posts))
	}
}

func TestAdminEditScreen(t *testing.T) {
	env := newTestEnv(t)
	e := env.repo.add(t, "Summer Fair", "alice", domain.PostStatusDraft, map[string]string{
		domain.MetaLocation: "Union Square",
	})

	rec := env.do(t, http.MethodGet, "/admin/events/"+e.ID.String()+"/edit", env.token(t, "alice", domain.RoleContributor), "")
	wantStatus(t, rec, http.StatusOK)
	body := rec.Body.String()

	for _, want := range []string{
		`<h2>Event Details</h2>`,
		`name="` + metabox.NonceField + `"`,
		`id="event-location" type="text" name="event-location" required maxlength="100"`,
		`value="Union Square"`,
		`ql-plain-events-admin.js?ver=test`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("edit screen missing %q", want)
		}
	}
	if n := strings.Count(body, `name="`+adminNonceField+`"`); n != 2 {
		t.Errorf("edit screen has %d form tokens, want 2", n)
	}
	if strings.Contains(body, `value="publish"`) {
		t.Error("contributor must not be offered publish")
	}

	wantStatus(t, env.do(t, http.MethodGet, "/admin/events/"+e.ID.String()+"/edit", env.token(t, "bob", domain.RoleAuthor), ""), http.StatusForbidden)
}

func TestAdminSaveEvent(t *testing.T) {
	env := newTestEnv(t)
	e := env.repo.add(t, "Old title", "alice", domain.PostStatusDraft, map[string]string{
		domain.MetaTime: "19:00",
	})
	target := "/admin/events/" + e.ID.String()
	updateNonce := env.nonce(t, actionUpdateEvent+e.ID.String(), "alice")

	t.Run("saves core fields and meta", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, target, env.token(t, "alice", domain.RoleAuthor), form(
			adminNonceField, updateNonce,
			"post_title", "Summer <b>Fair</b>",
			"post_status", "publish",
			metabox.NonceField, env.nonce(t, metabox.NonceAction, "alice"),
			domain.MetaLocation, "Union Square",
		))
		wantStatus(t, rec, http.StatusSeeOther)

		got := env.repo.posts[e.ID]
		if got.Title != "Summer Fair" || got.Status != domain.PostStatusPublish {
			t.Errorf("post = %+v", got)
		}
		meta := env.repo.meta[e.ID]
		if meta[domain.MetaLocation] != "Union Square" || meta[domain.MetaTime] != "19:00" {
			t.Errorf("meta = %v", meta)
		}
	})

	t.Run("invalid metabox token keeps meta silently", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, target, env.token(t, "alice", domain.RoleAuthor), form(
			adminNonceField, updateNonce,
			"post_title", "Renamed",
			metabox.NonceField, "forged",
			domain.MetaLocation, "Elsewhere",
		))
		wantStatus(t, rec, http.StatusSeeOther)

		if got := env.repo.posts[e.ID].Title; got != "Renamed" {
			t.Errorf("title = %q, want Renamed", got)
		}
		if got := env.repo.meta[e.ID][domain.MetaLocation]; got != "Union Square" {
			t.Errorf("location = %q, want unchanged", got)
		}
	})

	t.Run("autosave changes nothing", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, target, env.token(t, "alice", domain.RoleAuthor), form(
			adminNonceField, updateNonce,
			"autosave", "1",
			"post_title", "Autosaved",
			metabox.NonceField, env.nonce(t, metabox.NonceAction, "alice"),
			domain.MetaLocation, "Autosaved",
		))
		wantStatus(t, rec, http.StatusNoContent)

		if got := env.repo.posts[e.ID].Title; got != "Renamed" {
			t.Errorf("title = %q, want Renamed", got)
		}
		if got := env.repo.meta[e.ID][domain.MetaLocation]; got != "Union Square" {
			t.Errorf("location = %q, want unchanged", got)
		}
	})
}

func TestAdminSaveRequiresFormToken(t *testing.T) {
	env := newTestEnv(t)
	e := env.repo.add(t, "Old title", "alice", domain.PostStatusDraft, map[string]string{
		domain.MetaLocation: "Union Square",
	})
	target := "/admin/events/" + e.ID.String()
	editor := env.token(t, "erin", domain.RoleEditor)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"forged", "forged"},
		{"other user", env.nonce(t, actionUpdateEvent+e.ID.String(), "alice")},
		{"other event", env.nonce(t, actionUpdateEvent+"00000000-0000-0000-0000-000000000000", "erin")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, target, editor, form(
				adminNonceField, tt.token,
				"post_title", "Hijacked",
				"post_status", "publish",
				"content", "<script>alert(1)</script>",
				metabox.NonceField, env.nonce(t, metabox.NonceAction, "erin"),
				domain.MetaLocation, "Elsewhere",
			))
			wantStatus(t, rec, http.StatusForbidden)

			got := env.repo.posts[e.ID]
			if got.Title != "Old title" || got.Status != domain.PostStatusDraft || got.Content != e.Content {
				t.Errorf("post changed: %+v", got)
			}
			if loc := env.repo.meta[e.ID][domain.MetaLocation]; loc != "Union Square" {
				t.Errorf("location = %q, want unchanged", loc)
			}
		})
	}
}

func TestAdminSaveFiltersContent(t *testing.T) {
	env := newTestEnv(t)
	raw := `<p onclick="steal()">Hello</p><script>alert(1)</script>`

	tests := []struct {
		name     string
		user     string
		role     domain.Role
		filtered bool
	}{
		{"author filtered", "alice", domain.RoleAuthor, true},
		{"editor unfiltered", "erin", domain.RoleEditor, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := env.repo.add(t, "Fair", "alice", domain.PostStatusDraft, nil)
			rec := env.do(t, http.MethodPost, "/admin/events/"+e.ID.String(), env.token(t, tt.user, tt.role), form(
				adminNonceField, env.nonce(t, actionUpdateEvent+e.ID.String(), tt.user),
				"content", raw,
			))
			wantStatus(t, rec, http.StatusSeeOther)

			got := env.repo.posts[e.ID].Content
			if !tt.filtered {
				if got != raw {
					t.Errorf("content = %q, want verbatim", got)
				}
				return
			}
			if strings.Contains(got, "script") || strings.Contains(got, "steal") || !strings.Contains(got, "<p>Hello</p>") {
				t.Errorf("content = %q, want active markup removed", got)
			}
		})
	}
}

func TestAdminFieldsFollowSupports(t *testing.T) {
	reg := registry.New()
	ct := registry.EventContentType()
	ct.Supports = []string{"title", "editor"}
	if err := reg.RegisterContentType(ct); err != nil {
		t.Fatalf("register content type: %v", err)
	}
	if err := reg.RegisterTaxonomy(registry.EventCategoryTaxonomy()); err != nil {
		t.Fatalf("register taxonomy: %v", err)
	}
	env := newTestEnvWith(t, reg)
	e := env.repo.add(t, "Fair", "alice", domain.PostStatusDraft, nil)
	token := env.token(t, "alice", domain.RoleAuthor)

	rec := env.do(t, http.MethodGet, "/admin/events/"+e.ID.String()+"/edit", token, "")
	wantStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	if strings.Contains(body, `name="thumbnail"`) {
		t.Error("thumbnail field rendered without support")
	}
	if !strings.Contains(body, `name="post_title"`) || !strings.Contains(body, `name="content"`) {
		t.Error("title and content fields must be rendered")
	}

	rec = env.do(t, http.MethodPost, "/admin/events/"+e.ID.String(), token, form(
		adminNonceField, env.nonce(t, actionUpdateEvent+e.ID.String(), "alice"),
		"post_title", "Renamed",
		"thumbnail", "https://example.com/a.png",
	))
	wantStatus(t, rec, http.StatusSeeOther)

	got := env.repo.posts[e.ID]
	if got.Title != "Renamed" || got.Thumbnail != "" {
		t.Errorf("post = %+v, want title saved and thumbnail ignored", got)
	}
}

func TestAdminSaveContributorStaysDraft(t *testing.T) {
	env := newTestEnv(t)
	e := env.repo.add(t, "Pitch", "carol", domain.PostStatusDraft, nil)

	rec := env.do(t, http.MethodPost, "/admin/events/"+e.ID.String(), env.token(t, "carol", domain.RoleContributor), form(
		adminNonceField, env.nonce(t, actionUpdateEvent+e.ID.String(), "carol"),
		"post_status", "publish",
		metabox.NonceField, env.nonce(t, metabox.NonceAction, "carol"),
		domain.MetaTime, "20:00",
	))
	wantStatus(t, rec, http.StatusSeeOther)

	if got := env.repo.posts[e.ID].Status; got != domain.PostStatusDraft {
		t.Errorf("status = %q, want draft", got)
	}
	if got := env.repo.meta[e.ID][domain.MetaTime]; got != "20:00" {
		t.Errorf("time = %q, want 20:00", got)
	}
}
