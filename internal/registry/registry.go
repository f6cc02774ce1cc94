// Package registry хранит объявления типов контента и таксономий,
// которые сервис регистрирует при старте.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"plainEvents/internal/models/domain"
)

// Labels — подписи типа контента в админке.
type Labels struct {
	Name            string `json:"name"`
	SingularName    string `json:"singular_name"`
	AllItems        string `json:"all_items"`
	AddNewItem      string `json:"add_new_item"`
	AddNew          string `json:"add_new"`
	NewItem         string `json:"new_item"`
	EditItem        string `json:"edit_item"`
	ViewItem        string `json:"view_item"`
	SearchItems     string `json:"search_items"`
	NotFound        string `json:"not_found"`
	NotFoundInTrash string `json:"not_found_in_trash"`
}

type ContentType struct {
	Name           string   `json:"name"`
	Labels         Labels   `json:"labels"`
	MenuIcon       string   `json:"menu_icon"`
	Public         bool     `json:"public"`
	CanExport      bool     `json:"can_export"`
	ShowInNavMenus bool     `json:"show_in_nav_menus"`
	HasArchive     bool     `json:"has_archive"`
	ShowUI         bool     `json:"show_ui"`
	ShowInREST     bool     `json:"show_in_rest"`
	CapabilityType string   `json:"capability_type"`
	Taxonomies     []string `json:"taxonomies"`
	RewriteSlug    string   `json:"rewrite_slug"`
	Supports       []string `json:"supports"`
}

type Taxonomy struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	Hierarchical bool   `json:"hierarchical"`
	ShowInREST   bool   `json:"show_in_rest"`
	RewriteSlug  string `json:"rewrite_slug"`
	ObjectType   string `json:"object_type"`
}

// Registry — потокобезопасный реестр. Повторная регистрация того же имени
// заменяет объявление.
type Registry struct {
	mu           sync.RWMutex
	contentTypes map[string]ContentType
	taxonomies   map[string]Taxonomy
}

func New() *Registry {
	return &Registry{
		contentTypes: make(map[string]ContentType),
		taxonomies:   make(map[string]Taxonomy),
	}
}

func (r *Registry) RegisterContentType(ct ContentType) error {
	if ct.Name == "" {
		return fmt.Errorf("registry.RegisterContentType(): empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.contentTypes[ct.Name] = ct
	return nil
}

// RegisterTaxonomy требует, чтобы тип контента ObjectType уже был зарегистрирован.
func (r *Registry) RegisterTaxonomy(tx Taxonomy) error {
	op := "registry.RegisterTaxonomy()"
	if tx.Name == "" {
		return fmt.Errorf("%s: empty name", op)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contentTypes[tx.ObjectType]; !ok {
		return fmt.Errorf("%s: unknown object type %q", op, tx.ObjectType)
	}
	r.taxonomies[tx.Name] = tx
	return nil
}

func (r *Registry) ContentType(name string) (ContentType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ct, ok := r.contentTypes[name]
	return ct, ok
}

func (r *Registry) Taxonomy(name string) (Taxonomy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.taxonomies[name]
	return tx, ok
}

// Supports сообщает, поддерживает ли тип контента feature (title, thumbnail, editor).
func (r *Registry) Supports(name, feature string) bool {
	ct, ok := r.ContentType(name)
	if !ok {
		return false
	}
	return slices.Contains(ct.Supports, feature)
}

// EventContentType — объявление типа "event".
func EventContentType() ContentType {
	return ContentType{
		Name: domain.PostTypeEvent,
		Labels: Labels{
			Name:            "Events",
			SingularName:    "Event",
			AllItems:        "All Events",
			AddNewItem:      "Add New Event",
			AddNew:          "New Event",
			NewItem:         "New Event",
			EditItem:        "Edit Event",
			ViewItem:        "View Event",
			SearchItems:     "Search Events",
			NotFound:        "No events found",
			NotFoundInTrash: "No events found in Trash",
		},
		MenuIcon:       "dashicons-calendar-alt",
		Public:         true,
		CanExport:      true,
		ShowInNavMenus: true,
		HasArchive:     true,
		ShowUI:         true,
		ShowInREST:     true,
		CapabilityType: "post",
		Taxonomies:     []string{domain.TaxonomyEventCategory},
		RewriteSlug:    "event",
		Supports:       []string{"title", "thumbnail", "editor"},
	}
}

// EventCategoryTaxonomy — объявление таксономии "event_category".
func EventCategoryTaxonomy() Taxonomy {
	return Taxonomy{
		Name:         domain.TaxonomyEventCategory,
		Label:        "Event Categories",
		Hierarchical: true,
		ShowInREST:   true,
		RewriteSlug:  "event_category",
		ObjectType:   domain.PostTypeEvent,
	}
}

// Init регистрирует тип "event" и его таксономию. Вызывается один раз при старте,
// но повторный вызов безопасен.
func Init(r *Registry) error {
	if err := r.RegisterContentType(EventContentType()); err != nil {
		return err
	}
	return r.RegisterTaxonomy(EventCategoryTaxonomy())
}
