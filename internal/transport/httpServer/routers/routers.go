package routers

import (
	"net/http"

	"plainEvents/internal/assets"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/registry"
	"plainEvents/internal/transport/httpServer/handlers"
	myMiddleware "plainEvents/internal/transport/httpServer/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// AssetsPrefix — путь, под которым раздаются встроенные стили и скрипты.
const AssetsPrefix = "/assets"

type Metrics interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type Router struct {
	eventHandler  *handlers.EventHandler
	adminHandler  *handlers.AdminHandler
	publicHandler *handlers.PublicHandler
	registry      *registry.Registry
	actors        myMiddleware.ActorSource
	metrics       Metrics
}

func NewRouter(
	eventHandler *handlers.EventHandler,
	adminHandler *handlers.AdminHandler,
	publicHandler *handlers.PublicHandler,
	reg *registry.Registry,
	actors myMiddleware.ActorSource,
	metrics Metrics,
) *Router {
	return &Router{
		eventHandler:  eventHandler,
		adminHandler:  adminHandler,
		publicHandler: publicHandler,
		registry:      reg,
		actors:        actors,
		metrics:       metrics,
	}
}

func (r *Router) Mount(mux *chi.Mux) {

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(myMiddleware.LoggerMiddleware)
	mux.Use(r.metrics.Middleware)
	mux.Use(middleware.Heartbeat("/ping"))
	mux.Use(myMiddleware.Authenticate(r.actors))

	mux.Method(http.MethodGet, "/metrics", r.metrics.Handler())
	mux.Handle(AssetsPrefix+"/*", http.StripPrefix(AssetsPrefix+"/", assets.Handler()))

	// Маршруты мероприятий следуют объявлению типа в реестре.
	ct, ok := r.registry.ContentType(domain.PostTypeEvent)
	if !ok {
		return
	}

	if ct.Public {
		mux.Get("/upcoming", r.publicHandler.Upcoming)
		mux.Get("/events.ics", r.publicHandler.Feed)
		mux.Route("/"+ct.RewriteSlug, func(mux chi.Router) {
			if ct.HasArchive {
				mux.Get("/", r.publicHandler.Archive)
			}
			mux.Get("/{eventId}", r.publicHandler.Single)
		})
		if ct.HasArchive {
			mux.Get("/", r.publicHandler.Archive)
		}
	}

	if ct.ShowUI {
		mux.Route("/admin", func(mux chi.Router) {
			mux.Use(myMiddleware.RequireActor)
			mux.Route("/events", func(mux chi.Router) {
				mux.Get("/", r.adminHandler.ListEvents)
				mux.Post("/", r.adminHandler.CreateEvent)
				mux.Get("/{eventId}/edit", r.adminHandler.EditEvent)
				mux.Post("/{eventId}", r.adminHandler.SaveEvent)
				mux.Post("/{eventId}/delete", r.adminHandler.DeleteEvent)
			})
		})
	}

	mux.Route("/api", func(mux chi.Router) {
		mux.Route("/v1", func(mux chi.Router) {
			if ct.ShowInREST {
				mux.Route("/events", func(mux chi.Router) {
					mux.Get("/", r.eventHandler.GetEvents)
					mux.Get("/{eventId}", r.eventHandler.GetEvent)
					mux.Put("/{eventId}/status", r.eventHandler.UpdateStatus)
				})
			}
			if tx, ok := r.registry.Taxonomy(domain.TaxonomyEventCategory); ok && tx.ShowInREST {
				mux.Route("/"+tx.Name, func(mux chi.Router) {
					mux.Get("/", r.eventHandler.GetCategories)
					mux.Post("/", r.eventHandler.CreateCategory)
				})
			}
		})
	})
}
