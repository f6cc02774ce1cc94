package httpServer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"plainEvents/internal/config"
	"plainEvents/internal/transport/httpServer/routers"
	"plainEvents/internal/utils/logger/sl"

	"github.com/go-chi/chi/v5"
)

type HttpServer struct {
	srv *http.Server
	log *slog.Logger
}

func NewHttpServer(log *slog.Logger, router *routers.Router, cfg *config.Config) *HttpServer {
	mux := chi.NewRouter()
	router.Mount(mux)

	return &HttpServer{
		srv: &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           mux,
			ReadHeaderTimeout: cfg.HttpServer.Timeout,
			ReadTimeout:       cfg.HttpServer.Timeout,
			WriteTimeout:      2 * cfg.HttpServer.Timeout,
			IdleTimeout:       60 * cfg.HttpServer.Timeout,
		},
		log: log,
	}
}

// Listen блокируется до остановки сервера.
func (s *HttpServer) Listen() {
	op := "httpServer.Listen()"
	log := s.log.With(slog.String("op", op))

	log.Info("http server started", slog.String("addr", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server stopped", sl.Err(err))
	}
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
