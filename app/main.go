package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"plainEvents/internal/auth"
	"plainEvents/internal/columns"
	"plainEvents/internal/config"
	"plainEvents/internal/feed"
	"plainEvents/internal/graceful"
	"plainEvents/internal/lifecycle"
	"plainEvents/internal/metabox"
	"plainEvents/internal/metrics"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/nonce"
	"plainEvents/internal/registry"
	"plainEvents/internal/repositories"
	"plainEvents/internal/shortcode"
	"plainEvents/internal/transport/httpServer"
	"plainEvents/internal/transport/httpServer/handlers"
	"plainEvents/internal/transport/httpServer/routers"
	"plainEvents/internal/utils/logger/handlers/slogpretty"
	"plainEvents/internal/utils/logger/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var Version = "1.0.0"

func main() {
	// -token печатает сессионный токен и завершает работу; флаг объявляется
	// до MustLoad, который разбирает командную строку.
	issue := flag.String("token", "", "issue a session token for user:role and exit")

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	authenticator := auth.New(cfg.HttpServer.Secret)

	if *issue != "" {
		if err := printToken(authenticator, *issue, cfg.Auth.SessionTTL); err != nil {
			log.Error("cannot issue token", sl.Err(err))
			os.Exit(1)
		}
		return
	}

	log.Info(
		"starting plain events",
		slog.String("env", cfg.Env),
		slog.String("config", cfg.Path()),
		slog.String("version", Version),
	)

	repositoryService, err := repositories.New(log, cfg)
	if err != nil {
		log.Error("cannot open repository", sl.Err(err))
		os.Exit(1)
	}

	reg := registry.New()
	plugin := lifecycle.New(log, repositoryService, reg, cfg.Site.Locale)
	tr, err := plugin.Activate(context.Background())
	if err != nil {
		log.Error("cannot activate", sl.Err(err))
		os.Exit(1)
	}

	loc := cfg.Location()
	recorder := metrics.New()
	nonces := nonce.New(cfg.HttpServer.Secret, cfg.Nonce.Lifetime)

	metaboxService := metabox.New(log, repositoryService, nonces, tr, recorder)
	upcoming := shortcode.NewUpcoming(log, repositoryService, tr, loc, recorder)
	shortcodes := shortcode.NewRegistry()
	shortcode.Init(shortcodes, upcoming)
	icalFeed := feed.New(upcoming, cfg.HttpServer.Address)

	// HTTP Server
	assetsCfg := handlers.AssetsConfig{Prefix: routers.AssetsPrefix, Version: Version}
	eventHandler := handlers.NewEventHandler(log, repositoryService, repositoryService, loc)
	adminHandler := handlers.NewAdminHandler(log, repositoryService, repositoryService, metaboxService,
		columns.NewRenderer(repositoryService), nonces, reg, tr, assetsCfg)
	publicHandler := handlers.NewPublicHandler(log, repositoryService, repositoryService, shortcodes,
		upcoming, icalFeed, reg, tr, loc, assetsCfg)
	router := routers.NewRouter(eventHandler, adminHandler, publicHandler, reg, authenticator, recorder)
	httpSrv := httpServer.NewHttpServer(log, router, cfg)

	maxSecond := 15 * time.Second
	waitShutdown := graceful.GracefulShutdown(
		context.Background(),
		maxSecond,
		map[string]graceful.Operation{
			"HTTP server": func(ctx context.Context) error {
				return httpSrv.Shutdown(ctx)
			},
			"Lifecycle": func(ctx context.Context) error {
				return plugin.Deactivate(ctx)
			},
		},
		log,
	)

	go httpSrv.Listen()

	<-waitShutdown

	if err := repositoryService.Shutdown(context.Background()); err != nil {
		log.Error("repository shutdown", sl.Err(err))
	}
}

// printToken выпускает токен для "user:role", например "alice:editor".
func printToken(a *auth.Authenticator, arg string, ttl time.Duration) error {
	user, rawRole, ok := strings.Cut(arg, ":")
	if !ok || user == "" {
		return fmt.Errorf("expected user:role, got %q", arg)
	}
	role, ok := domain.ToRole(rawRole)
	if !ok {
		return fmt.Errorf("unknown role %q", rawRole)
	}

	token, err := a.IssueToken(domain.Actor{UserID: user, Role: role}, ttl)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog(slog.LevelDebug)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = setupPrettySlog(slog.LevelInfo)
	default: // If env config is invalid, set prod settings by default due to security
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog(level slog.Level) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
