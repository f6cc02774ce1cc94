package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"plainEvents/internal/auth"
	"plainEvents/internal/models/domain"
	"plainEvents/internal/utils/logger/sl"
)

type ActorSource interface {
	ActorFromRequest(r *http.Request) (domain.Actor, error)
}

// Authenticate кладёт пользователя в контекст запроса, если токен валиден.
// Запросы без токена проходят дальше анонимно.
func Authenticate(source ActorSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := source.ActorFromRequest(r)
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) {
					slog.Default().Debug("invalid session token", slog.String("path", r.URL.Path), sl.Err(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// RequireActor отвечает 401, если в контексте нет пользователя.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ActorFromContext(r.Context()); !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="plainevents"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
