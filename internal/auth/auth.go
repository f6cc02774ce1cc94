// Package auth определяет пользователя админки по подписанному сессионному токену.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"plainEvents/internal/models/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName — cookie с сессионным токеном.
	CookieName = "plainevents_session"
	// Audience отделяет сессионные токены от токенов форм с тем же секретом.
	Audience = "plainevents/session"
)

var ErrNoSession = errors.New("no session")

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// IssueToken подписывает сессию actor со сроком жизни ttl.
func (a *Authenticator) IssueToken(actor domain.Actor, ttl time.Duration) (string, error) {
	op := "auth.IssueToken()"

	if actor.IsZero() {
		return "", fmt.Errorf("%s: empty user id", op)
	}
	if _, ok := domain.ToRole(string(actor.Role)); !ok {
		return "", fmt.Errorf("%s: invalid role %q", op, actor.Role)
	}

	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия и возвращает пользователя.
func (a *Authenticator) ParseToken(token string) (domain.Actor, error) {
	op := "auth.ParseToken()"

	var c sessionClaims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(Audience),
	)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%s: %w", op, err)
	}

	role, ok := domain.ToRole(c.Role)
	if !ok || c.Subject == "" {
		return domain.Actor{}, fmt.Errorf("%s: invalid claims", op)
	}

	return domain.Actor{UserID: c.Subject, Role: role}, nil
}

// ActorFromRequest читает токен из заголовка Authorization: Bearer
// или из cookie CookieName.
func (a *Authenticator) ActorFromRequest(r *http.Request) (domain.Actor, error) {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	} else if c, err := r.Cookie(CookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		return domain.Actor{}, ErrNoSession
	}
	return a.ParseToken(token)
}

type ctxKey struct{}

// WithActor кладёт пользователя в контекст запроса.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFromContext достаёт пользователя, положенного WithActor.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ctxKey{}).(domain.Actor)
	return actor, ok
}
