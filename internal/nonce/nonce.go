// Package nonce выпускает и проверяет анти-CSRF токены форм.
// Токен привязан к действию и пользователю и живёт ограниченное время.
package nonce

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Audience отделяет токены форм от сессионных токенов с тем же секретом.
const Audience = "plainevents/form"

type claims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

func New(secret string, lifetime time.Duration) *Manager {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &Manager{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Create выпускает токен для действия action и пользователя userID.
func (m *Manager) Create(action, userID string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("nonce.Create(): %w", err)
	}
	return signed, nil
}

// Verify сообщает, выпущен ли token этим менеджером для action и userID
// и не истёк ли он.
func (m *Manager) Verify(token, action, userID string) bool {
	return m.check(token, action, userID) == nil
}

func (m *Manager) check(token, action, userID string) error {
	if token == "" {
		return errors.New("empty token")
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(userID),
		jwt.WithAudience(Audience),
	)
	if err != nil {
		return err
	}
	if c.Action != action {
		return fmt.Errorf("action mismatch: %q", c.Action)
	}
	return nil
}
