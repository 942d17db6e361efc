// Package middleware содержит HTTP middleware витрины мясного магазина.
package middleware

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const clientIDKey contextKey = "clientID"

const (
	clientCookieName = "client_token"
	clientCookieTTL  = 365 * 24 * time.Hour
)

var errUnexpectedSubject = errors.New("token subject is not a client id")

// ClientMiddleware привязывает запрос к клиенту по подписанному cookie.
// Клиент без действительного cookie получает новый идентификатор.
type ClientMiddleware struct {
	secretKey []byte
	now       func() time.Time
}

// NewClientMiddleware создаёт middleware с указанным секретным ключом.
// Пустой ключ заменяется случайным, и cookie перестают действовать после перезапуска.
func NewClientMiddleware(secret string) *ClientMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &ClientMiddleware{
		secretKey: key,
		now:       time.Now,
	}
}

// Middleware читает cookie клиента и добавляет идентификатор клиента в контекст запроса.
func (a *ClientMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ""
		if cookie, err := r.Cookie(clientCookieName); err == nil {
			if id, err := a.parseToken(cookie.Value); err == nil {
				clientID = id
			}
		}

		if clientID == "" {
			clientID = uuid.NewString()
			if err := a.SetClientCookie(w, clientID); err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), clientID)))
	})
}

// SetClientCookie устанавливает cookie с подписанным идентификатором клиента.
func (a *ClientMiddleware) SetClientCookie(w http.ResponseWriter, clientID string) error {
	value, err := a.signClientID(clientID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    value,
		Path:     "/",
		Expires:  a.now().Add(clientCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (a *ClientMiddleware) signClientID(clientID string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(clientCookieTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign client token: %w", err)
	}
	return signed, nil
}

func (a *ClientMiddleware) parseToken(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return a.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", err
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errUnexpectedSubject
	}
	return claims.Subject, nil
}

// GetClientIDFromContext извлекает идентификатор клиента из контекста запроса.
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok && id != ""
}

// WithClientID возвращает контекст с идентификатором клиента.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}
