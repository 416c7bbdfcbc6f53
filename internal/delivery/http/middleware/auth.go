package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"dutree/internal/delivery/http/handler"
	"dutree/internal/infrastructure/logging"
)

// APIKey validates the request's API key against a bcrypt hash. An empty
// hash disables the check.
func APIKey(hash string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if hash == "" {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			key := extractKey(r)
			if key == "" {
				handler.SendError(w, "API key required", http.StatusUnauthorized)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
				logging.WithContext(r.Context()).Warn("api key rejected", logging.String("remote_addr", r.RemoteAddr))
				handler.SendError(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), handler.AuthenticatedContextKey, true)
			next(w, r.WithContext(ctx))
		}
	}
}

// HashAPIKey returns the bcrypt hash to put in API_KEY_HASH
func HashAPIKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func extractKey(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return r.Header.Get("X-API-Key")
}
