package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/auth"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	userEmailKey
)

// TokenParser verifies bearer credentials. *auth.TokenIssuer satisfies it.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller id in the request context.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respondWithError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			claims, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				log.Warn().Err(err).Msg("Rejected bearer token")
				respondWithError(w, http.StatusForbidden, "Invalid or expired token")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				respondWithError(w, http.StatusForbidden, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, userEmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(users auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			u, err := users.Profile(r.Context(), userID)
			if err != nil {
				if errors.Is(err, auth.ErrNotFound) {
					respondWithError(w, http.StatusForbidden, "Admin access required")
					return
				}
				log.Error().Err(err).Stringer("user_id", userID).Msg("Failed to load profile for admin check")
				respondWithError(w, http.StatusInternalServerError, "Failed to verify permissions")
				return
			}
			if !u.IsAdmin {
				log.Warn().Stringer("user_id", userID).Msg("Non-admin attempted admin action")
				respondWithError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func userEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}
