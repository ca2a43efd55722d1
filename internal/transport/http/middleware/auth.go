package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/kirvitchenko/finalProjectCrm/internal/domain/errors"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/dto"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Authenticator проверяет токен доступа и возвращает ID пользователя
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// AdminAuth проверяет админский токен
func AdminAuth(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization header")
				return
			}

			if token != adminToken {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserAuth проверяет JWT токен пользователя и кладет его ID в контекст запроса
func UserAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization header")
				return
			}

			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domainErrors.ErrUnauthorized) {
					respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or revoked token")
					return
				}
				respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// BearerToken извлекает токен из заголовка Authorization
func BearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, prefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	return token, token != ""
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}

// respondError отправляет ошибку в формате API
func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Code:    code,
			Message: message,
		},
	}

	json.NewEncoder(w).Encode(response)
}
