package middleware

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/service"
)

// UserLoader загружает пользователя по идентификатору.
type UserLoader interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// RequireAdmin пропускает только пользователей с сохранённой ролью admin.
// Должен стоять после AuthMiddleware.
func RequireAdmin(users UserLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
				return
			}

			u, err := users.GetUser(r.Context(), userID)
			switch {
			case errors.Is(err, service.ErrNotFound):
				logger.Warn("admin check: user not found", zap.String("userID", userID))
				writeError(w, http.StatusUnauthorized, "User not found", "UNAUTHORIZED")
				return
			case err != nil:
				logger.Error("admin check: load user", zap.String("userID", userID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Server error", "INTERNAL")
				return
			}
			if !u.IsAdmin() {
				writeError(w, http.StatusForbidden, "Admin access required", "FORBIDDEN")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
