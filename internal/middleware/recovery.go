package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Recovery перехватывает панику в обработчике, журналирует её со стеком и отвечает 500.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("requestID", RequestIDFromContext(r.Context())),
						zap.Stack("stack"),
					)
					w.Header().Set("Connection", "close")
					writeError(w, http.StatusInternalServerError, "Server error", "INTERNAL")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
