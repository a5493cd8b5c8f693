package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type healthResponse struct {
	OK  bool   `json:"ok"`
	TS  int64  `json:"ts"`
	Env string `json:"env"`
}

// Health сообщает о состоянии сервиса и доступности базы данных.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{OK: true, TS: time.Now().UnixMilli(), Env: h.appEnv}
	if err := h.service.Ping(ctx); err != nil {
		h.logger.Warn("health check: database ping failed", zap.Error(err))
		resp.OK = false
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
