package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/mmeshcher/freshmart/internal/payment"
	"github.com/mmeshcher/freshmart/internal/service"
)

type verifyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// PaymentHealth сообщает, настроен ли платёжный шлюз.
func (h *Handler) PaymentHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"configured": h.service.PaymentConfigured()})
}

// CreatePaymentOrder создаёт заказ в платёжном шлюзе и возвращает его без изменений.
func (h *Handler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentOrderInput
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	order, err := h.service.CreatePaymentOrder(r.Context(), req)
	if err != nil {
		var statusErr *payment.StatusError
		if errors.As(err, &statusErr) {
			h.logger.Error("gateway create-order error",
				zap.Int("status", statusErr.StatusCode),
				zap.String("body", statusErr.Body))
			writeError(w, http.StatusInternalServerError, "Failed to create order", "INTERNAL")
			return
		}
		h.handleError(w, r, err, "gateway create-order error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(order)
}

// VerifyPayment проверяет подпись платежа, полученную от клиента.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req service.VerifyPaymentInput
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	valid, err := h.service.VerifyPayment(req)
	switch {
	case errors.Is(err, payment.ErrMissingFields):
		writeJSON(w, http.StatusBadRequest, verifyResponse{
			Message: "Missing payment verification fields",
			Code:    "VALIDATION_ERROR",
		})
	case err != nil:
		h.handleError(w, r, err, "verify payment error")
	case !valid:
		writeJSON(w, http.StatusBadRequest, verifyResponse{
			Message: "Invalid signature",
			Code:    "INVALID_SIGNATURE",
		})
	default:
		writeJSON(w, http.StatusOK, verifyResponse{Valid: true})
	}
}
