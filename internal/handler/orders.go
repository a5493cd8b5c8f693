package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/freshmart/internal/middleware"
	"github.com/mmeshcher/freshmart/internal/service"
)

const idempotencyKeyHeader = "Idempotency-Key"

// CreateOrder оформляет заказ текущего пользователя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req service.OrderInput
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	id, err := h.service.PlaceOrder(r.Context(), userID, strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)), req)
	if err != nil {
		h.handleError(w, r, err, "create order error")
		return
	}

	h.logger.Info("order placed",
		zap.String("orderID", id),
		zap.String("userID", userID),
		zap.String("requestID", middleware.RequestIDFromContext(r.Context())))
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListMyOrders возвращает заказы текущего пользователя, новые первыми.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListMyOrders(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err, "list orders error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": newOrdersResponse(orders)})
}

// AdminListOrders возвращает все заказы вместе с владельцами.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		h.handleError(w, r, err, "admin list orders error")
		return
	}

	out := make([]adminOrderResponse, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		out = append(out, adminOrderResponse{
			orderResponse: newOrderResponse(&o.Order),
			User: orderOwnerResponse{
				ID:    o.Owner.ID,
				Name:  o.Owner.Name,
				Email: o.Owner.Email,
			},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus меняет статус заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	o, err := h.service.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.handleError(w, r, err, "update order status error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": o.ID, "status": string(o.Status)})
}
