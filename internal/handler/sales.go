package handler

import (
	"net/http"

	"github.com/mmeshcher/freshmart/internal/service"
)

// CreateSale сохраняет запись о продаже от имени текущего пользователя.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req service.SaleInput
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	sale, err := h.service.RecordSale(r.Context(), userID, req)
	if err != nil {
		h.handleError(w, r, err, "create sale error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": sale.ID})
}

// ListSales возвращает все продажи, новые первыми.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.ListSales(r.Context())
	if err != nil {
		h.handleError(w, r, err, "list sales error")
		return
	}

	out := make([]saleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, newSaleResponse(&sales[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": out})
}
