package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/service"
)

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}

// ListProducts возвращает каталог с фильтрами category, search, sort и limit.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.service.ListProducts(r.Context(), model.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Sort:     model.ProductSort(q.Get("sort")),
		Limit:    queryLimit(r),
	})
	if err != nil {
		h.handleError(w, r, err, "list products error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": newProductsResponse(products)})
}

// ListTrending возвращает самые продаваемые товары.
func (h *Handler) ListTrending(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListTrending(r.Context(), queryLimit(r))
	if err != nil {
		h.handleError(w, r, err, "list trending error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": newProductsResponse(products)})
}

// ListOffers возвращает товары со скидкой.
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListOffers(r.Context(), queryLimit(r))
	if err != nil {
		h.handleError(w, r, err, "list offers error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": newProductsResponse(products)})
}

// ListFeatured возвращает рекомендуемые товары.
func (h *Handler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListFeatured(r.Context(), queryLimit(r))
	if err != nil {
		h.handleError(w, r, err, "list featured error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": newProductsResponse(products)})
}

// GetProduct возвращает активный товар по идентификатору.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err, "get product error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": newProductResponse(p)})
}

// AdminListProducts возвращает все товары, включая неактивные.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.AdminListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.handleError(w, r, err, "admin list products error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": newProductsResponse(products)})
}

// CreateProduct добавляет товар в каталог.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err, "create product error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": p.ID, "product": newProductResponse(p)})
}

// UpdateProduct частично изменяет товар.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.handleError(w, r, err, "update product error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": newProductResponse(p)})
}

// DeleteProduct удаляет товар.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, err, "delete product error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
