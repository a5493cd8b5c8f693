package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AdminPing подтверждает права администратора.
func (h *Handler) AdminPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AdminListUsers возвращает всех пользователей.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.handleError(w, r, err, "admin list users error")
		return
	}

	out := make([]userDetailResponse, 0, len(users))
	for i := range users {
		out = append(out, newUserDetailResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

// AdminGetUser возвращает пользователя вместе с его заказами.
func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	u, orders, err := h.service.GetUserWithOrders(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err, "admin get user error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":   newUserDetailResponse(u),
		"orders": newOrdersResponse(orders),
	})
}

type roleRequest struct {
	Role string `json:"role"`
}

// AdminSetUserRole меняет роль пользователя.
func (h *Handler) AdminSetUserRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	u, err := h.service.SetUserRole(r.Context(), actorID, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.handleError(w, r, err, "admin set role error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": newUserDetailResponse(u)})
}

// AdminPromoteAllowlisted повышает до администратора пользователей из списка ADMIN_EMAILS.
func (h *Handler) AdminPromoteAllowlisted(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	ids, err := h.service.PromoteAllowlisted(r.Context(), actorID)
	if err != nil {
		h.handleError(w, r, err, "promote allow-listed users error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"promoted": ids})
}
