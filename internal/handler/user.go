package handler

import (
	"net/http"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/service"
)

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err, "get user error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": newUserDetailResponse(u)})
}

// UpdateProfile меняет имя и телефон текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req service.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.handleError(w, r, err, "update profile error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": newUserDetailResponse(u)})
}

type cartRequest struct {
	Cart []model.LineItem `json:"cart"`
}

// ReplaceCart сохраняет корзину текущего пользователя.
func (h *Handler) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req cartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	cart, err := h.service.ReplaceCart(r.Context(), userID, req.Cart)
	if err != nil {
		h.handleError(w, r, err, "replace cart error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "cart": cart})
}

type favoritesRequest struct {
	Favorites []string `json:"favorites"`
}

// ReplaceFavorites сохраняет избранное текущего пользователя.
func (h *Handler) ReplaceFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req favoritesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	favorites, err := h.service.ReplaceFavorites(r.Context(), userID, req.Favorites)
	if err != nil {
		h.handleError(w, r, err, "replace favorites error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "favorites": favorites})
}

type addressRequest struct {
	Address *model.Address `json:"address"`
}

// UpdateAddress сохраняет адрес доставки текущего пользователя.
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}
	if req.Address == nil {
		req.Address = &model.Address{}
	}

	addr, err := h.service.UpdateAddress(r.Context(), userID, *req.Address)
	if err != nil {
		h.handleError(w, r, err, "update address error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "address": addr})
}

type settingsRequest struct {
	Settings service.SettingsInput `json:"settings"`
}

// UpdateSettings объединяет переданные настройки с сохранёнными.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), userID, req.Settings)
	if err != nil {
		h.handleError(w, r, err, "update settings error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "settings": settings})
}
