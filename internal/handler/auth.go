package handler

import (
	"net/http"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/service"
)

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err, "register user error")
		return
	}

	h.writeSession(w, http.StatusCreated, u)
}

// Login выполняет аутентификацию пользователя и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err, "login user error")
		return
	}

	h.writeSession(w, http.StatusOK, u)
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, u *model.User) {
	token := h.authMiddleware.IssueToken(u.ID)
	h.authMiddleware.SetAuthCookie(w, token)
	writeJSON(w, status, authResponse{Token: token, User: newUserResponse(u)})
}

// AuthPing подтверждает, что маршруты аутентификации доступны.
func (h *Handler) AuthPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Auth routes alive"})
}
