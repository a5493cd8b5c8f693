// Package handler содержит HTTP-обработчики API сервиса freshmart.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/mmeshcher/freshmart/internal/middleware"
	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/payment"
	"github.com/mmeshcher/freshmart/internal/service"
	"github.com/mmeshcher/freshmart/internal/validation"
)

const maxBodyBytes = 1 << 20

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	RegisterUser(ctx context.Context, in service.RegisterInput) (*model.User, error)
	AuthenticateUser(ctx context.Context, in service.LoginInput) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (*model.User, error)
	ReplaceCart(ctx context.Context, userID string, cart []model.LineItem) ([]model.LineItem, error)
	ReplaceFavorites(ctx context.Context, userID string, favorites []string) ([]string, error)
	UpdateAddress(ctx context.Context, userID string, addr model.Address) (*model.Address, error)
	UpdateSettings(ctx context.Context, userID string, in service.SettingsInput) (*model.Settings, error)

	ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	ListTrending(ctx context.Context, limit int) ([]model.Product, error)
	ListOffers(ctx context.Context, limit int) ([]model.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)

	PlaceOrder(ctx context.Context, userID, idempotencyKey string, in service.OrderInput) (string, error)
	ListMyOrders(ctx context.Context, userID string) ([]model.Order, error)

	RecordSale(ctx context.Context, userID string, in service.SaleInput) (*model.Sale, error)
	ListSales(ctx context.Context) ([]model.Sale, error)

	AdminListProducts(ctx context.Context, category string) ([]model.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, in service.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListAllOrders(ctx context.Context) ([]model.OrderWithOwner, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*model.Order, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserWithOrders(ctx context.Context, id string) (*model.User, []model.Order, error)
	SetUserRole(ctx context.Context, actorID, id, role string) (*model.User, error)
	PromoteAllowlisted(ctx context.Context, actorID string) ([]string, error)

	PaymentConfigured() bool
	CreatePaymentOrder(ctx context.Context, in service.PaymentOrderInput) (json.RawMessage, error)
	VerifyPayment(in service.VerifyPaymentInput) (bool, error)
}

// Handler реализует HTTP-обработчики API сервиса freshmart.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	appEnv         string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, appEnv string) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		appEnv:         appEnv,
	}
}

type errorResponse struct {
	Message    string                  `json:"message"`
	Code       string                  `json:"code"`
	Validation []validation.FieldError `json:"validation,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Message: message, Code: code})
}

// decodeJSON читает тело запроса. Пустое тело оставляет v без изменений.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handler) badJSON(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Message: "Malformed JSON body",
		Code:    "VALIDATION_ERROR",
		Validation: []validation.FieldError{{
			Field:   "body",
			Kind:    "json",
			Message: err.Error(),
		}},
	})
}

// handleError отображает ошибку сервиса в ответ с кодом и сообщением.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if verr, ok := validation.As(err); ok {
		code := "VALIDATION_ERROR"
		if errors.Is(err, service.ErrInvalidOrderPayload) {
			code = "INVALID_ORDER_PAYLOAD"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message:    verr.Message,
			Code:       code,
			Validation: verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
	case errors.Is(err, service.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, "User already exists", "USER_EXISTS")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid credentials", "INVALID_CREDENTIALS")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", "FORBIDDEN")
	case errors.Is(err, service.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "Duplicate request", "DUPLICATE_REQUEST")
	case errors.Is(err, payment.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, "Razorpay is not configured on the server", "PAYMENT_NOT_CONFIGURED")
	default:
		h.logger.Error(op,
			zap.Error(err),
			zap.String("requestID", middleware.RequestIDFromContext(r.Context())))
		writeError(w, http.StatusInternalServerError, "Server error", "INTERNAL")
	}
}

func (h *Handler) currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return "", false
	}
	return userID, true
}
