// Package service реализует бизнес-логику сервиса freshmart.
package service

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/payment"
)

var (
	// ErrNotFound возвращается, если запрошенная сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists возвращается при попытке создать дубликат уникальной сущности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden возвращается, если у пользователя нет прав на операцию.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateRequest возвращается при повторной отправке запроса с тем же ключом идемпотентности.
	ErrDuplicateRequest = errors.New("duplicate request")
	// ErrInvalidOrderPayload возвращается, если заказ не прошёл проверку.
	ErrInvalidOrderPayload = errors.New("invalid order payload")
	// ErrSaleWriteFailed возвращается, если запись о продаже не удалось сохранить.
	ErrSaleWriteFailed = errors.New("sale write failed")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, id, name, phone string) (*model.User, error)
	ReplaceCart(ctx context.Context, id string, cart []model.LineItem) error
	ReplaceFavorites(ctx context.Context, id string, favorites []string) error
	UpdateAddress(ctx context.Context, id string, addr model.Address) error
	UpdateSettings(ctx context.Context, id string, settings model.Settings) error
	UpdateUserRole(ctx context.Context, id string, role model.Role) (*model.User, error)
	PromoteUsersByEmail(ctx context.Context, emails []string) ([]string, error)

	ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.OrderWithOwner, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error)

	CreateSale(ctx context.Context, s *model.Sale) error
	ListSales(ctx context.Context) ([]model.Sale, error)
	GetPendingSaleIntents(ctx context.Context, limit int) ([]model.SaleIntent, error)
	CompleteSaleIntent(ctx context.Context, orderID string) error
	FailSaleIntent(ctx context.Context, orderID, reason string) error
}

// PaymentGateway описывает платёжный шлюз.
type PaymentGateway interface {
	Configured() bool
	CreateOrder(ctx context.Context, in payment.OrderRequest) (json.RawMessage, error)
	Verify(orderID, paymentID, signature string) (bool, error)
}

// Deduplicator резервирует ключи идемпотентности.
type Deduplicator interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Service содержит бизнес-логику сервиса freshmart.
type Service struct {
	repo        Repository
	gateway     PaymentGateway
	dedup       Deduplicator
	logger      *zap.Logger
	adminEmails []string
}

// Option настраивает необязательные зависимости сервиса.
type Option func(*Service)

// WithDeduplicator включает защиту от повторного оформления заказа.
func WithDeduplicator(d Deduplicator) Option {
	return func(s *Service) { s.dedup = d }
}

// WithAdminEmails задаёт список адресов, которые можно повысить до администратора.
func WithAdminEmails(emails []string) Option {
	return func(s *Service) { s.adminEmails = normalizeEmails(emails) }
}

// NewService создаёт новый сервис с указанным репозиторием и платёжным шлюзом.
func NewService(repo Repository, gateway PaymentGateway, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:    repo,
		gateway: gateway,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
