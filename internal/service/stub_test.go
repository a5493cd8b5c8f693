package service

import (
	"context"
	"strings"
	"sync"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/repository"
)

// stubRepo хранит данные в памяти. Методы, не нужные тестам, паникуют через встроенный nil-интерфейс.
type stubRepo struct {
	Repository

	mu       sync.Mutex
	users    map[string]*model.User
	products map[string]*model.Product
	orders   []model.Order
	sales    []model.Sale
	intents  map[string]*model.SaleIntent

	lastFilter     model.ProductFilter
	createOrderErr error
	createSaleErr  error

	// beforeStatusUpdate вызывается перед записью статуса, имитируя параллельное изменение.
	beforeStatusUpdate func()
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:    map[string]*model.User{},
		products: map[string]*model.Product{},
		intents:  map[string]*model.SaleIntent{},
	}
}

func (s *stubRepo) Ping(ctx context.Context) error { return nil }

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) UpdateSettings(ctx context.Context, id string, settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Settings = settings
	return nil
}

func (s *stubRepo) UpdateUserRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (s *stubRepo) PromoteUsersByEmail(ctx context.Context, emails []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, u := range s.users {
		for _, e := range emails {
			if strings.EqualFold(u.Email, e) && u.Role != model.RoleAdmin {
				u.Role = model.RoleAdmin
				ids = append(ids, u.ID)
			}
		}
	}
	return ids, nil
}

func (s *stubRepo) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubRepo) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateProduct(ctx context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *stubRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createOrderErr != nil {
		return s.createOrderErr
	}
	s.orders = append(s.orders, *o)
	s.intents[o.ID] = &model.SaleIntent{OrderID: o.ID, CreatedBy: o.UserID}
	return nil
}

func (s *stubRepo) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubRepo) GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == userID {
			out = append(out, s.orders[i])
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error) {
	if s.beforeStatusUpdate != nil {
		s.beforeStatusUpdate()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id && s.orders[i].Status == from {
			s.orders[i].Status = to
			cp := s.orders[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubRepo) CreateSale(ctx context.Context, sale *model.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createSaleErr != nil {
		return s.createSaleErr
	}
	if sale.Source == model.SaleSourceOrder && sale.OrderRef != "" {
		for _, existing := range s.sales {
			if existing.Source == model.SaleSourceOrder && existing.OrderRef == sale.OrderRef {
				return repository.ErrDuplicate
			}
		}
	}
	s.sales = append(s.sales, *sale)
	return nil
}

func (s *stubRepo) GetPendingSaleIntents(ctx context.Context, limit int) ([]model.SaleIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SaleIntent, 0, len(s.intents))
	for _, in := range s.intents {
		out = append(out, *in)
	}
	return out, nil
}

func (s *stubRepo) CompleteSaleIntent(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.intents, orderID)
	return nil
}

func (s *stubRepo) FailSaleIntent(ctx context.Context, orderID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, ok := s.intents[orderID]; ok {
		in.Attempts++
		in.LastError = reason
	}
	return nil
}

func (s *stubRepo) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *stubRepo) saleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

type stubDedup struct {
	keys       map[string]bool
	reserveErr error
}

func newStubDedup() *stubDedup {
	return &stubDedup{keys: map[string]bool{}}
}

func (d *stubDedup) Reserve(ctx context.Context, key string) (bool, error) {
	if d.reserveErr != nil {
		return false, d.reserveErr
	}
	if d.keys[key] {
		return false, nil
	}
	d.keys[key] = true
	return true, nil
}

func (d *stubDedup) Release(ctx context.Context, key string) error {
	delete(d.keys, key)
	return nil
}
