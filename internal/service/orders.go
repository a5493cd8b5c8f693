package service

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/repository"
	"github.com/mmeshcher/freshmart/internal/validation"
)

const (
	emptyOrderMessage   = "Order must include at least one item"
	invalidOrderMessage = "Invalid order payload"
	defaultItemUnit     = "kg"
)

// OrderItemInput описывает позицию заказа в запросе. Отсутствующее количество равно 1.
type OrderItemInput struct {
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Quantity  *int             `json:"quantity" validate:"omitempty,gt=0"`
	Measure   *decimal.Decimal `json:"measure" validate:"omitempty,gt=0"`
	Unit      string           `json:"unit"`
	Image     string           `json:"image"`
	LineTotal *decimal.Decimal `json:"lineTotal" validate:"omitempty,gte=0"`
}

// PricingInput содержит итоговые суммы заказа, рассчитанные клиентом.
type PricingInput struct {
	Subtotal    *decimal.Decimal `json:"subtotal" validate:"omitempty,gte=0"`
	Discount    *decimal.Decimal `json:"discount" validate:"omitempty,gte=0"`
	DeliveryFee *decimal.Decimal `json:"deliveryFee" validate:"omitempty,gte=0"`
	Tax         *decimal.Decimal `json:"tax" validate:"omitempty,gte=0"`
	Total       *decimal.Decimal `json:"total" validate:"omitempty,gte=0"`
	Coupon      string           `json:"coupon"`
}

// OrderInput описывает запрос на оформление заказа. Цена, оплата и адрес необязательны.
type OrderInput struct {
	Items        []OrderItemInput   `json:"items" validate:"required,min=1,dive"`
	Pricing      *PricingInput      `json:"pricing"`
	DeliverySlot string             `json:"deliverySlot"`
	Payment      *model.PaymentInfo `json:"payment"`
	Address      *model.Address     `json:"address"`
}

// PlaceOrder оформляет заказ пользователя и возвращает его идентификатор.
// Запись о продаже создаётся после сохранения заказа; её ошибка только журналируется,
// заказ при этом остаётся в очереди на повторную запись продажи.
func (s *Service) PlaceOrder(ctx context.Context, userID, idempotencyKey string, in OrderInput) (string, error) {
	if err := validateOrder(in); err != nil {
		return "", err
	}

	key := ""
	if s.dedup != nil && idempotencyKey != "" {
		key = "order:" + userID + ":" + idempotencyKey
		ok, err := s.dedup.Reserve(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("idempotency reserve failed", zap.String("userID", userID), zap.Error(err))
			key = ""
		case !ok:
			return "", ErrDuplicateRequest
		}
	}

	o, err := s.writeOrder(ctx, userID, in)
	if err != nil {
		if key != "" {
			if rerr := s.dedup.Release(ctx, key); rerr != nil {
				s.logger.Warn("idempotency release failed", zap.String("userID", userID), zap.Error(rerr))
			}
		}
		return "", err
	}

	if err := s.recordOrderSale(ctx, o, userID); err != nil {
		s.logger.Warn("sale not recorded for order, queued for retry",
			zap.String("orderID", o.ID), zap.String("userID", userID), zap.Error(err))
	}

	return o.ID, nil
}

func validateOrder(in OrderInput) error {
	if len(in.Items) == 0 {
		kind := "min"
		if in.Items == nil {
			kind = "required"
		}
		return invalidOrder(validation.New(emptyOrderMessage, "items", kind, nil))
	}
	if err := validation.Struct(invalidOrderMessage, in); err != nil {
		if verr, ok := validation.As(err); ok {
			return invalidOrder(verr)
		}
		return err
	}
	return nil
}

func invalidOrder(verr *validation.Error) error {
	return verr.WithCause(ErrInvalidOrderPayload)
}

// writeOrder сохраняет проверенный заказ со статусом processing.
func (s *Service) writeOrder(ctx context.Context, userID string, in OrderInput) (*model.Order, error) {
	o := &model.Order{
		ID:           uuid.NewString(),
		UserID:       userID,
		Items:        make([]model.LineItem, 0, len(in.Items)),
		Pricing:      in.Pricing.toModel(),
		DeliverySlot: strings.TrimSpace(in.DeliverySlot),
		Status:       model.OrderStatusProcessing,
	}
	for _, it := range in.Items {
		o.Items = append(o.Items, it.toModel())
	}
	if in.Payment != nil {
		o.Payment = *in.Payment
	}
	if in.Address != nil {
		o.Address = *in.Address
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		var ce *repository.ConstraintError
		if errors.As(err, &ce) {
			return nil, invalidOrder(validation.New(invalidOrderMessage, ce.Field(), "constraint", nil))
		}
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

func (it OrderItemInput) toModel() model.LineItem {
	li := model.LineItem{
		ProductID: it.ProductID,
		Name:      it.Name,
		Unit:      it.Unit,
		Image:     it.Image,
	}
	if it.Price != nil {
		li.Price = *it.Price
	}
	if it.Quantity != nil {
		li.Quantity = *it.Quantity
	}
	if it.Measure != nil {
		li.Measure = *it.Measure
	}
	if it.LineTotal != nil {
		li.LineTotal = decimal.NewNullDecimal(*it.LineTotal)
	}
	applyItemDefaults(&li)
	return li
}

func (p *PricingInput) toModel() model.Pricing {
	if p == nil {
		return model.Pricing{}
	}
	return model.Pricing{
		Subtotal:    nullDecimal(p.Subtotal),
		Discount:    nullDecimal(p.Discount),
		DeliveryFee: nullDecimal(p.DeliveryFee),
		Tax:         nullDecimal(p.Tax),
		Total:       nullDecimal(p.Total),
		Coupon:      strings.TrimSpace(p.Coupon),
	}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func applyItemDefaults(li *model.LineItem) {
	if li.Quantity <= 0 {
		li.Quantity = 1
	}
	if li.Measure.Sign() <= 0 {
		li.Measure = decimal.NewFromInt(1)
	}
	if li.Unit == "" {
		li.Unit = defaultItemUnit
	}
}

// ListMyOrders возвращает заказы пользователя, новые первыми.
func (s *Service) ListMyOrders(ctx context.Context, userID string) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// ListAllOrders возвращает все заказы вместе с владельцами.
func (s *Service) ListAllOrders(ctx context.Context) ([]model.OrderWithOwner, error) {
	return s.repo.ListOrders(ctx)
}

// UpdateOrderStatus переводит заказ в следующий статус: processing -> shipped -> delivered.
// Пропуск статуса и переход назад запрещены. Повторная установка текущего статуса ничего не меняет.
func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) (*model.Order, error) {
	next := model.OrderStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, validation.New("Invalid status", "status", "enum", status)
	}

	current, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if next == current.Status {
		return current, nil
	}
	if allowed, ok := current.Status.Next(); !ok || allowed != next {
		return nil, validation.New("Invalid status transition", "status", "transition", status)
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, id, current.Status, next)
	if errors.Is(err, repository.ErrNotFound) {
		// Статус успел измениться между чтением и записью.
		if _, gerr := s.repo.GetOrder(ctx, id); gerr == nil {
			return nil, validation.New("Order status has changed, reload and retry", "status", "transition", status)
		}
	}
	if err != nil {
		return nil, notFound(err)
	}

	s.logger.Info("order status updated",
		zap.String("orderID", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)))
	return updated, nil
}
