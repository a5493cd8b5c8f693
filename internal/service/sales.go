package service

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/repository"
	"github.com/mmeshcher/freshmart/internal/validation"
)

const invalidSaleMessage = "Failed to save sale"

// SaleItemInput описывает проданную позицию в запросе.
type SaleItemInput struct {
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Quantity  *int             `json:"quantity" validate:"omitempty,gt=0"`
	LineTotal *decimal.Decimal `json:"lineTotal" validate:"omitempty,gte=0"`
}

// SaleInput описывает запись о продаже, созданную вручную.
// Источник order недоступен: такие продажи выводятся только из заказа.
type SaleInput struct {
	Items    []SaleItemInput  `json:"items" validate:"dive"`
	Subtotal *decimal.Decimal `json:"subtotal" validate:"omitempty,gte=0"`
	Tax      *decimal.Decimal `json:"tax" validate:"omitempty,gte=0"`
	TaxRate  *decimal.Decimal `json:"taxRate" validate:"omitempty,gte=0"`
	Total    *decimal.Decimal `json:"total" validate:"omitempty,gte=0"`
	Source   string           `json:"source" validate:"omitempty,oneof=admin other"`
	OrderRef string           `json:"orderRef"`
	Note     string           `json:"note"`
	Meta     map[string]any   `json:"meta"`
}

// SaleFromOrder выводит запись о продаже из заказа.
// Сумма позиции берётся из заказа, если указана, иначе цена × количество.
// Подытог и итог берутся из заказа, если указаны; итог по умолчанию равен подытогу, налог равен нулю.
func SaleFromOrder(o *model.Order, createdBy string) *model.Sale {
	items := make([]model.SaleItem, 0, len(o.Items))
	sum := decimal.Zero
	for _, it := range o.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		line := it.Price.Mul(decimal.NewFromInt(int64(qty)))
		if it.LineTotal.Valid {
			line = it.LineTotal.Decimal
		}
		items = append(items, model.SaleItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  qty,
			LineTotal: line,
		})
		sum = sum.Add(line)
	}

	subtotal := sum
	if o.Pricing.Subtotal.Valid {
		subtotal = o.Pricing.Subtotal.Decimal
	}
	total := subtotal
	if o.Pricing.Total.Valid {
		total = o.Pricing.Total.Decimal
	}
	tax := decimal.Zero
	if o.Pricing.Tax.Valid {
		tax = o.Pricing.Tax.Decimal
	}

	return &model.Sale{
		ID:        uuid.NewString(),
		Items:     items,
		Subtotal:  subtotal,
		Tax:       tax,
		TaxRate:   decimal.Zero,
		Total:     total,
		Source:    model.SaleSourceOrder,
		OrderRef:  o.ID,
		CreatedBy: createdBy,
		Meta:      map[string]any{},
	}
}

// recordOrderSale записывает продажу по заказу и закрывает запись очереди.
// Уже записанная продажа по тому же заказу считается успехом.
func (s *Service) recordOrderSale(ctx context.Context, o *model.Order, createdBy string) error {
	sale := SaleFromOrder(o, createdBy)

	err := s.repo.CreateSale(ctx, sale)
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		if ferr := s.repo.FailSaleIntent(ctx, o.ID, err.Error()); ferr != nil {
			s.logger.Error("mark sale intent failed", zap.String("orderID", o.ID), zap.Error(ferr))
		}
		return fmt.Errorf("%w: %v", ErrSaleWriteFailed, err)
	}

	if err := s.repo.CompleteSaleIntent(ctx, o.ID); err != nil {
		s.logger.Error("complete sale intent", zap.String("orderID", o.ID), zap.Error(err))
	}
	return nil
}

// RecordSale сохраняет запись о продаже, переданную вручную.
func (s *Service) RecordSale(ctx context.Context, userID string, in SaleInput) (*model.Sale, error) {
	if err := validation.Struct(invalidSaleMessage, in); err != nil {
		return nil, err
	}

	sale := &model.Sale{
		ID:        uuid.NewString(),
		Items:     make([]model.SaleItem, 0, len(in.Items)),
		Tax:       decimal.Zero,
		TaxRate:   decimal.Zero,
		Source:    model.SaleSource(in.Source),
		OrderRef:  in.OrderRef,
		CreatedBy: userID,
		Note:      in.Note,
		Meta:      in.Meta,
	}
	if sale.Source == "" {
		sale.Source = model.SaleSourceAdmin
	}

	sum := decimal.Zero
	for _, it := range in.Items {
		item := model.SaleItem{ProductID: it.ProductID, Name: it.Name, Quantity: 1}
		if it.Price != nil {
			item.Price = *it.Price
		}
		if it.Quantity != nil {
			item.Quantity = *it.Quantity
		}
		item.LineTotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if it.LineTotal != nil {
			item.LineTotal = *it.LineTotal
		}
		sale.Items = append(sale.Items, item)
		sum = sum.Add(item.LineTotal)
	}

	sale.Subtotal = sum
	if in.Subtotal != nil {
		sale.Subtotal = *in.Subtotal
	}
	if in.Tax != nil {
		sale.Tax = *in.Tax
	}
	if in.TaxRate != nil {
		sale.TaxRate = *in.TaxRate
	}
	sale.Total = sale.Subtotal.Add(sale.Tax)
	if in.Total != nil {
		sale.Total = *in.Total
	}

	if err := s.repo.CreateSale(ctx, sale); err != nil {
		var ce *repository.ConstraintError
		if errors.As(err, &ce) {
			return nil, validation.New(invalidSaleMessage, ce.Field(), "constraint", nil)
		}
		return nil, errors.Wrap(err, "create sale")
	}
	return sale, nil
}

// ListSales возвращает все продажи, новые первыми.
func (s *Service) ListSales(ctx context.Context) ([]model.Sale, error) {
	return s.repo.ListSales(ctx)
}
