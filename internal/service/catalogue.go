package service

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/repository"
	"github.com/mmeshcher/freshmart/internal/validation"
)

const (
	maxCatalogueLimit   = 200
	defaultShelfLimit   = 10
	maxShelfLimit       = 20
	defaultProductUnit  = "kg"
	productPayloadError = "Invalid product payload"
)

// ProductInput содержит данные товара от администратора. Отсутствующие поля при обновлении не меняются.
type ProductInput struct {
	Name           *string          `json:"name" validate:"omitempty,min=1"`
	Category       *string          `json:"category" validate:"omitempty,min=1"`
	Price          *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Unit           *string          `json:"unit"`
	Stock          *int             `json:"stock" validate:"omitempty,gte=0"`
	Image          *string          `json:"image"`
	Description    *string          `json:"description"`
	Active         *bool            `json:"active"`
	Rating         *decimal.Decimal `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Discount       *int             `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Sold           *int             `json:"sold" validate:"omitempty,gte=0"`
	IsFeatured     *bool            `json:"isFeatured"`
	DefaultMeasure *decimal.Decimal `json:"defaultMeasure" validate:"omitempty,gte=0"`
}

// ListProducts возвращает активные товары каталога. Лимит ограничен 200.
func (s *Service) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	switch f.Sort {
	case model.SortPriceAsc, model.SortPriceDesc, model.SortNewest, model.SortOldest:
	default:
		f.Sort = model.SortNewest
	}
	f.OnlyActive = true
	f.Search = strings.TrimSpace(f.Search)
	f.Limit = clampLimit(f.Limit, maxCatalogueLimit, maxCatalogueLimit)
	return s.repo.ListProducts(ctx, f)
}

// ListTrending возвращает самые продаваемые товары.
func (s *Service) ListTrending(ctx context.Context, limit int) ([]model.Product, error) {
	return s.listShelf(ctx, model.ProductFilter{Sort: model.SortTrending}, limit)
}

// ListOffers возвращает товары со скидкой, самые выгодные первыми.
func (s *Service) ListOffers(ctx context.Context, limit int) ([]model.Product, error) {
	return s.listShelf(ctx, model.ProductFilter{Sort: model.SortOffers, OnlyOffers: true}, limit)
}

// ListFeatured возвращает рекомендуемые товары.
func (s *Service) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	return s.listShelf(ctx, model.ProductFilter{Sort: model.SortNewest, OnlyFeatured: true}, limit)
}

func (s *Service) listShelf(ctx context.Context, f model.ProductFilter, limit int) ([]model.Product, error) {
	f.OnlyActive = true
	f.Limit = clampLimit(limit, defaultShelfLimit, maxShelfLimit)
	return s.repo.ListProducts(ctx, f)
}

func clampLimit(limit, def, upper int) int {
	if limit <= 0 {
		return def
	}
	if limit > upper {
		return upper
	}
	return limit
}

// GetProduct возвращает активный товар. Неактивный товар считается отсутствующим.
func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !p.Active {
		return nil, ErrNotFound
	}
	return p, nil
}

// AdminListProducts возвращает все товары, включая неактивные.
func (s *Service) AdminListProducts(ctx context.Context, category string) ([]model.Product, error) {
	return s.repo.ListProducts(ctx, model.ProductFilter{
		Category: strings.TrimSpace(category),
		Sort:     model.SortNewest,
	})
}

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := validateProduct(in, true); err != nil {
		return nil, err
	}

	p := &model.Product{
		ID:             uuid.NewString(),
		Unit:           defaultProductUnit,
		Active:         true,
		DefaultMeasure: decimal.NewFromInt(1),
	}
	applyProductInput(p, in)

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, productError(err)
	}
	return p, nil
}

// UpdateProduct применяет частичное изменение товара.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*model.Product, error) {
	if err := validateProduct(in, false); err != nil {
		return nil, err
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	applyProductInput(p, in)

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, productError(err)
	}
	return p, nil
}

// DeleteProduct удаляет товар из каталога.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return notFound(s.repo.DeleteProduct(ctx, id))
}

func validateProduct(in ProductInput, create bool) error {
	if err := validation.Struct(productPayloadError, in); err != nil {
		return err
	}
	if !create {
		return nil
	}
	switch {
	case in.Name == nil || strings.TrimSpace(*in.Name) == "":
		return validation.New(productPayloadError, "name", "required", nil)
	case in.Category == nil || strings.TrimSpace(*in.Category) == "":
		return validation.New(productPayloadError, "category", "required", nil)
	case in.Price == nil:
		return validation.New(productPayloadError, "price", "required", nil)
	}
	return nil
}

func applyProductInput(p *model.Product, in ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Unit != nil && strings.TrimSpace(*in.Unit) != "" {
		p.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
	if in.Sold != nil {
		p.Sold = *in.Sold
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.DefaultMeasure != nil {
		p.DefaultMeasure = *in.DefaultMeasure
	}
}

func productError(err error) error {
	var ce *repository.ConstraintError
	if errors.As(err, &ce) {
		return validation.New(productPayloadError, ce.Field(), "constraint", nil)
	}
	return notFound(err)
}
