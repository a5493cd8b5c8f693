package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/mmeshcher/freshmart/internal/model"
)

const productColumns = `id, name, category, price, unit, stock, image, description, active,
	rating, discount, sold, is_featured, default_measure, added_at, created_at, updated_at`

// ListProducts возвращает товары каталога по фильтру.
func (r *PostgresRepository) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.OnlyActive {
		conds = append(conds, "active")
	}
	if f.OnlyFeatured {
		conds = append(conds, "is_featured")
	}
	if f.OnlyOffers {
		conds = append(conds, "discount > 0")
	}
	if f.Category != "" {
		conds = append(conds, "category = "+arg(f.Category))
	}
	if f.Search != "" {
		conds = append(conds, "name ILIKE '%' || "+arg(escapeLike(f.Search))+" || '%'")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY ` + productOrder(f.Sort)
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "select products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, classify(err, "scan product")
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "rows error")
	}
	return products, nil
}

func productOrder(s model.ProductSort) string {
	switch s {
	case model.SortPriceAsc:
		return "price ASC, id"
	case model.SortPriceDesc:
		return "price DESC, id"
	case model.SortOldest:
		return "created_at ASC, id"
	case model.SortTrending:
		return "sold DESC, rating DESC, id"
	case model.SortOffers:
		return "discount DESC, created_at DESC, id"
	default:
		return "created_at DESC, id"
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, classify(err, "get product")
	}
	return p, nil
}

// CreateProduct сохраняет новый товар.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (id, name, category, price, unit, stock, image, description, active,
		                       rating, discount, sold, is_featured, default_measure)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING added_at, created_at, updated_at`,
		p.ID, p.Name, p.Category, p.Price, p.Unit, p.Stock, p.Image, p.Description, p.Active,
		p.Rating, p.Discount, p.Sold, p.IsFeatured, p.DefaultMeasure,
	).Scan(&p.AddedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return classify(err, "create product")
	}
	return nil
}

// UpdateProduct перезаписывает изменяемые поля товара.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE products
		 SET name = $2, category = $3, price = $4, unit = $5, stock = $6, image = $7,
		     description = $8, active = $9, rating = $10, discount = $11, sold = $12,
		     is_featured = $13, default_measure = $14, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		p.ID, p.Name, p.Category, p.Price, p.Unit, p.Stock, p.Image, p.Description, p.Active,
		p.Rating, p.Discount, p.Sold, p.IsFeatured, p.DefaultMeasure,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return classify(err, "update product")
	}
	return nil
}

// DeleteProduct удаляет товар.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete product")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row scanner) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Unit, &p.Stock, &p.Image,
		&p.Description, &p.Active, &p.Rating, &p.Discount, &p.Sold, &p.IsFeatured,
		&p.DefaultMeasure, &p.AddedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
