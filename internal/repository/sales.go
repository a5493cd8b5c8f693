package repository

import (
	"context"

	"github.com/mmeshcher/freshmart/internal/model"
)

const saleColumns = `id, items, subtotal, tax, tax_rate, total, source, COALESCE(order_ref, ''),
	COALESCE(created_by, ''), note, meta, created_at, updated_at`

// CreateSale сохраняет запись о продаже. Для продаж из заказа действует уникальность по order_ref.
func (r *PostgresRepository) CreateSale(ctx context.Context, s *model.Sale) error {
	items, err := marshalJSON(s.Items)
	if err != nil {
		return err
	}
	meta := s.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaDoc, err := marshalJSON(meta)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO sales (id, items, subtotal, tax, tax_rate, total, source, order_ref, created_by, note, meta)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10, $11)
		 RETURNING created_at, updated_at`,
		s.ID, items, s.Subtotal, s.Tax, s.TaxRate, s.Total, string(s.Source),
		s.OrderRef, s.CreatedBy, s.Note, metaDoc,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return classify(err, "create sale")
	}
	return nil
}

// ListSales возвращает все продажи, новые первыми.
func (r *PostgresRepository) ListSales(ctx context.Context) ([]model.Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, classify(err, "select sales")
	}
	defer rows.Close()

	var sales []model.Sale
	for rows.Next() {
		var (
			s           model.Sale
			source      string
			items, meta []byte
		)
		err := rows.Scan(&s.ID, &items, &s.Subtotal, &s.Tax, &s.TaxRate, &s.Total, &source,
			&s.OrderRef, &s.CreatedBy, &s.Note, &meta, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, classify(err, "scan sale")
		}
		s.Source = model.SaleSource(source)
		if err := unmarshalJSON(items, &s.Items); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(meta, &s.Meta); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "rows error")
	}
	return sales, nil
}

// GetPendingSaleIntents возвращает заказы, продажа по которым ещё не записана.
func (r *PostgresRepository) GetPendingSaleIntents(ctx context.Context, limit int) ([]model.SaleIntent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, created_by, attempts, last_error, created_at
		 FROM sale_intents
		 WHERE processed_at IS NULL
		 ORDER BY created_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, classify(err, "select sale intents")
	}
	defer rows.Close()

	var res []model.SaleIntent
	for rows.Next() {
		var si model.SaleIntent
		if err := rows.Scan(&si.OrderID, &si.CreatedBy, &si.Attempts, &si.LastError, &si.CreatedAt); err != nil {
			return nil, classify(err, "scan sale intent")
		}
		res = append(res, si)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "rows error")
	}
	return res, nil
}

// CompleteSaleIntent отмечает, что продажа по заказу записана.
func (r *PostgresRepository) CompleteSaleIntent(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sale_intents SET processed_at = now() WHERE order_id = $1 AND processed_at IS NULL`,
		orderID,
	)
	if err != nil {
		return classify(err, "complete sale intent")
	}
	return nil
}

// FailSaleIntent фиксирует неудачную попытку записи продажи.
func (r *PostgresRepository) FailSaleIntent(ctx context.Context, orderID, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sale_intents SET attempts = attempts + 1, last_error = $2 WHERE order_id = $1`,
		orderID, reason,
	)
	if err != nil {
		return classify(err, "fail sale intent")
	}
	return nil
}
