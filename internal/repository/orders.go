package repository

import (
	"context"

	"github.com/mmeshcher/freshmart/internal/model"
)

const orderColumns = `o.id, o.user_id, o.items, o.pricing, o.delivery_slot, o.payment,
	o.address, o.status, o.created_at, o.updated_at`

// CreateOrder сохраняет заказ и в той же транзакции ставит в очередь запись о продаже по нему.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	items, err := marshalJSON(o.Items)
	if err != nil {
		return err
	}
	pricing, err := marshalJSON(o.Pricing)
	if err != nil {
		return err
	}
	payment, err := marshalJSON(o.Payment)
	if err != nil {
		return err
	}
	address, err := marshalJSON(o.Address)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return classify(err, "begin tx")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, items, pricing, delivery_slot, payment, address, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		o.ID, o.UserID, items, pricing, o.DeliverySlot, payment, address, string(o.Status),
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return classify(err, "insert order")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO sale_intents (order_id, created_by) VALUES ($1, $2)`,
		o.ID, o.UserID,
	)
	if err != nil {
		return classify(err, "insert sale intent")
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(err, "commit tx")
	}
	return nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, classify(err, "get order")
	}
	return o, nil
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o
		 WHERE o.user_id = $1
		 ORDER BY o.created_at DESC, o.id`,
		userID,
	)
	if err != nil {
		return nil, classify(err, "select orders")
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, classify(err, "scan order")
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "rows error")
	}
	return orders, nil
}

// ListOrders возвращает все заказы вместе с данными владельцев.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.OrderWithOwner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+`, COALESCE(u.name, ''), COALESCE(u.email, '')
		 FROM orders o
		 LEFT JOIN users u ON u.id = o.user_id
		 ORDER BY o.created_at DESC, o.id`,
	)
	if err != nil {
		return nil, classify(err, "select orders")
	}
	defer rows.Close()

	var orders []model.OrderWithOwner
	for rows.Next() {
		var (
			o                model.OrderWithOwner
			items, pricing   []byte
			payment, address []byte
			status           string
		)
		err := rows.Scan(&o.ID, &o.UserID, &items, &pricing, &o.DeliverySlot, &payment,
			&address, &status, &o.CreatedAt, &o.UpdatedAt, &o.Owner.Name, &o.Owner.Email)
		if err != nil {
			return nil, classify(err, "scan order")
		}
		if err := decodeOrder(&o.Order, status, items, pricing, payment, address); err != nil {
			return nil, err
		}
		o.Owner.ID = o.UserID
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "rows error")
	}
	return orders, nil
}

// UpdateOrderStatus меняет статус заказа, только если текущий статус равен from.
// Если заказа нет или его статус уже другой, возвращает ErrNotFound.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE orders o SET status = $2, updated_at = now()
		 WHERE o.id = $1 AND o.status = $3
		 RETURNING `+orderColumns,
		id, string(to), string(from),
	)
	o, err := scanOrder(row)
	if err != nil {
		return nil, classify(err, "update order status")
	}
	return o, nil
}

func scanOrder(row scanner) (*model.Order, error) {
	var (
		o                model.Order
		items, pricing   []byte
		payment, address []byte
		status           string
	)
	err := row.Scan(&o.ID, &o.UserID, &items, &pricing, &o.DeliverySlot, &payment,
		&address, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeOrder(&o, status, items, pricing, payment, address); err != nil {
		return nil, err
	}
	return &o, nil
}

func decodeOrder(o *model.Order, status string, items, pricing, payment, address []byte) error {
	o.Status = model.OrderStatus(status)
	if err := unmarshalJSON(items, &o.Items); err != nil {
		return err
	}
	if err := unmarshalJSON(pricing, &o.Pricing); err != nil {
		return err
	}
	if err := unmarshalJSON(payment, &o.Payment); err != nil {
		return err
	}
	return unmarshalJSON(address, &o.Address)
}
