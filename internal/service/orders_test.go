package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/validation"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(v int) *int { return &v }

func validOrder() OrderInput {
	return OrderInput{
		Items: []OrderItemInput{
			{Name: "Apple", Price: dec("2.50"), Quantity: intPtr(2)},
			{Name: "Milk", Price: dec("1")},
		},
		DeliverySlot: "Today 6-8 PM",
		Payment:      &model.PaymentInfo{Method: "cod"},
	}
}

func TestPlaceOrder_PersistsOrderAndSale(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	id, err := svc.PlaceOrder(ctx, "u1", "", validOrder())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	orders, err := svc.ListMyOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0].ID)
	assert.Equal(t, model.OrderStatusProcessing, orders[0].Status)
	assert.Equal(t, 1, orders[0].Items[1].Quantity)
	assert.Equal(t, "kg", orders[0].Items[1].Unit)

	require.Equal(t, 1, repo.saleCount())
	sale := repo.sales[0]
	assert.Equal(t, model.SaleSourceOrder, sale.Source)
	assert.Equal(t, id, sale.OrderRef)
	assert.Equal(t, "u1", sale.CreatedBy)
	assert.True(t, decimal.RequireFromString("6").Equal(sale.Total), "total = %s", sale.Total)
	assert.Empty(t, repo.intents)
}

func TestPlaceOrder_RejectsEmptyItems(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItemInput
		kind  string
	}{
		{name: "missing", items: nil, kind: "required"},
		{name: "empty", items: []OrderItemInput{}, kind: "min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			svc := NewService(repo, nil, nil)

			_, err := svc.PlaceOrder(context.Background(), "u1", "", OrderInput{Items: tt.items})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidOrderPayload)

			verr, ok := validation.As(err)
			require.True(t, ok)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, "items", verr.Fields[0].Field)
			assert.Equal(t, tt.kind, verr.Fields[0].Kind)

			assert.Zero(t, repo.orderCount())
			assert.Zero(t, repo.saleCount())
		})
	}
}

func TestPlaceOrder_RejectsInvalidItems(t *testing.T) {
	tests := []struct {
		name  string
		item  OrderItemInput
		field string
		kind  string
	}{
		{name: "zero quantity", item: OrderItemInput{Price: dec("1"), Quantity: intPtr(0)}, field: "items[0].quantity", kind: "gt"},
		{name: "negative quantity", item: OrderItemInput{Price: dec("1"), Quantity: intPtr(-3)}, field: "items[0].quantity", kind: "gt"},
		{name: "negative price", item: OrderItemInput{Price: dec("-1")}, field: "items[0].price", kind: "gte"},
		{name: "missing price", item: OrderItemInput{Name: "x"}, field: "items[0].price", kind: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			svc := NewService(repo, nil, nil)

			_, err := svc.PlaceOrder(context.Background(), "u1", "", OrderInput{Items: []OrderItemInput{tt.item}})
			assert.ErrorIs(t, err, ErrInvalidOrderPayload)

			verr, ok := validation.As(err)
			require.True(t, ok)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Equal(t, tt.kind, verr.Fields[0].Kind)
			assert.Zero(t, repo.orderCount())
		})
	}
}

func TestPlaceOrder_RejectsInvalidAddress(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)

	in := validOrder()
	in.Address = &model.Address{Phone: "12ab", Pincode: "123"}

	_, err := svc.PlaceOrder(context.Background(), "u1", "", in)
	assert.ErrorIs(t, err, ErrInvalidOrderPayload)

	verr, ok := validation.As(err)
	require.True(t, ok)
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Kind
	}
	assert.Equal(t, "phone", fields["address.phone"])
	assert.Equal(t, "pincode", fields["address.pincode"])
	assert.Zero(t, repo.orderCount())
}

func TestPlaceOrder_SaleFailureDoesNotFailOrder(t *testing.T) {
	repo := newStubRepo()
	repo.createSaleErr = errors.New("ledger unavailable")
	svc := NewService(repo, nil, nil)

	id, err := svc.PlaceOrder(context.Background(), "u1", "", validOrder())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, 1, repo.orderCount())
	assert.Zero(t, repo.saleCount())

	require.Contains(t, repo.intents, id)
	assert.Equal(t, 1, repo.intents[id].Attempts)
	assert.Contains(t, repo.intents[id].LastError, "ledger unavailable")
}

func TestPlaceOrder_PersistenceFailure(t *testing.T) {
	repo := newStubRepo()
	repo.createOrderErr = errors.New("connection refused")
	svc := NewService(repo, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), "u1", "", validOrder())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidOrderPayload)
	assert.Zero(t, repo.saleCount())
}

func TestPlaceOrder_IdempotencyKey(t *testing.T) {
	repo := newStubRepo()
	dedup := newStubDedup()
	svc := NewService(repo, nil, nil, WithDeduplicator(dedup))
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, "u1", "k1", validOrder())
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, "u1", "k1", validOrder())
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	_, err = svc.PlaceOrder(ctx, "u2", "k1", validOrder())
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, "u1", "", validOrder())
	require.NoError(t, err)

	assert.Equal(t, 3, repo.orderCount())
}

func TestPlaceOrder_IdempotencyKeyReleasedOnFailure(t *testing.T) {
	repo := newStubRepo()
	repo.createOrderErr = errors.New("connection refused")
	dedup := newStubDedup()
	svc := NewService(repo, nil, nil, WithDeduplicator(dedup))
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, "u1", "k1", validOrder())
	require.Error(t, err)
	assert.Empty(t, dedup.keys)

	repo.createOrderErr = nil
	_, err = svc.PlaceOrder(ctx, "u1", "k1", validOrder())
	require.NoError(t, err)
}

func TestPlaceOrder_DedupUnavailableFailsOpen(t *testing.T) {
	repo := newStubRepo()
	dedup := newStubDedup()
	dedup.reserveErr = errors.New("redis down")
	svc := NewService(repo, nil, nil, WithDeduplicator(dedup))

	_, err := svc.PlaceOrder(context.Background(), "u1", "k1", validOrder())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.orderCount())
}

func TestListMyOrders_Repeatable(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.PlaceOrder(ctx, "u1", "", validOrder())
		require.NoError(t, err)
	}
	_, err := svc.PlaceOrder(ctx, "u2", "", validOrder())
	require.NoError(t, err)

	first, err := svc.ListMyOrders(ctx, "u1")
	require.NoError(t, err)
	second, err := svc.ListMyOrders(ctx, "u1")
	require.NoError(t, err)

	assert.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	id, err := svc.PlaceOrder(ctx, "u1", "", validOrder())
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, id, "cancelled")
	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "status", verr.Fields[0].Field)
	assert.Equal(t, "enum", verr.Fields[0].Kind)

	_, err = svc.UpdateOrderStatus(ctx, id, "delivered")
	verr, ok = validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "transition", verr.Fields[0].Kind)

	o, err := repo.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, o.Status)

	o, err = svc.UpdateOrderStatus(ctx, id, "shipped")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, o.Status)

	o, err = svc.UpdateOrderStatus(ctx, id, "shipped")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, o.Status)

	_, err = svc.UpdateOrderStatus(ctx, id, "processing")
	verr, ok = validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "transition", verr.Fields[0].Kind)

	o, err = svc.UpdateOrderStatus(ctx, id, "delivered")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, o.Status)

	_, err = svc.UpdateOrderStatus(ctx, id, "shipped")
	verr, ok = validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "transition", verr.Fields[0].Kind)

	_, err = svc.UpdateOrderStatus(ctx, "missing", "shipped")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrderStatus_ConcurrentChange(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	id, err := svc.PlaceOrder(ctx, "u1", "", validOrder())
	require.NoError(t, err)

	// Между чтением и записью другой запрос успевает довести заказ до delivered.
	repo.beforeStatusUpdate = func() {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		repo.orders[0].Status = model.OrderStatusDelivered
	}
	_, err = svc.UpdateOrderStatus(ctx, id, "shipped")
	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "transition", verr.Fields[0].Kind)

	o, err := repo.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, o.Status)
}
