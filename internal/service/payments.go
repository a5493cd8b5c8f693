package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mmeshcher/freshmart/internal/payment"
	"github.com/mmeshcher/freshmart/internal/validation"
)

const defaultCurrency = "INR"

// PaymentOrderInput описывает запрос на создание заказа в шлюзе. Сумма в минимальных единицах валюты.
type PaymentOrderInput struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// VerifyPaymentInput содержит ответ шлюза после оплаты.
type VerifyPaymentInput struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// PaymentConfigured сообщает, настроен ли платёжный шлюз.
func (s *Service) PaymentConfigured() bool {
	return s.gateway != nil && s.gateway.Configured()
}

// CreatePaymentOrder создаёт заказ в платёжном шлюзе.
func (s *Service) CreatePaymentOrder(ctx context.Context, in PaymentOrderInput) (json.RawMessage, error) {
	if !s.PaymentConfigured() {
		return nil, payment.ErrNotConfigured
	}
	if in.Amount <= 0 {
		return nil, validation.New("Invalid amount", "amount", "gt", in.Amount)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	return s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   in.Amount,
		Currency: currency,
		Receipt:  in.Receipt,
	})
}

// VerifyPayment проверяет подпись платежа.
func (s *Service) VerifyPayment(in VerifyPaymentInput) (bool, error) {
	if s.gateway == nil {
		return payment.NewVerifier("").Verify(in.OrderID, in.PaymentID, in.Signature)
	}
	return s.gateway.Verify(in.OrderID, in.PaymentID, in.Signature)
}
