// Package payment предоставляет клиент платёжного шлюза Razorpay и проверку подписи платежей.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// DefaultBaseURL задаёт адрес API шлюза по умолчанию.
const DefaultBaseURL = "https://api.razorpay.com"

// Config содержит учётные данные шлюза. Создаётся один раз при старте процесса.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// Configured сообщает, заданы ли оба ключа шлюза.
func (c Config) Configured() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

// ShortKey возвращает обезличенный идентификатор ключа для журналов.
func (c Config) ShortKey() string {
	if len(c.KeyID) > 6 {
		return c.KeyID[:6] + "***"
	}
	return c.KeyID
}

// OrderRequest описывает запрос на создание заказа в шлюзе. Сумма в минимальных единицах валюты.
type OrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

// StatusError возвращается, если шлюз ответил неуспешным статусом.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected gateway status: %d", e.StatusCode)
}

// Client инкапсулирует HTTP-взаимодействие с платёжным шлюзом.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	verifier   *Verifier
}

// NewClient создаёт клиент шлюза по явной конфигурации.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(base, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		verifier: NewVerifier(cfg.KeySecret),
	}
}

// Configured сообщает, может ли клиент обращаться к шлюзу.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.Configured()
}

// Verify проверяет подпись платежа секретом шлюза.
func (c *Client) Verify(orderID, paymentID, signature string) (bool, error) {
	if c == nil {
		return (*Verifier)(nil).Verify(orderID, paymentID, signature)
	}
	return c.verifier.Verify(orderID, paymentID, signature)
}

// CreateOrder создаёт заказ в шлюзе и возвращает его JSON-представление без изменений.
func (c *Client) CreateOrder(ctx context.Context, in OrderRequest) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if !json.Valid(data) {
		return nil, errors.New("decode response: invalid JSON")
	}

	return json.RawMessage(data), nil
}
