package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

var (
	// ErrMissingFields возвращается, если не передан один из идентификаторов платежа.
	ErrMissingFields = errors.New("missing payment verification fields")
	// ErrNotConfigured возвращается, если на сервере не задан ключ платёжного шлюза.
	ErrNotConfigured = errors.New("payment gateway is not configured")
)

// Verifier проверяет подлинность ответа платёжного шлюза по общему секрету.
type Verifier struct {
	secret []byte
}

// NewVerifier создаёт Verifier. Пустой секрет означает, что шлюз не настроен.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify сравнивает подпись с HMAC-SHA256(secret, orderID + "|" + paymentID) в нижнем hex.
// Несовпадение подписи не является ошибкой: возвращается false.
func (v *Verifier) Verify(orderID, paymentID, signature string) (bool, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return false, ErrMissingFields
	}
	if v == nil || len(v.secret) == 0 {
		return false, ErrNotConfigured
	}

	expected := sign(v.secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

// Sign вычисляет подпись, которую шлюз выдаёт для пары заказ/платёж.
func Sign(secret, orderID, paymentID string) string {
	return sign([]byte(secret), orderID, paymentID)
}

func sign(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
