// Package model содержит доменные сущности сервиса freshmart.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role описывает роль пользователя. Роль берётся только из сохранённого поля пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid сообщает, является ли роль допустимой.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User представляет зарегистрированного покупателя или администратора.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Phone        string
	AvatarURL    string
	Role         Role
	Cart         []LineItem
	Favorites    []string
	Address      *Address
	Settings     Settings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin сообщает, обладает ли пользователь правами администратора.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Settings содержит пользовательские настройки интерфейса.
type Settings struct {
	ThemeMode   string `json:"themeMode"`
	AccentColor string `json:"accentColor,omitempty"`
}

// Address описывает адрес доставки. Используется и в профиле, и в снимке адреса заказа.
type Address struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,phone"`
	Address  string `json:"address,omitempty"`
	Landmark string `json:"landmark,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode,omitempty" validate:"omitempty,pincode"`
	Type     string `json:"type,omitempty"`
	Default  bool   `json:"default"`
}

// LineItem описывает позицию корзины или заказа.
type LineItem struct {
	ProductID string              `json:"productId,omitempty"`
	Name      string              `json:"name"`
	Price     decimal.Decimal     `json:"price"`
	Quantity  int                 `json:"quantity"`
	Measure   decimal.Decimal     `json:"measure"`
	Unit      string              `json:"unit"`
	Image     string              `json:"image,omitempty"`
	LineTotal decimal.NullDecimal `json:"lineTotal"`
}

// Product описывает товар каталога.
type Product struct {
	ID             string
	Name           string
	Category       string
	Price          decimal.Decimal
	Unit           string
	Stock          int
	Image          string
	Description    string
	Active         bool
	Rating         decimal.Decimal
	Discount       int
	Sold           int
	IsFeatured     bool
	DefaultMeasure decimal.Decimal
	AddedAt        time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProductSort задаёт порядок выдачи каталога.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortOldest    ProductSort = "oldest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortTrending  ProductSort = "trending"
	SortOffers    ProductSort = "offers"
)

// ProductFilter описывает выборку товаров каталога.
type ProductFilter struct {
	Category     string
	Search       string
	OnlyActive   bool
	OnlyFeatured bool
	OnlyOffers   bool
	Sort         ProductSort
	Limit        int
}

// OrderStatus описывает статус выполнения заказа.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// Valid сообщает, входит ли статус в допустимый набор.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Next возвращает единственный допустимый следующий статус.
// Для delivered следующего статуса нет.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusProcessing:
		return OrderStatusShipped, true
	case OrderStatusShipped:
		return OrderStatusDelivered, true
	}
	return "", false
}

// Pricing содержит итоговые суммы заказа, как их передал клиент.
type Pricing struct {
	Subtotal    decimal.NullDecimal `json:"subtotal"`
	Discount    decimal.NullDecimal `json:"discount"`
	DeliveryFee decimal.NullDecimal `json:"deliveryFee"`
	Tax         decimal.NullDecimal `json:"tax"`
	Total       decimal.NullDecimal `json:"total"`
	Coupon      string              `json:"coupon,omitempty"`
}

// PaymentInfo описывает способ и результат оплаты заказа.
type PaymentInfo struct {
	Method    string `json:"method,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	Status    string `json:"status,omitempty"`
	UPIID     string `json:"upiId,omitempty"`
	CardLast4 string `json:"cardLast4,omitempty"`
}

// Order описывает оформленный заказ пользователя.
type Order struct {
	ID           string
	UserID       string
	Items        []LineItem
	Pricing      Pricing
	DeliverySlot string
	Payment      PaymentInfo
	Address      Address
	Status       OrderStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderOwner содержит публичные данные владельца заказа для административных списков.
type OrderOwner struct {
	ID    string
	Name  string
	Email string
}

// OrderWithOwner содержит заказ вместе с данными владельца.
type OrderWithOwner struct {
	Order
	Owner OrderOwner
}

// SaleSource описывает происхождение записи о продаже.
type SaleSource string

const (
	SaleSourceOrder SaleSource = "order"
	SaleSourceAdmin SaleSource = "admin"
	SaleSourceOther SaleSource = "other"
)

// Valid сообщает, является ли источник допустимым.
func (s SaleSource) Valid() bool {
	switch s {
	case SaleSourceOrder, SaleSourceAdmin, SaleSourceOther:
		return true
	}
	return false
}

// SaleItem описывает проданную позицию.
type SaleItem struct {
	ProductID string          `json:"productId,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Sale описывает запись финансового журнала продаж. После создания не изменяется.
// OrderRef является мягкой ссылкой на заказ, внешний ключ не проверяется.
type Sale struct {
	ID        string
	Items     []SaleItem
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	TaxRate   decimal.Decimal
	Total     decimal.Decimal
	Source    SaleSource
	OrderRef  string
	CreatedBy string
	Note      string
	Meta      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaleIntent описывает запись исходящей очереди: заказ, для которого продажа ещё не записана.
type SaleIntent struct {
	OrderID   string
	CreatedBy string
	Attempts  int
	LastError string
	CreatedAt time.Time
}
