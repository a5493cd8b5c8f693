package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/freshmart/internal/model"
)

type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type userDetailResponse struct {
	userResponse
	Cart      []model.LineItem `json:"cart"`
	Favorites []string         `json:"favorites"`
	Address   *model.Address   `json:"address,omitempty"`
	Settings  model.Settings   `json:"settings"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
	}
}

func newUserDetailResponse(u *model.User) userDetailResponse {
	cart := u.Cart
	if cart == nil {
		cart = []model.LineItem{}
	}
	favorites := u.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return userDetailResponse{
		userResponse: newUserResponse(u),
		Cart:         cart,
		Favorites:    favorites,
		Address:      u.Address,
		Settings:     u.Settings,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type productResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Price          decimal.Decimal `json:"price"`
	Unit           string          `json:"unit"`
	Stock          int             `json:"stock"`
	Image          string          `json:"image,omitempty"`
	Description    string          `json:"description,omitempty"`
	Active         bool            `json:"active"`
	Rating         decimal.Decimal `json:"rating"`
	Discount       int             `json:"discount"`
	Sold           int             `json:"sold"`
	IsFeatured     bool            `json:"isFeatured"`
	DefaultMeasure decimal.Decimal `json:"defaultMeasure"`
	AddedAt        time.Time       `json:"addedAt"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func newProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.Category,
		Price:          p.Price,
		Unit:           p.Unit,
		Stock:          p.Stock,
		Image:          p.Image,
		Description:    p.Description,
		Active:         p.Active,
		Rating:         p.Rating,
		Discount:       p.Discount,
		Sold:           p.Sold,
		IsFeatured:     p.IsFeatured,
		DefaultMeasure: p.DefaultMeasure,
		AddedAt:        p.AddedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func newProductsResponse(products []model.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, newProductResponse(&products[i]))
	}
	return out
}

type orderResponse struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"createdAt"`
	Items        []model.LineItem  `json:"items"`
	Pricing      model.Pricing     `json:"pricing"`
	DeliverySlot string            `json:"deliverySlot,omitempty"`
	Payment      model.PaymentInfo `json:"payment"`
	Address      model.Address     `json:"address"`
	Status       string            `json:"status"`
}

type orderOwnerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type adminOrderResponse struct {
	orderResponse
	User orderOwnerResponse `json:"user"`
}

func newOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:           o.ID,
		CreatedAt:    o.CreatedAt,
		Items:        o.Items,
		Pricing:      o.Pricing,
		DeliverySlot: o.DeliverySlot,
		Payment:      o.Payment,
		Address:      o.Address,
		Status:       string(o.Status),
	}
}

func newOrdersResponse(orders []model.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return out
}

type saleResponse struct {
	ID        string           `json:"id"`
	Items     []model.SaleItem `json:"items"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Tax       decimal.Decimal  `json:"tax"`
	TaxRate   decimal.Decimal  `json:"taxRate"`
	Total     decimal.Decimal  `json:"total"`
	Source    string           `json:"source"`
	OrderRef  string           `json:"orderRef,omitempty"`
	CreatedBy string           `json:"createdBy,omitempty"`
	Note      string           `json:"note,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

func newSaleResponse(s *model.Sale) saleResponse {
	return saleResponse{
		ID:        s.ID,
		Items:     s.Items,
		Subtotal:  s.Subtotal,
		Tax:       s.Tax,
		TaxRate:   s.TaxRate,
		Total:     s.Total,
		Source:    string(s.Source),
		OrderRef:  s.OrderRef,
		CreatedBy: s.CreatedBy,
		Note:      s.Note,
		CreatedAt: s.CreatedAt,
	}
}
