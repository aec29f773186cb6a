package models

import (
	"time"
)

// Order statuses. Transitions are one-directional and admin-driven,
// see handlers/order.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Coupon discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

var ProductCategories = []string{
	"electronics",
	"clothing",
	"shoes",
	"accessories",
	"home",
	"beauty",
	"sports",
	"other",
}

type Product struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name        string         `gorm:"not null"                        json:"name"`
	Description string         `gorm:"not null"                        json:"description"`
	Price       float64        `gorm:"not null;check:price >= 0"       json:"price"`
	Stock       int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Category    string         `gorm:"not null;index"                  json:"category"`
	Rating      float64        `gorm:"not null;default:0"              json:"rating"`
	NumReviews  int            `gorm:"not null;default:0"              json:"num_reviews"`
	Images      []ProductImage `gorm:"constraint:OnDelete:CASCADE"     json:"images"`
	Reviews     []Review       `gorm:"constraint:OnDelete:CASCADE"     json:"reviews,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PrimaryImage is the image snapshotted into cart and wishlist lines.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"index;not null"           json:"product_id"`
	URL       string `gorm:"not null"                 json:"url"`
	Position  int    `gorm:"not null;default:0"       json:"position"`
}

// Review holds one rating per (product, user); re-reviewing overwrites.
type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                      json:"id"`
	ProductID uint      `gorm:"index;not null;uniqueIndex:idx_review_product_user" json:"product_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_product_user"  json:"user_id"`
	Username  string    `gorm:"not null"                                      json:"username"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"    json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null"                 json:"role"`
	Addresses    []Address `gorm:"constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Address struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint   `gorm:"index;not null"           json:"user_id"`
	Street     string `gorm:"not null"                 json:"street"`
	City       string `gorm:"not null"                 json:"city"`
	PostalCode string `gorm:"not null"                 json:"postal_code"`
	Country    string `gorm:"not null"                 json:"country"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	Token     string    `gorm:"unique;not null"     json:"token"`
	UserID    uint      `gorm:"index;not null"      json:"user_id"`
	Role      string    `gorm:"not null"            json:"role"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	Revoked   bool      `gorm:"default:false"       json:"revoked"`
}

// CartItem is one cart line. Name, price and image are snapshots taken at
// add-time; totals are always computed from these snapshots, never from the
// live catalog.
type CartItem struct {
	ID        uint    `gorm:"primaryKey"                                   json:"id"`
	UserID    uint    `gorm:"index;not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_cart_user_product"   json:"product_id"`
	Name      string  `gorm:"not null"                                     json:"name"`
	Price     float64 `gorm:"not null"                                     json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `gorm:"not null;check:quantity > 0"                  json:"quantity"`
}

type Order struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string      `gorm:"unique;not null"          json:"order_number"`
	UserID      uint        `gorm:"index;not null"           json:"user_id"`
	Status      string      `gorm:"not null"                 json:"status"`
	Items       []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`

	ItemsPrice     float64 `gorm:"not null" json:"items_price"`
	DiscountAmount float64 `gorm:"not null" json:"discount_amount"`
	TaxPrice       float64 `gorm:"not null" json:"tax_price"`
	ShippingPrice  float64 `gorm:"not null" json:"shipping_price"`
	TotalPrice     float64 `gorm:"not null" json:"total_price"`
	CouponCode     string  `json:"coupon_code,omitempty"`

	ShippingStreet     string `gorm:"not null" json:"shipping_street"`
	ShippingCity       string `gorm:"not null" json:"shipping_city"`
	ShippingPostalCode string `gorm:"not null" json:"shipping_postal_code"`
	ShippingCountry    string `gorm:"not null" json:"shipping_country"`

	PaymentMethod string `gorm:"not null" json:"payment_method"`
	PaymentID     string `json:"payment_id,omitempty"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// OrderItem is a deep copy of a cart line at order time. Later product
// mutations must never alter it.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"index;not null"           json:"order_id"`
	ProductID uint    `gorm:"not null"                 json:"product_id"`
	Name      string  `gorm:"not null"                 json:"name"`
	Price     float64 `gorm:"not null"                 json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `gorm:"not null"                 json:"quantity"`
}

// Coupon codes are stored uppercase; lookups normalize the same way.
// The validity window is [StartDate, ExpiryDate).
type Coupon struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code              string    `gorm:"unique;not null"          json:"code"`
	DiscountType      string    `gorm:"not null"                 json:"discount_type"`
	DiscountAmount    float64   `gorm:"not null"                 json:"discount_amount"`
	MaxDiscountAmount *float64  `json:"max_discount_amount,omitempty"`
	MinOrderAmount    float64   `gorm:"not null;default:0"       json:"min_order_amount"`
	StartDate         time.Time `gorm:"not null"                 json:"start_date"`
	ExpiryDate        time.Time `gorm:"not null"                 json:"expiry_date"`
	MaxUses           int       `gorm:"not null;default:0"       json:"max_uses"`
	UsedCount         int       `gorm:"not null;default:0"       json:"used_count"`
	IsActive          bool      `gorm:"not null;default:true"    json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                       json:"id"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_wish_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wish_user_product"     json:"product_id"`
	Name      string    `gorm:"not null"                                       json:"name"`
	Price     float64   `gorm:"not null"                                       json:"price"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Type      string    `gorm:"not null"                 json:"type"`
	Message   string    `gorm:"not null"                 json:"message"`
	Read      bool      `gorm:"not null;default:false"   json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// All returns every model for AutoMigrate.
func All() []any {
	return []any{
		&Product{},
		&ProductImage{},
		&Review{},
		&User{},
		&Address{},
		&RefreshToken{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Coupon{},
		&WishlistItem{},
		&Notification{},
	}
}
