package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (os OrderStatus) String() string {
	return string(os)
}

func (os OrderStatus) Valid() bool {
	switch os {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (ps PaymentStatus) String() string {
	return string(ps)
}

// ShippingAddress is stored as JSONB on the order header.
type ShippingAddress struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode"`
	Country  string `json:"country,omitempty"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"` // unit price frozen at purchase time
	CreatedAt time.Time       `json:"created_at"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Notes           string          `json:"notes"`
	OrderItems      []OrderItem     `json:"order_items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductSnapshot is the catalog entry as it looks at read time, not at purchase time.
type ProductSnapshot struct {
	ID    uuid.UUID       `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

type OrderItemView struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	CreatedAt time.Time        `json:"created_at"`
	Product   *ProductSnapshot `json:"product"`
}

type OrderView struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Notes           string          `json:"notes"`
	OrderItems      []OrderItemView `json:"order_items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CatalogSnapshot is the pricing state of a catalog entry captured when an
// order is submitted.
type CatalogSnapshot struct {
	ProductID          uuid.UUID
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Available          bool
}

type ProposedLine struct {
	ProductID uuid.UUID
	Quantity  int
	Snapshot  *CatalogSnapshot
}

type PaymentConfirmation struct {
	ID string
}

type Checkout struct {
	PaymentMethod   string
	Payment         PaymentConfirmation
	ShippingAddress ShippingAddress
}

type DraftItem struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// Draft is an assembled order that has not been persisted yet.
type Draft struct {
	UserID          uuid.UUID
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	PaymentMethod   string
	ShippingAddress ShippingAddress
	Notes           string
	TotalAmount     decimal.Decimal
	Items           []DraftItem
}

// LineRequest is one requested purchase before catalog resolution.
type LineRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

type PlaceOrderInput struct {
	UserID   uuid.UUID
	Items    []LineRequest
	Checkout Checkout
}
