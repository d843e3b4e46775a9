package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusPaid      Status = "paid"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

// DefaultCurrency is used for payment intents; orders are priced in a single currency.
const DefaultCurrency = "usd"

// CartItem is what the client asks for. Nothing in it is trusted beyond the product reference.
type CartItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"amount"`
}

// Product is the catalog record; its price is authoritative.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
}

// LineItem snapshots a product at checkout time.
type LineItem struct {
	ProductID string          `json:"product"`
	Quantity  int             `json:"amount"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

// Amount is Quantity * Price.
func (li LineItem) Amount() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user"`
	Items           []LineItem      `json:"orderItems"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	ClientSecret    string          `json:"clientSecret"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// MarkPaid attaches the provider reference and moves the order to paid.
func (o *Order) MarkPaid(paymentIntentID string, at time.Time) {
	o.PaymentIntentID = paymentIntentID
	o.Status = StatusPaid
	o.UpdatedAt = at
}
