package usecase

import "github.com/shopspring/decimal"

const (
	EventOrderCreated = "order.created"
	EventOrderPaid    = "order.paid"
)

// Published on RabbitMQ after an order changes.
type OrderEventMsg struct {
	Type     string          `json:"type"`
	OrderID  string          `json:"orderId"`
	UserID   string          `json:"userId"`
	Status   string          `json:"status"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// Relayed from the payment provider on Kafka
type PaymentSucceededMsg struct {
	OrderID         string `json:"orderId"`
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"` // e.g. "succeeded"
}
