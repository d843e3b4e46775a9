package usecase

import (
	"context"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/shopspring/decimal"
)

// ProductLookup resolves catalog records. A missing product is (nil, nil).
type ProductLookup interface {
	FindProduct(ctx context.Context, id string) (*domain.Product, error)
}

// OrderFilter narrows List; the zero value matches every order.
type OrderFilter struct {
	UserID string
}

// OrderRepo persists orders. GetByID returns (nil, nil) when the order does not exist.
type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
	Save(ctx context.Context, o *domain.Order) error
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
}

type ChargeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	SourceToken string
}

type Charge struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	Paid     bool            `json:"paid"`
}

// PaymentGateway is the payment provider. A declined charge is returned as an error.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (PaymentIntent, error)
	CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error)
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, msg OrderEventMsg) error
}

// CachedStatus is the cached view of an order's status, keyed by order id.
type CachedStatus struct {
	UserID string
	Status string
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, st CachedStatus) error
	GetStatus(ctx context.Context, orderID string) (CachedStatus, bool, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
	Release(ctx context.Context, scope, key string) error
}
