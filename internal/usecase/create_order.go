package usecase

import (
	"context"
	"time"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderInput struct {
	Actor          domain.Actor
	Items          []domain.CartItem
	Tax            decimal.Decimal
	ShippingFee    decimal.Decimal
	IdempotencyKey string
}

type CreateOrder struct {
	pricer  *Pricer
	repo    OrderRepo
	payment PaymentGateway
	idem    IdempotencyStore // optional
	events  EventPublisher   // optional
	now     func() time.Time
	newID   func() string
}

func NewCreateOrder(pricer *Pricer, repo OrderRepo, payment PaymentGateway, idem IdempotencyStore, events EventPublisher) *CreateOrder {
	return &CreateOrder{
		pricer:  pricer,
		repo:    repo,
		payment: payment,
		idem:    idem,
		events:  events,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// moneyScale is the number of fractional digits stored for amounts.
const moneyScale = 2

// ValidateCheckout applies the checkout preconditions. A zero tax or shipping fee counts as missing.
func ValidateCheckout(items []domain.CartItem, tax, shippingFee decimal.Decimal) error {
	if len(items) < 1 {
		return invalidRequest("no cart items provided")
	}
	if tax.IsZero() || shippingFee.IsZero() {
		return invalidRequest("tax and shipping fee required")
	}
	if tax.IsNegative() || shippingFee.IsNegative() {
		return invalidRequest("tax and shipping fee must not be negative")
	}
	if !tax.Equal(tax.Round(moneyScale)) || !shippingFee.Equal(shippingFee.Round(moneyScale)) {
		return invalidRequest("tax and shipping fee allow at most 2 decimal places")
	}
	for _, it := range items {
		if it.ProductID == "" {
			return invalidRequest("cart item without product")
		}
		if it.Quantity < 1 {
			return invalidRequest("invalid quantity for product " + it.ProductID)
		}
	}
	return nil
}

func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := ValidateCheckout(in.Items, in.Tax, in.ShippingFee); err != nil {
		return nil, err
	}

	log := logging.FromCtx(ctx)
	useIdem := uc.idem != nil && in.IdempotencyKey != ""
	if useIdem {
		// Fast path: a finished request with the same key
		id, ok, err := uc.idem.Recall(ctx, in.Actor.ID, in.IdempotencyKey)
		if err != nil {
			log.Warn("idempotency recall failed", "key", in.IdempotencyKey, "err", err)
		}
		if ok {
			existing, err := uc.repo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return existing, nil
			}
		}
		ok, err = uc.idem.TryLock(ctx, in.Actor.ID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicate
		}
	}

	order, err := uc.create(ctx, in)
	if err != nil {
		if useIdem {
			if rerr := uc.idem.Release(ctx, in.Actor.ID, in.IdempotencyKey); rerr != nil {
				log.Warn("idempotency release failed", "key", in.IdempotencyKey, "err", rerr)
			}
		}
		return nil, err
	}

	if useIdem {
		if err := uc.idem.Remember(ctx, in.Actor.ID, in.IdempotencyKey, order.ID); err != nil {
			// Unlock so a retry is not rejected as a duplicate for the whole TTL.
			log.Warn("idempotency remember failed", "key", in.IdempotencyKey, "order_id", order.ID, "err", err)
			if err := uc.idem.Release(ctx, in.Actor.ID, in.IdempotencyKey); err != nil {
				log.Warn("idempotency release failed", "key", in.IdempotencyKey, "err", err)
			}
		}
	}
	ordersCreated.Inc()
	return order, nil
}

func (uc *CreateOrder) create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	log := logging.FromCtx(ctx)

	priced, err := uc.pricer.Price(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	total := priced.Subtotal.Add(in.Tax).Add(in.ShippingFee)

	intent, err := uc.payment.CreatePaymentIntent(ctx, total, domain.DefaultCurrency)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	order := &domain.Order{
		ID:           uc.newID(),
		UserID:       in.Actor.ID,
		Items:        priced.Items,
		Subtotal:     priced.Subtotal,
		Tax:          in.Tax,
		ShippingFee:  in.ShippingFee,
		Total:        total,
		Currency:     domain.DefaultCurrency,
		ClientSecret: intent.ClientSecret,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	log.Info("order created", "order_id", order.ID, "user_id", order.UserID, "total", total.String(), "items", len(order.Items))

	publish(ctx, uc.events, EventOrderCreated, order)
	return order, nil
}

// publish is best effort; the order is already persisted.
func publish(ctx context.Context, events EventPublisher, typ string, o *domain.Order) {
	if events == nil {
		return
	}
	err := events.PublishOrderEvent(ctx, OrderEventMsg{
		Type:     typ,
		OrderID:  o.ID,
		UserID:   o.UserID,
		Status:   string(o.Status),
		Total:    o.Total,
		Currency: o.Currency,
	})
	if err != nil {
		logging.FromCtx(ctx).Warn("publish order event failed", "type", typ, "order_id", o.ID, "err", err)
	}
}
