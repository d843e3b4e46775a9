package usecase

import (
	"context"
	"strings"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/logging"
	"github.com/shopspring/decimal"
)

type ChargeOrderInput struct {
	Actor       domain.Actor
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Token       string
}

// ChargeResult reports the provider outcome. A declined charge is a result, not an error.
type ChargeResult struct {
	Success bool    `json:"success"`
	Charge  *Charge `json:"charge,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type ChargeOrder struct {
	repo    OrderRepo
	payment PaymentGateway
}

func NewChargeOrder(repo OrderRepo, payment PaymentGateway) *ChargeOrder {
	return &ChargeOrder{repo: repo, payment: payment}
}

func (uc *ChargeOrder) Execute(ctx context.Context, in ChargeOrderInput) (ChargeResult, error) {
	order, err := loadOwned(ctx, uc.repo, in.Actor, in.OrderID)
	if err != nil {
		return ChargeResult{}, err
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = order.Currency
	}
	amount := in.Amount
	if amount.IsZero() {
		amount = order.Total
	}

	charge, err := uc.payment.CreateCharge(ctx, ChargeRequest{
		Amount:      amount,
		Currency:    currency,
		Description: in.Description,
		SourceToken: in.Token,
	})
	if err != nil {
		orderCharges.WithLabelValues("failed").Inc()
		logging.FromCtx(ctx).Warn("charge failed", "order_id", order.ID, "err", err)
		return ChargeResult{Success: false, Error: err.Error()}, nil
	}

	orderCharges.WithLabelValues("succeeded").Inc()
	logging.FromCtx(ctx).Info("charge succeeded", "order_id", order.ID, "charge_id", charge.ID)
	return ChargeResult{Success: true, Charge: &charge}, nil
}
