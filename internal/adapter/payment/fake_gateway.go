package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aq2208/order-api/internal/usecase"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeclinedToken is the source token FakeGateway refuses to charge.
const DeclinedToken = "tok_chargeDeclined"

// FakeGateway stands in for the provider in development. Intents always succeed;
// charges succeed unless the source is DeclinedToken.
type FakeGateway struct {
	mu      sync.Mutex
	intents []usecase.PaymentIntent
	charges []usecase.Charge
}

func NewFakeGateway() *FakeGateway { return &FakeGateway{} }

func (g *FakeGateway) CreatePaymentIntent(_ context.Context, amount decimal.Decimal, currency string) (usecase.PaymentIntent, error) {
	id := "pi_fake_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	pi := usecase.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Amount:       amount,
		Currency:     strings.ToLower(currency),
	}
	g.mu.Lock()
	g.intents = append(g.intents, pi)
	g.mu.Unlock()
	return pi, nil
}

func (g *FakeGateway) CreateCharge(_ context.Context, req usecase.ChargeRequest) (usecase.Charge, error) {
	if req.SourceToken == DeclinedToken {
		return usecase.Charge{}, fmt.Errorf("create charge: %w: your card was declined", ErrDeclined)
	}
	ch := usecase.Charge{
		ID:       "ch_fake_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Amount:   req.Amount,
		Currency: strings.ToLower(req.Currency),
		Status:   "succeeded",
		Paid:     true,
	}
	g.mu.Lock()
	g.charges = append(g.charges, ch)
	g.mu.Unlock()
	return ch, nil
}

// Charges returns a copy of the successful charges so far.
func (g *FakeGateway) Charges() []usecase.Charge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]usecase.Charge(nil), g.charges...)
}

var _ usecase.PaymentGateway = (*FakeGateway)(nil)
