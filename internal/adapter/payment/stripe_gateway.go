package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aq2208/order-api/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// ErrDeclined marks a provider-side rejection of the payment itself, as opposed to
// the provider being unreachable.
var ErrDeclined = errors.New("payment declined")

type StripeGateway struct {
	sc      *client.API
	timeout time.Duration
}

func NewStripeGateway(secretKey string, timeout time.Duration) *StripeGateway {
	return &StripeGateway{sc: client.New(secretKey, nil), timeout: timeout}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (usecase.PaymentIntent, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return usecase.PaymentIntent{}, mapStripeErr("create payment intent", err)
	}
	return usecase.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       fromMinorUnits(pi.Amount),
		Currency:     string(pi.Currency),
	}, nil
}

func (g *StripeGateway) CreateCharge(ctx context.Context, req usecase.ChargeRequest) (usecase.Charge, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(toMinorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
	}
	if err := params.SetSource(req.SourceToken); err != nil {
		return usecase.Charge{}, fmt.Errorf("charge source: %w", err)
	}
	params.Context = ctx

	ch, err := g.sc.Charges.New(params)
	if err != nil {
		return usecase.Charge{}, mapStripeErr("create charge", err)
	}
	return usecase.Charge{
		ID:       ch.ID,
		Amount:   fromMinorUnits(ch.Amount),
		Currency: string(ch.Currency),
		Status:   string(ch.Status),
		Paid:     ch.Paid,
	}, nil
}

func (g *StripeGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func mapStripeErr(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.Type == stripe.ErrorTypeCard || se.Type == stripe.ErrorTypeInvalidRequest {
			return fmt.Errorf("%s: %w: %s", op, ErrDeclined, se.Msg)
		}
		return fmt.Errorf("%s: %s", op, se.Msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// toMinorUnits converts a major-unit amount to cents, rounding half away from zero.
func toMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

var _ usecase.PaymentGateway = (*StripeGateway)(nil)
