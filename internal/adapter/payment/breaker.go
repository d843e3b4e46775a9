package payment

import (
	"context"
	"errors"
	"time"

	"github.com/aq2208/order-api/internal/logging"
	"github.com/aq2208/order-api/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

type BreakerOptions struct {
	Name             string
	ConsecutiveFails uint32
	OpenFor          time.Duration
	HalfOpenRequests uint32
}

// BreakerGateway stops calling the provider after repeated transport failures.
// Declines are business outcomes and never trip it.
type BreakerGateway struct {
	next    usecase.PaymentGateway
	intents *gobreaker.CircuitBreaker[usecase.PaymentIntent]
	charges *gobreaker.CircuitBreaker[usecase.Charge]
}

func NewBreakerGateway(next usecase.PaymentGateway, opts BreakerOptions) *BreakerGateway {
	return &BreakerGateway{
		next:    next,
		intents: gobreaker.NewCircuitBreaker[usecase.PaymentIntent](breakerSettings(opts.Name+".intents", opts)),
		charges: gobreaker.NewCircuitBreaker[usecase.Charge](breakerSettings(opts.Name+".charges", opts)),
	}
}

func breakerSettings(name string, opts BreakerOptions) gobreaker.Settings {
	fails := opts.ConsecutiveFails
	if fails == 0 {
		fails = 5
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: opts.HalfOpenRequests,
		Timeout:     opts.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDeclined) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Base().Warn("payment breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
}

func (b *BreakerGateway) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (usecase.PaymentIntent, error) {
	return b.intents.Execute(func() (usecase.PaymentIntent, error) {
		return b.next.CreatePaymentIntent(ctx, amount, currency)
	})
}

func (b *BreakerGateway) CreateCharge(ctx context.Context, req usecase.ChargeRequest) (usecase.Charge, error) {
	return b.charges.Execute(func() (usecase.Charge, error) {
		return b.next.CreateCharge(ctx, req)
	})
}

var _ usecase.PaymentGateway = (*BreakerGateway)(nil)
