package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aq2208/order-api/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"27":     2700,
		"27.5":   2750,
		"0.01":   1,
		"10.005": 1001,
		"0":      0,
	}
	for in, want := range cases {
		assert.Equal(t, want, toMinorUnits(decimal.RequireFromString(in)), in)
	}
	assert.True(t, fromMinorUnits(2750).Equal(decimal.RequireFromString("27.5")))
}

func TestFakeGateway(t *testing.T) {
	g := NewFakeGateway()
	ctx := context.Background()

	pi, err := g.CreatePaymentIntent(ctx, decimal.NewFromInt(27), "USD")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pi.ID, "pi_fake_"))
	assert.True(t, strings.HasPrefix(pi.ClientSecret, pi.ID+"_secret_"))
	assert.Equal(t, "usd", pi.Currency)
	assert.True(t, pi.Amount.Equal(decimal.NewFromInt(27)))

	other, err := g.CreatePaymentIntent(ctx, decimal.NewFromInt(1), "usd")
	require.NoError(t, err)
	assert.NotEqual(t, pi.ClientSecret, other.ClientSecret)

	ch, err := g.CreateCharge(ctx, usecase.ChargeRequest{Amount: decimal.NewFromInt(5), Currency: "usd", SourceToken: "tok_visa"})
	require.NoError(t, err)
	assert.True(t, ch.Paid)
	assert.Equal(t, "succeeded", ch.Status)

	_, err = g.CreateCharge(ctx, usecase.ChargeRequest{Amount: decimal.NewFromInt(5), Currency: "usd", SourceToken: DeclinedToken})
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Len(t, g.Charges(), 1)
}

type flakyGateway struct {
	calls int
	err   error
}

func (f *flakyGateway) CreatePaymentIntent(context.Context, decimal.Decimal, string) (usecase.PaymentIntent, error) {
	f.calls++
	return usecase.PaymentIntent{ID: "pi_1"}, f.err
}

func (f *flakyGateway) CreateCharge(context.Context, usecase.ChargeRequest) (usecase.Charge, error) {
	f.calls++
	return usecase.Charge{ID: "ch_1"}, f.err
}

func TestBreakerGateway_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &flakyGateway{err: errors.New("connection refused")}
	b := NewBreakerGateway(next, BreakerOptions{Name: "test", ConsecutiveFails: 2, OpenFor: time.Minute, HalfOpenRequests: 1})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.CreatePaymentIntent(ctx, decimal.NewFromInt(1), "usd")
		require.Error(t, err)
	}
	_, err := b.CreatePaymentIntent(ctx, decimal.NewFromInt(1), "usd")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.calls, "open breaker must not reach the provider")

	// charges have their own breaker
	next.err = nil
	ch, err := b.CreateCharge(ctx, usecase.ChargeRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ch_1", ch.ID)
}

func TestBreakerGateway_DeclinesDoNotTrip(t *testing.T) {
	next := &flakyGateway{err: fmt.Errorf("create charge: %w", ErrDeclined)}
	b := NewBreakerGateway(next, BreakerOptions{Name: "test", ConsecutiveFails: 1, OpenFor: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := b.CreateCharge(context.Background(), usecase.ChargeRequest{})
		assert.ErrorIs(t, err, ErrDeclined)
	}
	assert.Equal(t, 3, next.calls)
}
