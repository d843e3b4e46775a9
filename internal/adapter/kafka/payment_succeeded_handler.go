package kafka

import (
	"context"
	"errors"
	"strings"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/logging"
	"github.com/aq2208/order-api/internal/usecase"
)

type PaymentRecorder interface {
	Execute(ctx context.Context, actor domain.Actor, orderID, paymentIntentID string) (*domain.Order, error)
}

// PaymentSucceededHandler marks orders paid when the provider confirms a payment.
type PaymentSucceededHandler struct {
	Payments PaymentRecorder
}

func NewPaymentSucceededHandler(p PaymentRecorder) *PaymentSucceededHandler {
	return &PaymentSucceededHandler{Payments: p}
}

func (h *PaymentSucceededHandler) Handle(ctx context.Context, ev usecase.PaymentSucceededMsg) error {
	log := logging.FromCtx(ctx)
	if ev.Status != "" && !strings.EqualFold(ev.Status, "succeeded") {
		log.Debug("ignoring payment event", "status", ev.Status)
		return nil
	}

	_, err := h.Payments.Execute(ctx, domain.SystemActor, ev.OrderID, ev.PaymentIntentID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrOrderNotFound), errors.Is(err, usecase.ErrInvalidRequest):
		// retrying cannot fix these
		log.Warn("dropping payment event", "err", err)
		return nil
	default:
		return err
	}
}
