package usecase

import (
	"context"
	"strings"
	"time"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/logging"
)

type UpdatePaymentStatus struct {
	repo   OrderRepo
	cache  OrderCache     // optional
	events EventPublisher // optional
	now    func() time.Time
}

func NewUpdatePaymentStatus(repo OrderRepo, cache OrderCache, events EventPublisher) *UpdatePaymentStatus {
	return &UpdatePaymentStatus{repo: repo, cache: cache, events: events, now: time.Now}
}

// Execute records the provider's payment reference and marks the order paid.
func (uc *UpdatePaymentStatus) Execute(ctx context.Context, actor domain.Actor, orderID, paymentIntentID string) (*domain.Order, error) {
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, invalidRequest("payment intent id required")
	}

	order, err := loadOwned(ctx, uc.repo, actor, orderID)
	if err != nil {
		return nil, err
	}

	updated := *order
	updated.MarkPaid(paymentIntentID, uc.now().UTC())
	if err := uc.repo.Save(ctx, &updated); err != nil {
		return nil, err
	}
	log := logging.FromCtx(ctx)
	log.Info("order paid", "order_id", updated.ID, "payment_intent_id", paymentIntentID, "by", actor.ID)

	if uc.cache != nil {
		st := CachedStatus{UserID: updated.UserID, Status: string(updated.Status)}
		if err := uc.cache.SetStatus(ctx, updated.ID, st); err != nil {
			log.Warn("order status cache write failed", "order_id", updated.ID, "err", err)
		}
	}

	publish(ctx, uc.events, EventOrderPaid, &updated)
	return &updated, nil
}
