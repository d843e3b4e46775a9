package usecase

import (
	"context"

	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/logging"
)

// OrderQueries serves the read side; none of these calls mutate state.
type OrderQueries struct {
	repo  OrderRepo
	cache OrderCache // optional
}

func NewOrderQueries(repo OrderRepo, cache OrderCache) *OrderQueries {
	return &OrderQueries{repo: repo, cache: cache}
}

func (q *OrderQueries) ListAll(ctx context.Context) ([]domain.Order, error) {
	return q.repo.List(ctx, OrderFilter{})
}

func (q *OrderQueries) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return q.repo.List(ctx, OrderFilter{UserID: userID})
}

func (q *OrderQueries) Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return loadOwned(ctx, q.repo, actor, orderID)
}

// Status answers from the cache when it can and falls back to the repository.
func (q *OrderQueries) Status(ctx context.Context, actor domain.Actor, orderID string) (domain.Status, error) {
	log := logging.FromCtx(ctx)
	if q.cache != nil {
		st, ok, err := q.cache.GetStatus(ctx, orderID)
		if err != nil {
			log.Warn("order status cache read failed", "order_id", orderID, "err", err)
		}
		if ok {
			if err := CheckPermission(actor, st.UserID); err != nil {
				return "", err
			}
			return domain.Status(st.Status), nil
		}
	}

	order, err := loadOwned(ctx, q.repo, actor, orderID)
	if err != nil {
		return "", err
	}
	if q.cache != nil {
		_ = q.cache.SetStatus(ctx, order.ID, CachedStatus{UserID: order.UserID, Status: string(order.Status)})
	}
	return order.Status, nil
}

// loadOwned fetches an order and applies CheckPermission.
func loadOwned(ctx context.Context, repo OrderRepo, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderNotFound(orderID)
	}
	if err := CheckPermission(actor, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}
