package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/aq2208/order-api/internal/logging"
	"github.com/aq2208/order-api/internal/usecase"
)

// HandlerFunc processes a decoded event.
type HandlerFunc func(ctx context.Context, ev usecase.PaymentSucceededMsg) error

// Consumer consumes a topic with a single handler.
type Consumer struct {
	Group  sarama.ConsumerGroup
	Topics []string
	Handle HandlerFunc
	Logger *slog.Logger

	// RetryBackoff is the first wait after a failed handler call; it doubles up to MaxRetryBackoff.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc) *Consumer {
	return &Consumer{
		Group:           group,
		Topics:          topics,
		Handle:          h,
		Logger:          logging.New("kafka-consumer"),
		RetryBackoff:    500 * time.Millisecond,
		MaxRetryBackoff: 30 * time.Second,
	}
}

// Start blocks until ctx is cancelled or the group is closed.
func (c *Consumer) Start(ctx context.Context) error {
	go func() {
		for err := range c.Group.Errors() {
			c.Logger.Warn("consumer group error", "err", err)
		}
	}()

	handler := &cgHandler{
		handle:     c.Handle,
		logger:     c.Logger,
		backoff:    c.RetryBackoff,
		maxBackoff: c.MaxRetryBackoff,
	}
	for {
		if err := c.Group.Consume(ctx, c.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		// When Consume returns, it's because ctx was cancelled or a rebalance happened.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type cgHandler struct {
	handle     HandlerFunc
	logger     *slog.Logger
	backoff    time.Duration
	maxBackoff time.Duration
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim handles messages strictly in offset order. A message that keeps
// failing blocks its partition, since marking any later offset would commit past it.
func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(sess, msg); err != nil {
				// session is ending; the offset stays uncommitted and is redelivered
				return nil
			}
		case <-sess.Context().Done():
			return nil
		}
	}
}

func (h *cgHandler) process(sess sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage) error {
	log := h.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

	var ev usecase.PaymentSucceededMsg
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		log.Error("kafka decode error", "err", err)
		// mark to avoid reprocessing poison
		sess.MarkMessage(msg, "decode-error")
		return nil
	}
	ctx := logging.WithCtx(sess.Context(), log.With("order_id", ev.OrderID))

	wait := h.backoff
	for attempt := 1; ; attempt++ {
		err := h.handle(ctx, ev)
		if err == nil {
			sess.MarkMessage(msg, "")
			return nil
		}
		log.Warn("handler error", "key", string(msg.Key), "attempt", attempt, "retry_in", wait, "err", err)

		t := time.NewTimer(wait)
		select {
		case <-sess.Context().Done():
			t.Stop()
			return sess.Context().Err()
		case <-t.C:
		}
		wait = max(min(wait*2, h.maxBackoff), time.Millisecond)
	}
}
