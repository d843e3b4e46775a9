package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aq2208/order-api/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestRabbitProducer_PublishOrderEvent(t *testing.T) {
	ch := &fakeChannel{}
	p := NewRabbitProducer(ch, "order.events")

	err := p.PublishOrderEvent(context.Background(), usecase.OrderEventMsg{
		Type: usecase.EventOrderPaid, OrderID: "o1", UserID: "u1", Status: "paid",
		Total: decimal.RequireFromString("27.50"), Currency: "usd",
	})
	require.NoError(t, err)
	require.Len(t, ch.sent, 1)

	got := ch.sent[0]
	assert.Equal(t, "order.events", got.exchange)
	assert.Equal(t, "order.paid", got.key)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, "o1:order.paid", got.msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "o1", body["orderId"])
	assert.Equal(t, "27.5", body["total"])
}

func TestRabbitProducer_PublishError(t *testing.T) {
	p := NewRabbitProducer(&fakeChannel{err: amqp.ErrClosed}, "x")
	err := p.PublishOrderEvent(context.Background(), usecase.OrderEventMsg{Type: usecase.EventOrderCreated})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestJSONHandler(t *testing.T) {
	var got usecase.OrderEventMsg
	h := JSONHandler[usecase.OrderEventMsg]{HandleFunc: func(_ context.Context, m usecase.OrderEventMsg) error {
		got = m
		return nil
	}}

	require.NoError(t, h.Handle(context.Background(), amqp.Delivery{Body: []byte(`{"orderId":"o1","status":"paid"}`)}))
	assert.Equal(t, "o1", got.OrderID)

	err := h.Handle(context.Background(), amqp.Delivery{Body: []byte(`{not json`)})
	assert.ErrorIs(t, err, ErrMalformed)
}

type memCache struct {
	m   map[string]usecase.CachedStatus
	err error
}

func (c *memCache) SetStatus(_ context.Context, id string, st usecase.CachedStatus) error {
	if c.err != nil {
		return c.err
	}
	c.m[id] = st
	return nil
}

func (c *memCache) GetStatus(_ context.Context, id string) (usecase.CachedStatus, bool, error) {
	st, ok := c.m[id]
	return st, ok, nil
}

func TestOrderEventsHandler(t *testing.T) {
	cache := &memCache{m: map[string]usecase.CachedStatus{}}
	h := NewOrderEventsHandler(cache)
	ctx := context.Background()

	require.NoError(t, h.HandleOrderEvent(ctx, usecase.OrderEventMsg{Type: usecase.EventOrderCreated, OrderID: "o1", UserID: "u1", Status: "pending"}))
	require.NoError(t, h.HandleOrderEvent(ctx, usecase.OrderEventMsg{Type: usecase.EventOrderPaid, OrderID: "o1", UserID: "u1", Status: "paid"}))
	assert.Equal(t, usecase.CachedStatus{UserID: "u1", Status: "paid"}, cache.m["o1"])

	err := h.HandleOrderEvent(ctx, usecase.OrderEventMsg{Type: usecase.EventOrderPaid})
	assert.ErrorIs(t, err, ErrMalformed)

	cache.err = errors.New("redis down")
	err = h.HandleOrderEvent(ctx, usecase.OrderEventMsg{OrderID: "o2", Status: "pending"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformed, "transient failures must be requeued")
}
