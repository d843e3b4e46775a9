package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aq2208/order-api/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

// bindingKey routes every order event to the projection queue.
const bindingKey = "order.*"

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitProducer implements usecase.EventPublisher
type RabbitProducer struct {
	ch       amqpPublisher
	exchange string
}

// DeclareTopology sets up the exchange, queue, and binding once at startup.
func DeclareTopology(ch *amqp.Channel, exchange, queue string) error {
	// 1. declare exchange (topic type, durable)
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// 2. declare queue
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// 3. bind queue → exchange
	if err := ch.QueueBind(q.Name, bindingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}

func NewRabbitProducer(ch amqpPublisher, exchange string) *RabbitProducer {
	return &RabbitProducer{ch: ch, exchange: exchange}
}

// PublishOrderEvent sends msg to the exchange using its type as routing key.
func (p *RabbitProducer) PublishOrderEvent(ctx context.Context, msg usecase.OrderEventMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Type:         msg.Type,
		MessageId:    msg.OrderID + ":" + msg.Type,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, msg.Type, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

var _ usecase.EventPublisher = (*RabbitProducer)(nil)
