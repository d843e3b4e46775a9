package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes a single delivery and must tolerate redelivery.
// nil => ACK; ErrMalformed => NACK and drop; any other error => NACK, requeued per Router.
type Handler interface {
	Handle(ctx context.Context, d amqp.Delivery) error
}
