package queue

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrMalformed marks a delivery that can never be processed. The router
// drops it instead of requeueing.
var ErrMalformed = errors.New("malformed delivery")

// Handler processes a single delivery and must tolerate redelivery.
// nil acks; an error nacks.
type Handler interface {
	Handle(ctx context.Context, d amqp.Delivery) error
}

type HandlerFunc func(ctx context.Context, d amqp.Delivery) error

func (f HandlerFunc) Handle(ctx context.Context, d amqp.Delivery) error { return f(ctx, d) }
