package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aq2208/gorder-storefront/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName        = "order.events"
	CompletedRoutingKey = "order.completed"
	CompletedQueue      = "order.completed.q"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitProducer implements usecase.OrderPublisher
type RabbitProducer struct {
	ch publisher
}

// NewRabbitProducer sets up the exchange, queue, and binding once at startup.
func NewRabbitProducer(ch *amqp.Channel) (*RabbitProducer, error) {
	// 1. declare exchange (topic type, durable)
	if err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	// 2. declare the kitchen queue
	q, err := ch.QueueDeclare(
		CompletedQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	// 3. bind queue → exchange
	if err := ch.QueueBind(q.Name, CompletedRoutingKey, ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitProducer{ch: ch}, nil
}

// PublishCompleted sends an "order.completed" event to the exchange.
func (p *RabbitProducer) PublishCompleted(ctx context.Context, msg usecase.OrderCompletedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		MessageId:    msg.OrderID,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, ExchangeName, CompletedRoutingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

var _ usecase.OrderPublisher = (*RabbitProducer)(nil)
