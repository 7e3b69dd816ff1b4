package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JSONHandler decodes the delivery body into T before calling HandleFunc.
// Non-JSON payloads and bodies Validate rejects are reported as ErrMalformed.
type JSONHandler[T any] struct {
	HandleFunc func(ctx context.Context, msg T) error
	Validate   func(msg T) error // optional
}

func (h JSONHandler[T]) Handle(ctx context.Context, d amqp.Delivery) error {
	if d.ContentType != "" && d.ContentType != "application/json" {
		return fmt.Errorf("%w: content type %q", ErrMalformed, d.ContentType)
	}
	var v T
	if err := json.Unmarshal(d.Body, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if h.Validate != nil {
		if err := h.Validate(v); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return h.HandleFunc(ctx, v)
}
