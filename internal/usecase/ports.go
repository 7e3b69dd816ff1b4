package usecase

import (
	"context"
	"errors"
	"time"
)

// ErrOrderNotFound is returned by OrderRepo when no order has the given id.
var ErrOrderNotFound = errors.New("order not found")

// Persistence shape (kept out of domain).
type OrderRecord struct {
	ID, Status, OrderType, EstimatedTime string
	CustomerJSON, ItemsJSON              string
	Total                                int64
	CreatedAt                            time.Time
}

type OrderRepo interface {
	Create(ctx context.Context, o *OrderRecord) error
	GetByID(ctx context.Context, id string) (*OrderRecord, error)
	UpdateStatusIf(ctx context.Context, id string, fromStatus, toStatus string) (bool, error)
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
	Forget(ctx context.Context, scope, key string) error
}

type OrderPublisher interface {
	PublishCompleted(ctx context.Context, msg OrderCompletedMsg) error
}
