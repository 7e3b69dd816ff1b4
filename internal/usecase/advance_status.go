package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUnknownStatus   = errors.New("unknown order status")
	ErrStaleTransition = errors.New("order status can only move forward")
	ErrConcurrentWrite = errors.New("order changed concurrently")
)

// AdvanceStatus moves a stored order forward through the kitchen statuses.
type AdvanceStatus struct {
	repo  OrderRepo
	cache OrderCache // optional
	log   *slog.Logger
}

func NewAdvanceStatus(repo OrderRepo, cache OrderCache) *AdvanceStatus {
	return &AdvanceStatus{repo: repo, cache: cache, log: logging.New("order-status")}
}

func (uc *AdvanceStatus) WithLogger(l *slog.Logger) *AdvanceStatus {
	uc.log = l
	return uc
}

func (uc *AdvanceStatus) Execute(ctx context.Context, orderID string, status string) (err error) {
	ctx, span := startSpan(ctx, "order.advance_status",
		attribute.String("order.id", orderID),
		attribute.String("order.status", status),
	)
	defer func() { endSpan(span, err) }()

	next := domain.Status(status)
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	rec, err := uc.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	current := domain.Status(rec.Status)
	if !current.CanAdvanceTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrStaleTransition, current, next)
	}

	ok, err := uc.repo.UpdateStatusIf(ctx, orderID, string(current), string(next))
	if err != nil {
		return err
	}
	if !ok {
		return ErrConcurrentWrite
	}

	// Cache best-effort
	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, orderID, string(next)); err != nil {
			uc.log.Warn("order_status_cache_failed", "order_id", orderID, "error", err)
		}
	}
	uc.log.Info("order_status_changed", "order_id", orderID, "from", current, "to", next)
	return nil
}
