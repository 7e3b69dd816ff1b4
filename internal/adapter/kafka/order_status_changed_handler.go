package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/aq2208/gorder-storefront/internal/usecase"
)

// OrderStatusChangedHandler applies kitchen status updates. Stale, repeated
// or unknown events are dropped so they do not block the partition.
type OrderStatusChangedHandler struct {
	Advance *usecase.AdvanceStatus
	Log     *slog.Logger
}

func NewOrderStatusChangedHandler(advance *usecase.AdvanceStatus) *OrderStatusChangedHandler {
	return &OrderStatusChangedHandler{Advance: advance, Log: logging.New("kafka-order-status")}
}

func (h *OrderStatusChangedHandler) Handle(ctx context.Context, ev usecase.OrderStatusChangedMsg) error {
	err := h.Advance.Execute(ctx, ev.OrderID, ev.Status)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrUnknownStatus),
		errors.Is(err, usecase.ErrOrderNotFound),
		errors.Is(err, usecase.ErrStaleTransition):
		h.Log.Warn("order_status_ignored", "order_id", ev.OrderID, "status", ev.Status, "error", err)
		return nil
	default:
		return err
	}
}
