package queue

import (
	"context"
	"errors"
	"log/slog"

	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/aq2208/gorder-storefront/internal/usecase"
)

// KitchenHandler receives completed orders: it prints a kitchen ticket and
// moves the order from pending to confirmed.
type KitchenHandler struct {
	Repo  usecase.OrderRepo
	Cache usecase.OrderCache // optional
	Log   *slog.Logger
}

func NewKitchenHandler(repo usecase.OrderRepo, cache usecase.OrderCache) *KitchenHandler {
	return &KitchenHandler{Repo: repo, Cache: cache, Log: logging.New("kitchen")}
}

func ValidateCompleted(msg usecase.OrderCompletedMsg) error {
	if msg.OrderID == "" {
		return errors.New("orderId required")
	}
	return nil
}

// HandleCompleted is intended to be used with queue.JSONHandler[usecase.OrderCompletedMsg].
func (h *KitchenHandler) HandleCompleted(ctx context.Context, msg usecase.OrderCompletedMsg) error {
	h.Log.Info("kitchen_ticket",
		"order_id", msg.OrderID,
		"order_type", msg.OrderType,
		"customer", msg.CustomerName,
		"items", msg.Items,
		"total", domain.FormatPrice(msg.Total),
		"eta", msg.EstimatedTime,
	)

	ok, err := h.Repo.UpdateStatusIf(ctx, msg.OrderID, string(domain.StatusPending), string(domain.StatusConfirmed))
	if err != nil {
		return err
	}
	// redelivery after a successful confirm is a no-op
	if ok && h.Cache != nil {
		_ = h.Cache.SetStatus(ctx, msg.OrderID, string(domain.StatusConfirmed))
	}
	return nil
}
