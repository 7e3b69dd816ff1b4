package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"go.opentelemetry.io/otel/attribute"
)

// PlaceOrder is the storefront's order backend: Submit persists an order
// built by checkout, Complete announces it once the customer has seen the
// confirmation.
type PlaceOrder struct {
	repo  OrderRepo
	cache OrderCache     // optional
	pub   OrderPublisher // optional
	log   *slog.Logger
}

func NewPlaceOrder(repo OrderRepo, cache OrderCache, pub OrderPublisher) *PlaceOrder {
	return &PlaceOrder{repo: repo, cache: cache, pub: pub, log: logging.New("place-order")}
}

func (uc *PlaceOrder) WithLogger(l *slog.Logger) *PlaceOrder {
	uc.log = l
	return uc
}

// Submit implements checkout.Submitter. A repository failure rejects the
// submission.
func (uc *PlaceOrder) Submit(ctx context.Context, o domain.Order) (err error) {
	ctx, span := startSpan(ctx, "order.submit",
		attribute.String("order.id", o.ID),
		attribute.String("order.type", string(o.Type)),
		attribute.Int64("order.total", o.Total),
	)
	defer func() { endSpan(span, err) }()

	rec, err := ToRecord(o)
	if err != nil {
		return err
	}
	if err = uc.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("persist order: %w", err)
	}

	// Cache best-effort
	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, o.ID, string(o.Status)); err != nil {
			uc.log.Warn("order_status_cache_failed", "order_id", o.ID, "error", err)
		}
	}
	uc.log.Info("order_placed", "order_id", o.ID, "order_type", o.Type, "total", o.Total)
	return nil
}

// Complete is the checkout completion callback.
func (uc *PlaceOrder) Complete(ctx context.Context, o domain.Order) {
	if uc.pub == nil {
		return
	}
	items := 0
	for _, l := range o.Items {
		items += l.Quantity
	}
	msg := OrderCompletedMsg{
		OrderID:       o.ID,
		OrderType:     string(o.Type),
		CustomerName:  o.Customer.Name,
		Items:         items,
		Total:         o.Total,
		EstimatedTime: o.EstimatedTime,
		CreatedAt:     o.CreatedAt,
	}
	if err := uc.pub.PublishCompleted(ctx, msg); err != nil {
		uc.log.Error("order_publish_failed", "order_id", o.ID, "error", err)
	}
}

// GetOrder reads a stored order, preferring the cached status.
func (uc *PlaceOrder) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	rec, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := FromRecord(rec)
	if err != nil {
		return domain.Order{}, err
	}
	if uc.cache != nil {
		if st, err := uc.cache.GetStatus(ctx, id); err == nil && domain.Status(st).Valid() {
			o.Status = domain.Status(st)
		}
	}
	return o, nil
}

func ToRecord(o domain.Order) (*OrderRecord, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return nil, fmt.Errorf("marshal customer: %w", err)
	}
	return &OrderRecord{
		ID:            o.ID,
		Status:        string(o.Status),
		OrderType:     string(o.Type),
		EstimatedTime: o.EstimatedTime,
		CustomerJSON:  string(customer),
		ItemsJSON:     string(items),
		Total:         o.Total,
		CreatedAt:     o.CreatedAt.UTC().Truncate(time.Millisecond),
	}, nil
}

func FromRecord(rec *OrderRecord) (domain.Order, error) {
	o := domain.Order{
		ID:            rec.ID,
		Type:          domain.OrderType(rec.OrderType),
		Total:         rec.Total,
		Status:        domain.Status(rec.Status),
		CreatedAt:     rec.CreatedAt,
		EstimatedTime: rec.EstimatedTime,
	}
	if err := json.Unmarshal([]byte(rec.ItemsJSON), &o.Items); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal([]byte(rec.CustomerJSON), &o.Customer); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal customer: %w", err)
	}
	return o, nil
}
