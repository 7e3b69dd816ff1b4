package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/aq2208/gorder-storefront/internal/usecase"
)

// MemoryOrderRepo backs the storefront when no MySQL DSN is configured.
type MemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]usecase.OrderRecord
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{orders: map[string]usecase.OrderRecord{}}
}

func (r *MemoryOrderRepo) Create(_ context.Context, o *usecase.OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *MemoryOrderRepo) GetByID(_ context.Context, id string) (*usecase.OrderRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.orders[id]
	if !ok {
		return nil, usecase.ErrOrderNotFound
	}
	return &rec, nil
}

func (r *MemoryOrderRepo) UpdateStatusIf(_ context.Context, id string, fromStatus, toStatus string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.orders[id]
	if !ok || rec.Status != fromStatus {
		return false, nil
	}
	rec.Status = toStatus
	r.orders[id] = rec
	return true, nil
}

func (r *MemoryOrderRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

var _ usecase.OrderRepo = (*MemoryOrderRepo)(nil)
