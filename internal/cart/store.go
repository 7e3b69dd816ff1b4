package cart

import (
	"sync"

	domain "github.com/aq2208/gorder-storefront/internal/entity"
)

// Store holds one session's cart. All operations are total; unknown product
// ids are ignored. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	lines []domain.CartLine
}

func NewStore() *Store { return &Store{} }

func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.lines = Reduce(s.lines, a)
	s.mu.Unlock()
}

func (s *Store) AddItem(p domain.Product) { s.Dispatch(Add{Product: p}) }

func (s *Store) RemoveItem(productID string) { s.Dispatch(Remove{ProductID: productID}) }

func (s *Store) UpdateQuantity(productID string, quantity int) {
	s.Dispatch(SetQuantity{ProductID: productID, Quantity: quantity})
}

func (s *Store) UpdateSpecialInstructions(productID, instructions string) {
	s.Dispatch(SetInstructions{ProductID: productID, Instructions: instructions})
}

func (s *Store) Clear() { s.Dispatch(Clear{}) }

func (s *Store) ItemQuantity(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.lines, productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) TotalPrice() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return total(s.lines)
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Snapshot returns the lines and their total read under one lock.
func (s *Store) Snapshot() ([]domain.CartLine, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out, total(s.lines)
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines) == 0
}

func total(lines []domain.CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}
