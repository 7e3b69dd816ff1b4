package session

import (
	"errors"
	"sync"
	"time"

	"github.com/aq2208/gorder-storefront/internal/cart"
	"github.com/aq2208/gorder-storefront/internal/checkout"
	domain "github.com/aq2208/gorder-storefront/internal/entity"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrCheckoutBusy = errors.New("checkout in progress")
	ErrNoCheckout   = errors.New("no checkout open")
)

// FlowFactory builds the checkout flow for a session's cart.
type FlowFactory func(s *Session) *checkout.Flow

// Session is one visitor: a cart and, while checking out, a flow over it.
// Cart mutations and submits are serialised on mu so a submit never races a
// cart change.
type Session struct {
	ID        string
	CreatedAt time.Time

	cart    *cart.Store
	newFlow FlowFactory

	mu       sync.Mutex
	flow     *checkout.Flow
	lastSeen time.Time
}

func (s *Session) Cart() *cart.Store { return s.cart }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) busyLocked() bool {
	return s.flow != nil && s.flow.Busy()
}

// Busy reports whether the session's checkout is submitting or confirming.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busyLocked()
}

func (s *Session) mutate(a cart.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busyLocked() {
		return ErrCheckoutBusy
	}
	s.cart.Dispatch(a)
	return nil
}

func (s *Session) AddItem(p domain.Product) error {
	return s.mutate(cart.Add{Product: p})
}

func (s *Session) RemoveItem(productID string) error {
	return s.mutate(cart.Remove{ProductID: productID})
}

func (s *Session) UpdateQuantity(productID string, quantity int) error {
	return s.mutate(cart.SetQuantity{ProductID: productID, Quantity: quantity})
}

func (s *Session) UpdateSpecialInstructions(productID, instructions string) error {
	return s.mutate(cart.SetInstructions{ProductID: productID, Instructions: instructions})
}

func (s *Session) ClearCart() error {
	return s.mutate(cart.Clear{})
}

// OpenCheckout returns the live flow, starting a fresh one when there is
// none or the previous one has finished.
func (s *Session) OpenCheckout() *checkout.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil || s.flow.Finished() {
		if s.flow != nil {
			s.flow.Close()
		}
		s.flow = s.newFlow(s)
	}
	return s.flow
}

// Checkout returns the current flow without opening one.
func (s *Session) Checkout() (*checkout.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return nil, ErrNoCheckout
	}
	return s.flow, nil
}

// Submit starts the current flow's submission under the session lock.
func (s *Session) Submit() error { return s.SubmitWatched(nil) }

// SubmitWatched is Submit with a hook for a later backend rejection; see
// checkout.Flow.SubmitWatched.
func (s *Session) SubmitWatched(onRejected func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return ErrNoCheckout
	}
	return s.flow.SubmitWatched(onRejected)
}

// CloseCheckout discards the checkout when it is idle. While a submission
// is pending it refuses with ErrCheckoutBusy and the sequence carries on.
func (s *Session) CloseCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return nil
	}
	if !s.flow.Cancel() {
		return ErrCheckoutBusy
	}
	s.flow.Close()
	s.flow = nil
	return nil
}

// shutdown stops any pending checkout timers.
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow != nil {
		s.flow.Close()
		s.flow = nil
	}
}
