package usecase

import (
	"context"
	"errors"
	"time"
)

var ErrDuplicate = errors.New("duplicate idempotency key")

// Submittable starts a checkout submission. onRejected runs if the order
// backend rejects it after Submittable has already accepted it.
type Submittable interface {
	SubmitWatched(onRejected func(error)) error
}

// releaseTimeout bounds the Forget issued from a rejected submission, which
// runs long after the request context is gone.
const releaseTimeout = 2 * time.Second

type SubmitCheckoutInput struct {
	Scope          string // session id
	IdempotencyKey string
	Target         Submittable
}

// SubmitCheckout guards checkout submissions with an idempotency key so a
// retried request cannot place a second order.
type SubmitCheckout struct {
	idem IdempotencyStore
}

func NewSubmitCheckout(idem IdempotencyStore) *SubmitCheckout {
	return &SubmitCheckout{idem: idem}
}

func (uc *SubmitCheckout) Execute(ctx context.Context, in SubmitCheckoutInput) error {
	if in.IdempotencyKey == "" || uc.idem == nil {
		return in.Target.SubmitWatched(nil)
	}
	// Fast path: idempotency recall
	if _, ok, _ := uc.idem.Recall(ctx, in.Scope, in.IdempotencyKey); ok {
		return ErrDuplicate
	}
	// Attempt to lock
	ok, err := uc.idem.TryLock(ctx, in.Scope, in.IdempotencyKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	// remembered before submitting so a fast rejection cannot be overwritten
	_ = uc.idem.Remember(ctx, in.Scope, in.IdempotencyKey, "submitted")

	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = uc.idem.Forget(rctx, in.Scope, in.IdempotencyKey)
	}
	// refused or rejected submits may be retried with the same key
	if err := in.Target.SubmitWatched(func(error) { release() }); err != nil {
		release()
		return err
	}
	return nil
}
