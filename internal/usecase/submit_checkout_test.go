package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memIdem struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]bool{}, values: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	if m.locks[k] {
		return false, nil
	}
	m.locks[k] = true
	return true, nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[scope+":"+key]
	return v, ok, nil
}

func (m *memIdem) Forget(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scope+":"+key)
	delete(m.values, scope+":"+key)
	return nil
}

type countingTarget struct {
	calls      int
	err        error
	onRejected func(error)
}

func (c *countingTarget) SubmitWatched(onRejected func(error)) error {
	c.calls++
	c.onRejected = onRejected
	return c.err
}

func TestSubmitCheckout_NoKeyAlwaysSubmits(t *testing.T) {
	uc := NewSubmitCheckout(newMemIdem())
	target := &countingTarget{}
	require.NoError(t, uc.Execute(context.Background(), SubmitCheckoutInput{Scope: "s1", Target: target}))
	require.NoError(t, uc.Execute(context.Background(), SubmitCheckoutInput{Scope: "s1", Target: target}))
	assert.Equal(t, 2, target.calls)
}

func TestSubmitCheckout_DuplicateKeyRejected(t *testing.T) {
	uc := NewSubmitCheckout(newMemIdem())
	target := &countingTarget{}
	in := SubmitCheckoutInput{Scope: "s1", IdempotencyKey: "k1", Target: target}

	require.NoError(t, uc.Execute(context.Background(), in))
	assert.ErrorIs(t, uc.Execute(context.Background(), in), ErrDuplicate)
	assert.Equal(t, 1, target.calls)

	// other scopes are independent
	in.Scope = "s2"
	require.NoError(t, uc.Execute(context.Background(), in))
	assert.Equal(t, 2, target.calls)
}

func TestSubmitCheckout_RefusedSubmitReleasesKey(t *testing.T) {
	uc := NewSubmitCheckout(newMemIdem())
	refused := errors.New("form incomplete")
	target := &countingTarget{err: refused}
	in := SubmitCheckoutInput{Scope: "s1", IdempotencyKey: "k1", Target: target}

	assert.ErrorIs(t, uc.Execute(context.Background(), in), refused)
	target.err = nil
	require.NoError(t, uc.Execute(context.Background(), in))
	assert.Equal(t, 2, target.calls)
}

func TestSubmitCheckout_NilStore(t *testing.T) {
	uc := NewSubmitCheckout(nil)
	target := &countingTarget{}
	require.NoError(t, uc.Execute(context.Background(), SubmitCheckoutInput{IdempotencyKey: "k", Target: target}))
	assert.Equal(t, 1, target.calls)
}

func TestSubmitCheckout_BackendRejectionReleasesKey(t *testing.T) {
	idem := newMemIdem()
	uc := NewSubmitCheckout(idem)
	target := &countingTarget{}
	in := SubmitCheckoutInput{Scope: "s1", IdempotencyKey: "k1", Target: target}

	require.NoError(t, uc.Execute(context.Background(), in))
	assert.ErrorIs(t, uc.Execute(context.Background(), in), ErrDuplicate)

	// the order backend turns the accepted submission down later on
	require.NotNil(t, target.onRejected)
	target.onRejected(errors.New("backend unreachable"))

	require.NoError(t, uc.Execute(context.Background(), in))
	assert.Equal(t, 2, target.calls)
}
