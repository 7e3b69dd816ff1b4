package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/google/uuid"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

const (
	DefaultProcessingDelay = 2 * time.Second
	DefaultCompletionDelay = 3 * time.Second
	DefaultSubmitTimeout   = 5 * time.Second
)

// Cart is the part of the cart store the flow needs.
type Cart interface {
	Snapshot() ([]domain.CartLine, int64)
	Clear()
}

// Submitter hands a built order to a backend. A non-nil error rejects the
// submission and returns the flow to idle with the form intact.
type Submitter interface {
	Submit(ctx context.Context, o domain.Order) error
}

type SubmitterFunc func(ctx context.Context, o domain.Order) error

func (f SubmitterFunc) Submit(ctx context.Context, o domain.Order) error { return f(ctx, o) }

type Option func(*Flow)

func WithDelays(processing, completion time.Duration) Option {
	return func(f *Flow) {
		f.processingDelay = processing
		f.completionDelay = completion
	}
}

func WithSubmitter(s Submitter) Option { return func(f *Flow) { f.submitter = s } }

func WithSubmitTimeout(d time.Duration) Option { return func(f *Flow) { f.submitTimeout = d } }

// OnComplete registers the callback invoked once with the finished order,
// after the cart has been cleared.
func OnComplete(fn func(domain.Order)) Option { return func(f *Flow) { f.onComplete = fn } }

func WithLogger(l *slog.Logger) Option { return func(f *Flow) { f.log = l } }

func WithClock(now func() time.Time) Option { return func(f *Flow) { f.now = now } }

// Flow drives one checkout: idle -> submitting -> completed -> idle.
// Once the completion sequence has run the flow is finished; a new checkout
// needs a new Flow.
type Flow struct {
	cart       Cart
	submitter  Submitter
	onComplete func(domain.Order)
	log        *slog.Logger
	now        func() time.Time

	processingDelay time.Duration
	completionDelay time.Duration
	submitTimeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	form     Form
	state    State
	order    *domain.Order
	err      error
	finished bool
	closed   bool
}

func New(c Cart, opts ...Option) *Flow {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Flow{
		cart:            c,
		now:             time.Now,
		processingDelay: DefaultProcessingDelay,
		completionDelay: DefaultCompletionDelay,
		submitTimeout:   DefaultSubmitTimeout,
		ctx:             ctx,
		cancel:          cancel,
		form:            newForm(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logging.New("checkout")
	}
	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether a submission or its completion sequence is pending.
func (f *Flow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state != StateIdle
}

func (f *Flow) Finished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finished || f.closed
}

func (f *Flow) Form() Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

func (f *Flow) IsFormValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form.Valid()
}

// CanSubmit mirrors the enabled state of the submit button.
func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editable() == nil && f.form.Valid()
}

// Order returns the order built by the last successful submission.
func (f *Flow) Order() (domain.Order, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order == nil {
		return domain.Order{}, false
	}
	return *f.order, true
}

// Err returns why the last submission was rejected, if it was.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Flow) SetOrderType(t domain.OrderType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return err
	}
	f.form.Type = t
	return nil
}

func (f *Flow) UpdateCustomer(info domain.CustomerInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return err
	}
	f.form.Customer = info
	return nil
}

// Submit validates the form, snapshots the cart and starts the simulated
// processing. It returns immediately; refusals leave the flow unchanged.
func (f *Flow) Submit() error { return f.SubmitWatched(nil) }

// SubmitWatched is Submit plus onRejected, called with the wrapped error if
// the submitter later rejects this submission. It is not called for
// synchronous refusals.
func (f *Flow) SubmitWatched(onRejected func(error)) error {
	f.mu.Lock()
	if err := f.editable(); err != nil {
		f.mu.Unlock()
		return err
	}
	if !f.form.Valid() {
		f.mu.Unlock()
		return ErrInvalidForm
	}
	lines, total := f.cart.Snapshot()
	if len(lines) == 0 {
		f.mu.Unlock()
		return ErrEmptyCart
	}
	form := f.form
	f.state = StateSubmitting
	f.err = nil
	f.mu.Unlock()

	f.log.Info("checkout_submitting", "order_type", form.Type, "lines", len(lines), "total", total)
	go f.run(form, lines, total, onRejected)
	return nil
}

// Cancel discards the entered data. Only allowed while idle; during a
// submission or its confirmation it does nothing and returns false.
func (f *Flow) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return false
	}
	f.form = newForm()
	f.err = nil
	return true
}

// Close stops any pending timer. A closed flow never clears the cart or
// fires its callback.
func (f *Flow) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.cancel()
}

func (f *Flow) editable() error {
	switch {
	case f.closed:
		return ErrClosed
	case f.finished:
		return ErrFinished
	case f.state != StateIdle:
		return ErrBusy
	}
	return nil
}

func (f *Flow) run(form Form, lines []domain.CartLine, total int64, onRejected func(error)) {
	if !f.sleep(f.processingDelay) {
		f.log.Info("checkout_abandoned", "stage", StateSubmitting.String())
		return
	}

	createdAt := f.now()
	order := domain.Order{
		ID:            newOrderID(createdAt),
		Items:         lines,
		Customer:      form.Customer,
		Type:          form.Type,
		Total:         total,
		Status:        domain.StatusPending,
		CreatedAt:     createdAt,
		EstimatedTime: domain.EstimatedTime(form.Type),
	}

	if f.submitter != nil {
		ctx, cancel := context.WithTimeout(f.ctx, f.submitTimeout)
		err := f.submitter.Submit(ctx, order)
		cancel()
		if err != nil {
			rejected := fmt.Errorf("%w: %w", ErrSubmissionRejected, err)
			f.log.Error("checkout_rejected", "order_id", order.ID, "error", err)
			// runs before the flow is idle again so a retry sees its effects
			if onRejected != nil {
				onRejected(rejected)
			}
			f.mu.Lock()
			f.state = StateIdle
			f.err = rejected
			f.mu.Unlock()
			return
		}
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.state = StateCompleted
	f.order = &order
	f.mu.Unlock()
	f.log.Info("checkout_completed", "order_id", order.ID, "total", order.Total)

	if !f.sleep(f.completionDelay) {
		f.log.Info("checkout_abandoned", "stage", StateCompleted.String(), "order_id", order.ID)
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.cart.Clear()
	f.mu.Unlock()

	if f.onComplete != nil {
		f.onComplete(order)
	}

	f.mu.Lock()
	f.state = StateIdle
	f.finished = true
	f.mu.Unlock()
}

func (f *Flow) sleep(d time.Duration) bool {
	if d <= 0 {
		return f.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-f.ctx.Done():
		return false
	}
}

// newOrderID is the creation time in millis plus a random suffix so two
// orders created in the same millisecond still differ.
func newOrderID(t time.Time) string {
	return "ORD-" + strconv.FormatInt(t.UnixMilli(), 10) + "-" + uuid.NewString()[:8]
}
