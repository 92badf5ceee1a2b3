// Package rating runs a rating submission: the add_rating call, the wait for
// its transaction result, and the shelf refresh that always follows.
package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sprite-ai/bookrate/internal/metrics"
	"github.com/sprite-ai/bookrate/internal/model"
	"github.com/sprite-ai/bookrate/internal/wallet"
)

var (
	ErrNotSignedIn        = errors.New("rating: sign in to rate books")
	ErrSubmissionInFlight = errors.New("rating: a submission is already in progress")
)

// Caller is the write side of the wallet.
type Caller interface {
	CallMethod(ctx context.Context, req wallet.CallRequest) (json.RawMessage, error)
	GetTransactionResult(ctx context.Context, txID string) (json.RawMessage, error)
	SignedIn() bool
}

// Refresher reloads the book list.
type Refresher interface {
	Refresh(ctx context.Context) ([]model.Book, error)
}

// Observer is told about every state transition, in order.
type Observer func(from, to State)

// Outcome is everything one submission produced.
type Outcome struct {
	// Result is the submission result shown to the user.
	Result model.Result
	// Books is the refreshed list; nil when the refresh failed.
	Books []model.Book
	// RefreshErr is the refresh failure, if any.
	RefreshErr error
}

// RefreshResult is the user-facing result for a failed refresh.
func (o Outcome) RefreshResult() (model.Result, bool) {
	if o.RefreshErr == nil {
		return model.Result{}, false
	}
	return model.Failure(model.RefreshFailedMessage), true
}

// Flow runs submissions one at a time.
type Flow struct {
	caller     Caller
	shelf      Refresher
	contractID string
	log        *zap.Logger
	metrics    *metrics.Recorder
	observers  []Observer

	mu    sync.Mutex
	state State
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the logger that receives submission failures.
func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.log = l
		}
	}
}

// WithMetrics records submission outcomes.
func WithMetrics(m *metrics.Recorder) Option {
	return func(f *Flow) { f.metrics = m }
}

// WithObserver adds a transition observer.
func WithObserver(o Observer) Option {
	return func(f *Flow) {
		if o != nil {
			f.observers = append(f.observers, o)
		}
	}
}

// New creates a Flow that writes through caller and refreshes shelf.
func New(caller Caller, shelf Refresher, contractID string, opts ...Option) *Flow {
	f := &Flow{
		caller:     caller,
		shelf:      shelf,
		contractID: contractID,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State is the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Loading is true from the start of a submission until its refresh settles.
func (f *Flow) Loading() bool {
	return f.State() != Idle
}

// Submit rates book id. rating is coerced to an integer; its range is left
// to the contract. A failed submission still refreshes the shelf. The
// returned error is only set when nothing was attempted.
func (f *Flow) Submit(ctx context.Context, id int, rating string) (Outcome, error) {
	if !f.caller.SignedIn() {
		return Outcome{}, ErrNotSignedIn
	}
	if err := f.advance(Idle); err != nil {
		f.metrics.Submission(metrics.OutcomeBusy, 0)
		return Outcome{}, err
	}
	f.metrics.SetInFlight(true)
	defer f.metrics.SetInFlight(false)
	settled := false
	defer func() {
		if !settled {
			f.reset()
		}
	}()

	start := time.Now()
	var out Outcome
	payload, err := f.send(ctx, id, rating)
	if err != nil {
		f.log.Error("rating submission failed",
			zap.Int("book_id", id),
			zap.String("rating", rating),
			zap.Error(err),
		)
		out.Result = model.Failure(model.SubmissionFailedMessage)
		f.metrics.Submission(metrics.OutcomeError, time.Since(start))
	} else {
		f.log.Info("rating confirmed", zap.Int("book_id", id), zap.ByteString("result", payload))
		out.Result = model.Success(payload)
		f.metrics.Submission(metrics.OutcomeSuccess, time.Since(start))
	}

	_ = f.advance(Submitting)

	books, err := f.shelf.Refresh(ctx)
	if err != nil {
		f.log.Error("shelf refresh after submission failed", zap.Error(err))
		out.RefreshErr = err
	} else {
		out.Books = books
	}

	_ = f.advance(Refreshing)
	settled = true
	return out, nil
}

// reset returns the machine to Idle after a submission that unwound early,
// such as a panic in the wallet or the shelf.
func (f *Flow) reset() {
	f.mu.Lock()
	from := f.state
	f.state = Idle
	observers := f.observers
	f.mu.Unlock()

	if from == Idle {
		return
	}
	f.log.Warn("submission aborted", zap.Stringer("state", from))
	for _, o := range observers {
		o(from, Idle)
	}
}

func (f *Flow) send(ctx context.Context, id int, rating string) (json.RawMessage, error) {
	n, err := model.ParseRating(rating)
	if err != nil {
		return nil, err
	}

	resp, err := f.caller.CallMethod(ctx, wallet.CallRequest{
		ContractID: f.contractID,
		Method:     wallet.MethodAddRating,
		Args:       map[string]any{"id": id, "rating": n},
	})
	if err != nil {
		return nil, fmt.Errorf("add_rating call: %w", err)
	}

	txID, err := wallet.TxID(resp)
	if err != nil {
		return nil, err
	}

	result, err := f.caller.GetTransactionResult(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("awaiting transaction %s: %w", txID, err)
	}
	return result, nil
}

// advance moves the machine out of from. It fails when the machine is not in
// from, which only happens when another submission holds it.
func (f *Flow) advance(from State) error {
	f.mu.Lock()
	if f.state != from {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	to, _ := from.next()
	f.state = to
	observers := f.observers
	f.mu.Unlock()

	for _, o := range observers {
		o(from, to)
	}
	return nil
}
