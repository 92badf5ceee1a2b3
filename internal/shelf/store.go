// Package shelf holds the client's copy of the book list and refreshes it
// from the contract.
package shelf

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/sprite-ai/bookrate/internal/metrics"
	"github.com/sprite-ai/bookrate/internal/model"
	"github.com/sprite-ai/bookrate/internal/wallet"
)

// Viewer is the read side of the wallet.
type Viewer interface {
	ViewMethod(ctx context.Context, req wallet.ViewRequest) ([]byte, error)
}

// Store is the Book List Store. The published list is replaced wholesale on
// every successful refresh.
type Store struct {
	viewer     Viewer
	contractID string
	log        *zap.Logger
	metrics    *metrics.Recorder

	mu    sync.RWMutex
	books []model.Book
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records refresh outcomes.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates an empty Store reading from contractID.
func New(v Viewer, contractID string, opts ...Option) *Store {
	s := &Store{
		viewer:     v,
		contractID: contractID,
		log:        zap.NewNop(),
		books:      []model.Book{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches list_shelf and publishes the decoded books. On error the
// previous list stays published. There is no retry.
func (s *Store) Refresh(ctx context.Context) ([]model.Book, error) {
	payload, err := s.viewer.ViewMethod(ctx, wallet.ViewRequest{
		ContractID: s.contractID,
		Method:     wallet.MethodListShelf,
	})
	if err != nil {
		s.metrics.Refresh(metrics.OutcomeError, 0)
		return nil, fmt.Errorf("fetching shelf: %w", err)
	}

	books, err := Decode(payload)
	if err != nil {
		s.metrics.Refresh(metrics.OutcomeError, 0)
		return nil, err
	}

	s.mu.Lock()
	s.books = books
	s.mu.Unlock()

	s.metrics.Refresh(metrics.OutcomeSuccess, len(books))
	s.log.Debug("shelf refreshed", zap.Int("books", len(books)))
	return clone(books), nil
}

// Books returns a copy of the last successfully fetched list.
func (s *Store) Books() []model.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.books)
}

// Len is the number of published books.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Book looks a book up by its 1-based id.
func (s *Store) Book(id int) (model.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 1 || id > len(s.books) {
		return model.Book{}, false
	}
	return s.books[id-1], true
}

// ContractID is the contract the store reads from.
func (s *Store) ContractID() string { return s.contractID }

func clone(books []model.Book) []model.Book {
	out := slices.Clone(books)
	if out == nil {
		out = []model.Book{}
	}
	return out
}
