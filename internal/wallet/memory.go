package wallet

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/sprite-ai/bookrate/internal/model"
)

// Memory is an in-process shelf contract. It answers list_shelf and
// add_rating the way the deployed contract does and is used for offline runs
// and tests.
type Memory struct {
	*Session

	contractID string

	mu      sync.Mutex
	shelf   []memoryBook
	results map[string]json.RawMessage
}

type memoryBook struct {
	name      string
	reviewers []model.Reviewer
}

// DemoTitles seeds a Memory shelf when no books are given.
var DemoTitles = []string{
	"Dune",
	"The Left Hand of Darkness",
	"Neuromancer",
	"A Wizard of Earthsea",
}

// NewMemory creates an in-memory contract holding the given titles, in order.
func NewMemory(contractID string, session *Session, titles ...string) *Memory {
	if len(titles) == 0 {
		titles = DemoTitles
	}
	m := &Memory{
		Session:    session,
		contractID: contractID,
		results:    make(map[string]json.RawMessage),
	}
	for _, t := range titles {
		m.shelf = append(m.shelf, memoryBook{name: t})
	}
	return m
}

// Seed records a review directly, bypassing the session. Used to prepare
// fixtures.
func (m *Memory) Seed(id int, reviewer string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.addRatingLocked(id, reviewer, rating)
	return err
}

type shelfEntry struct {
	Name      string      `json:"name"`
	Rating    string      `json:"rating"`
	Reviewers [][2]string `json:"reviewers"`
}

// ViewMethod serves list_shelf. Like the deployed contract, the shelf comes
// back as a JSON string holding a JSON object keyed by book id.
func (m *Memory) ViewMethod(_ context.Context, req ViewRequest) ([]byte, error) {
	if req.ContractID != m.contractID {
		return nil, fmt.Errorf("%w: %s", ErrWrongAddress, req.ContractID)
	}
	if req.Method != MethodListShelf {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, req.Method)
	}

	m.mu.Lock()
	entries := make(map[string]shelfEntry, len(m.shelf))
	for i, b := range m.shelf {
		e := shelfEntry{Name: b.name, Rating: average(b.reviewers), Reviewers: [][2]string{}}
		for _, r := range b.reviewers {
			e.Reviewers = append(e.Reviewers, [2]string{r.Name, strconv.Itoa(r.Rating)})
		}
		entries[strconv.Itoa(i+1)] = e
	}
	m.mu.Unlock()

	inner, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}

// CallMethod serves add_rating for the signed-in account.
func (m *Memory) CallMethod(_ context.Context, req CallRequest) (json.RawMessage, error) {
	account := m.AccountID()
	if account == "" {
		return nil, ErrNotSignedIn
	}
	if req.ContractID != m.contractID {
		return nil, fmt.Errorf("%w: %s", ErrWrongAddress, req.ContractID)
	}
	if req.Method != MethodAddRating {
		return nil, fmt.Errorf("wallet: unknown change method %s", req.Method)
	}

	id, err := argInt(req.Args, "id")
	if err != nil {
		return nil, err
	}
	rating, err := argInt(req.Args, "rating")
	if err != nil {
		return nil, err
	}

	txID := uuid.NewString()
	status := map[string]any{}

	m.mu.Lock()
	value, callErr := m.addRatingLocked(id, account, rating)
	if callErr == nil {
		m.results[txID] = value
		status["SuccessValue"] = base64.StdEncoding.EncodeToString(value)
	} else {
		status["Failure"] = map[string]string{"error_message": callErr.Error()}
	}
	m.mu.Unlock()

	outcome := map[string]any{
		"status":              status,
		"transaction":         map[string]string{"hash": txID, "signer_id": account, "receiver_id": m.contractID},
		"transaction_outcome": map[string]string{"id": txID},
	}
	raw, err := json.Marshal(outcome)
	if err != nil {
		return nil, err
	}
	if callErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrTxFailed, callErr)
	}
	return raw, nil
}

// GetTransactionResult returns the value add_rating produced.
func (m *Memory) GetTransactionResult(_ context.Context, txID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.results[txID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTx, txID)
	}
	return v, nil
}

func (m *Memory) addRatingLocked(id int, account string, rating int) (json.RawMessage, error) {
	if id < 1 || id > len(m.shelf) {
		return nil, fmt.Errorf("no book with id %d", id)
	}
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, fmt.Errorf("rating must be between %d and %d, got %d", model.MinRating, model.MaxRating, rating)
	}

	b := &m.shelf[id-1]
	replaced := false
	for i := range b.reviewers {
		if b.reviewers[i].Name == account {
			b.reviewers[i].Rating = rating
			replaced = true
			break
		}
	}
	if !replaced {
		b.reviewers = append(b.reviewers, model.Reviewer{Name: account, Rating: rating})
	}

	return json.Marshal(map[string]any{
		"id":        id,
		"name":      b.name,
		"rating":    average(b.reviewers),
		"reviewers": len(b.reviewers),
	})
}

func average(reviewers []model.Reviewer) string {
	if len(reviewers) == 0 {
		return "0"
	}
	sum := 0
	for _, r := range reviewers {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviewers))
	return strconv.FormatFloat(math.Round(avg*100)/100, 'f', -1, 64)
}

func argInt(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("argument %q: unexpected type %T", key, v)
}
