// Package wallet is the boundary to the shelf contract: read-only views,
// state-changing calls, transaction-result lookups and the signed-in session.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Contract method names.
const (
	MethodListShelf = "list_shelf"
	MethodAddRating = "add_rating"
)

var (
	ErrNotSignedIn  = errors.New("wallet: not signed in")
	ErrNoAccount    = errors.New("wallet: no account configured")
	ErrNoTxID       = errors.New("wallet: no transaction id in call response")
	ErrTxFailed     = errors.New("wallet: transaction failed")
	ErrTxPending    = errors.New("wallet: transaction not final")
	ErrUnknownTx    = errors.New("wallet: unknown transaction")
	ErrUnknownView  = errors.New("wallet: unknown view method")
	ErrWrongAddress = errors.New("wallet: unknown contract")
)

// ViewRequest is a read-only contract call.
type ViewRequest struct {
	ContractID string
	Method     string
	Args       map[string]any
}

// CallRequest is a state-changing contract call.
type CallRequest struct {
	ContractID string
	Method     string
	Args       map[string]any
	Gas        string
	Deposit    string
}

// Wallet is everything the rating client needs from the chain.
type Wallet interface {
	// ViewMethod returns the raw bytes the contract method produced.
	ViewMethod(ctx context.Context, req ViewRequest) ([]byte, error)
	// CallMethod submits a change call and returns the execution outcome,
	// from which TxID extracts the transaction hash.
	CallMethod(ctx context.Context, req CallRequest) (json.RawMessage, error)
	// GetTransactionResult resolves to the decoded return value of a
	// previously submitted transaction.
	GetTransactionResult(ctx context.Context, txID string) (json.RawMessage, error)

	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	// StartUp restores a saved session and reports whether one exists.
	StartUp(ctx context.Context) (bool, error)
	SignedIn() bool
	AccountID() string
}

// TxID extracts the transaction hash from a CallMethod response. It accepts a
// full execution outcome, a bare transaction object, or a JSON string.
func TxID(outcome json.RawMessage) (string, error) {
	if len(outcome) == 0 {
		return "", ErrNoTxID
	}

	var s string
	if err := json.Unmarshal(outcome, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
		return "", ErrNoTxID
	}

	var o struct {
		Transaction *struct {
			Hash string `json:"hash"`
		} `json:"transaction"`
		TransactionOutcome *struct {
			ID string `json:"id"`
		} `json:"transaction_outcome"`
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(outcome, &o); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoTxID, err)
	}

	switch {
	case o.Transaction != nil && o.Transaction.Hash != "":
		return o.Transaction.Hash, nil
	case o.TransactionOutcome != nil && o.TransactionOutcome.ID != "":
		return o.TransactionOutcome.ID, nil
	case o.Hash != "":
		return o.Hash, nil
	}
	return "", ErrNoTxID
}
