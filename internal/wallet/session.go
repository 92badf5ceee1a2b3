package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Session tracks the signed-in account. With a path it persists across runs;
// without one it lives only in memory.
type Session struct {
	path       string
	configured string

	mu      sync.RWMutex
	account string
}

type sessionFile struct {
	AccountID  string    `json:"account_id"`
	SignedInAt time.Time `json:"signed_in_at"`
}

// NewSession creates a session for the configured account. path may be empty.
func NewSession(path, accountID string) *Session {
	return &Session{path: path, configured: accountID}
}

// StartUp loads a saved session, if any.
func (s *Session) StartUp(_ context.Context) (bool, error) {
	if s.path == "" {
		return s.SignedIn(), nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading session: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return false, fmt.Errorf("parsing session %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.account = f.AccountID
	s.mu.Unlock()
	return f.AccountID != "", nil
}

// SignIn signs in as the configured account and saves the session.
func (s *Session) SignIn(_ context.Context) error {
	if s.configured == "" {
		return ErrNoAccount
	}

	if s.path != "" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return fmt.Errorf("creating session dir: %w", err)
		}
		data, err := json.MarshalIndent(sessionFile{AccountID: s.configured, SignedInAt: time.Now().UTC()}, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(s.path, data, 0o600); err != nil {
			return fmt.Errorf("writing session: %w", err)
		}
	}

	s.mu.Lock()
	s.account = s.configured
	s.mu.Unlock()
	return nil
}

// SignOut forgets the account and removes the saved session.
func (s *Session) SignOut(_ context.Context) error {
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing session: %w", err)
		}
	}
	s.mu.Lock()
	s.account = ""
	s.mu.Unlock()
	return nil
}

// SignedIn reports whether an account is signed in.
func (s *Session) SignedIn() bool {
	return s.AccountID() != ""
}

// AccountID is the signed-in account, or "".
func (s *Session) AccountID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}
