// Package model defines the core data types shared across bookrate.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Fixed user-facing messages. The cause of a failure is only ever logged.
const (
	SubmissionFailedMessage = "Something went wrong. Check browser console."
	RefreshFailedMessage    = "Could not load the shelf. Check the log."
)

// Pending rating bounds for a book row.
const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 3
)

// ResultKind tags a submission result.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind by name.
func (k ResultKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Result is the outcome of one submission attempt. It replaces any earlier
// result and is never persisted.
type Result struct {
	Kind    ResultKind      `json:"type"`
	Message json.RawMessage `json:"message"`
}

// Success wraps a confirmation payload.
func Success(payload json.RawMessage) Result {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return Result{Kind: ResultSuccess, Message: payload}
}

// Failure builds an error result carrying a fixed message.
func Failure(msg string) Result {
	raw, _ := json.Marshal(msg)
	return Result{Kind: ResultError, Message: raw}
}

// IsError reports whether the result is an error.
func (r Result) IsError() bool { return r.Kind == ResultError }

// Text returns the message as it is shown to the user: the JSON encoding of
// the payload.
func (r Result) Text() string {
	if len(r.Message) == 0 {
		return "null"
	}
	return string(r.Message)
}

// Reviewer is a (name, rating) pair recorded against a book.
type Reviewer struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// UnmarshalJSON accepts ["Alice","5"], ["Alice",5] or {"name":..,"rating":..}.
func (r *Reviewer) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("reviewer entry: want 2 elements, got %d", len(pair))
		}
		if err := json.Unmarshal(pair[0], &r.Name); err != nil {
			return fmt.Errorf("reviewer name: %w", err)
		}
		n, err := flexInt(pair[1])
		if err != nil {
			return fmt.Errorf("reviewer rating: %w", err)
		}
		r.Rating = n
		return nil
	}

	var obj struct {
		Name   string          `json:"name"`
		Rating json.RawMessage `json:"rating"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("reviewer entry: %w", err)
	}
	r.Name = obj.Name
	if len(obj.Rating) > 0 {
		n, err := flexInt(obj.Rating)
		if err != nil {
			return fmt.Errorf("reviewer rating: %w", err)
		}
		r.Rating = n
	}
	return nil
}

// Book is one record of the shelf. ID is its 1-based position in the list.
type Book struct {
	ID            int        `json:"id"`
	Title         string     `json:"name"`
	AverageRating string     `json:"rating"`
	Reviewers     []Reviewer `json:"reviewers"`
}

// UnmarshalJSON accepts the contract's record shape, where rating may be a
// number or a numeric string.
func (b *Book) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        int             `json:"id"`
		Name      string          `json:"name"`
		Title     string          `json:"title"`
		Rating    json.RawMessage `json:"rating"`
		Reviewers []Reviewer      `json:"reviewers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.ID = raw.ID
	b.Title = raw.Name
	if b.Title == "" {
		b.Title = raw.Title
	}
	b.AverageRating = flexString(raw.Rating)
	b.Reviewers = raw.Reviewers
	return nil
}

// HasReviews reports whether anyone has rated the book.
func (b Book) HasReviews() bool { return len(b.Reviewers) > 0 }

// ClampRating keeps a pending rating inside [MinRating, MaxRating].
func ClampRating(n int) int {
	if n < MinRating {
		return MinRating
	}
	if n > MaxRating {
		return MaxRating
	}
	return n
}

// ParseRating converts a rating the way the contract front-end does: leading
// whitespace is skipped and the longest integer prefix is used, so "3.9"
// becomes 3. The range is not checked.
func ParseRating(s string) (int, error) {
	t := strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(t) && (t[end] == '+' || t[end] == '-') {
		end++
	}
	digits := end
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("rating %q is not a number", s)
	}
	return strconv.Atoi(t[:end])
}

func flexInt(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return ParseRating(n.String())
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return ParseRating(s)
}

func flexString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
