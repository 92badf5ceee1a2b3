package shelf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/sprite-ai/bookrate/internal/model"
)

// ErrDecode marks a payload that is not a shelf.
var ErrDecode = errors.New("shelf: cannot decode payload")

// Decode turns a list_shelf payload into books. The payload is a JSON object
// keyed by book id, a JSON array, or either of those wrapped once in a JSON
// string. Object entries are ordered like JavaScript's Object.values:
// integer keys ascending, then the other keys in document order. IDs are
// assigned by position, starting at 1.
func Decode(payload []byte) ([]model.Book, error) {
	data := bytes.TrimSpace(payload)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		data = bytes.TrimSpace([]byte(inner))
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: empty payload", ErrDecode)
		}
	}

	var books []model.Book
	switch data[0] {
	case '{':
		entries, err := orderedEntries(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		books = make([]model.Book, 0, len(entries))
		for _, e := range entries {
			var b model.Book
			if err := json.Unmarshal(e.value, &b); err != nil {
				return nil, fmt.Errorf("%w: book %q: %v", ErrDecode, e.key, err)
			}
			books = append(books, b)
		}
	case '[':
		if err := json.Unmarshal(data, &books); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	case 'n':
		if string(data) == "null" {
			return []model.Book{}, nil
		}
		fallthrough
	default:
		return nil, fmt.Errorf("%w: want object or array, got %.20q", ErrDecode, data)
	}

	for i := range books {
		books[i].ID = i + 1
		if books[i].Reviewers == nil {
			books[i].Reviewers = []model.Reviewer{}
		}
	}
	return books, nil
}

type entry struct {
	key   string
	value json.RawMessage
	index uint64
	isInt bool
}

// orderedEntries walks a JSON object keeping its members in iteration order.
func orderedEntries(data []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	var entries []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		// A repeated key keeps its first position and its last value.
		if i, dup := seen[key]; dup {
			entries[i].value = value
			continue
		}
		seen[key] = len(entries)

		e := entry{key: key, value: value}
		e.index, e.isInt = arrayIndex(key)
		entries = append(entries, e)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.isInt != b.isInt {
			return a.isInt
		}
		if a.isInt {
			return a.index < b.index
		}
		return false
	})
	return entries, nil
}

// arrayIndex reports whether key is a canonical non-negative integer below
// 2^32-1, the keys JavaScript enumerates first.
func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return n, true
}
