package model

import (
	"encoding/json"
	"testing"
)

func TestResultKindString(t *testing.T) {
	tests := []struct {
		kind ResultKind
		want string
	}{
		{ResultSuccess, "success"},
		{ResultError, "error"},
		{ResultKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ResultKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestFailureCarriesFixedText(t *testing.T) {
	r := Failure(SubmissionFailedMessage)
	if !r.IsError() {
		t.Fatal("expected error kind")
	}
	if r.Text() != `"Something went wrong. Check browser console."` {
		t.Errorf("unexpected text %s", r.Text())
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"error","message":"Something went wrong. Check browser console."}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestSuccessDefaultsToNull(t *testing.T) {
	if got := Success(nil).Text(); got != "null" {
		t.Errorf("expected null payload, got %s", got)
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"5", 5, false},
		{" 4", 4, false},
		{"3.9", 3, false},
		{"2 stars", 2, false},
		{"+1", 1, false},
		{"7", 7, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRating(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRating(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRating(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampRating(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 3: 3, 5: 5, 9: 5} {
		if got := ClampRating(in); got != want {
			t.Errorf("ClampRating(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestBookDecodeContractShape(t *testing.T) {
	var b Book
	raw := `{"name":"Dune","rating":"4","reviewers":[["Alice","5"],["Bob",3]]}`
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Title != "Dune" || b.AverageRating != "4" {
		t.Errorf("unexpected book %+v", b)
	}
	if len(b.Reviewers) != 2 {
		t.Fatalf("expected 2 reviewers, got %d", len(b.Reviewers))
	}
	if b.Reviewers[0] != (Reviewer{Name: "Alice", Rating: 5}) {
		t.Errorf("unexpected reviewer %+v", b.Reviewers[0])
	}
	if b.Reviewers[1].Rating != 3 {
		t.Errorf("expected numeric rating 3, got %d", b.Reviewers[1].Rating)
	}
}

func TestBookDecodeNumericRating(t *testing.T) {
	var b Book
	if err := json.Unmarshal([]byte(`{"name":"Emma","rating":3.5,"reviewers":[]}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.AverageRating != "3.5" {
		t.Errorf("expected 3.5, got %q", b.AverageRating)
	}
	if b.HasReviews() {
		t.Error("expected no reviews")
	}
}

func TestReviewerRejectsShortPair(t *testing.T) {
	var r Reviewer
	if err := json.Unmarshal([]byte(`["Alice"]`), &r); err == nil {
		t.Error("expected error for one-element reviewer entry")
	}
}
