package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sprite-ai/bookrate/internal/model"
	"github.com/sprite-ai/bookrate/internal/rating"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Books ---

type booksResponse struct {
	Books   []model.Book `json:"books"`
	Count   int          `json:"count"`
	Loading bool         `json:"loading"`
}

func (s *Server) shelfResponse(books []model.Book) booksResponse {
	if books == nil {
		books = []model.Book{}
	}
	return booksResponse{Books: books, Count: len(books), Loading: s.flow.Loading()}
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.shelfResponse(s.shelf.Books()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		s.writeError(w, http.StatusForbidden, "cross-origin requests are not allowed")
		return
	}
	books, err := s.shelf.Refresh(r.Context())
	if err != nil {
		s.log.Error("refresh failed",
			zap.Error(err),
			zap.String("request_id", RequestIDFrom(r.Context())),
		)
		s.writeError(w, http.StatusBadGateway, model.RefreshFailedMessage)
		return
	}
	s.writeJSON(w, http.StatusOK, s.shelfResponse(books))
}

// --- Ratings ---

type rateRequest struct {
	ID     int             `json:"id"`
	Rating json.RawMessage `json:"rating"`
}

type rateResponse struct {
	Result model.Result  `json:"result"`
	Books  []model.Book  `json:"books"`
	Notice *model.Result `json:"notice,omitempty"`
}

// ratingText turns "4", 4 or 4.5 into the text the flow coerces.
func ratingText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		s.log.Warn("cross-origin rating rejected",
			zap.String("origin", r.Header.Get("Origin")),
			zap.String("request_id", RequestIDFrom(r.Context())),
		)
		s.writeError(w, http.StatusForbidden, "cross-origin requests are not allowed")
		return
	}
	if !isJSON(r) {
		s.writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}

	var req rateRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.ID < 1 {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	out, err := s.flow.Submit(r.Context(), req.ID, ratingText(req.Rating))
	switch {
	case errors.Is(err, rating.ErrNotSignedIn):
		s.writeError(w, http.StatusUnauthorized, "sign in to rate books")
		return
	case errors.Is(err, rating.ErrSubmissionInFlight):
		s.writeError(w, http.StatusConflict, "a submission is already in progress")
		return
	case err != nil:
		s.log.Error("rating failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, model.SubmissionFailedMessage)
		return
	}

	resp := rateResponse{Result: out.Result, Books: out.Books}
	if notice, ok := out.RefreshResult(); ok {
		resp.Notice = &notice
		resp.Books = s.shelf.Books()
	}
	if resp.Books == nil {
		resp.Books = []model.Book{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// --- Session ---

type sessionResponse struct {
	SignedIn  bool   `json:"signed_in"`
	AccountID string `json:"account_id,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, sessionResponse{
		SignedIn:  s.session.SignedIn(),
		AccountID: s.session.AccountID(),
	})
}
