package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sprite-ai/bookrate/internal/model"
	"github.com/sprite-ai/bookrate/internal/rating"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 16,
	WriteBufferSize: 1024 * 64,
	CheckOrigin:     sameOrigin,
}

// WebSocket message types from client.
const (
	wsMsgRefresh = "refresh"
	wsMsgRate    = "rate"
)

// WebSocket message types to client.
const (
	wsMsgBooks  = "books"
	wsMsgState  = "state"
	wsMsgResult = "result"
	wsMsgError  = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsRate is the payload for "rate" messages.
type wsRate struct {
	ID     int             `json:"id"`
	Rating json.RawMessage `json:"rating"`
}

// wsState tells the client whether to show the loading indicator.
type wsState struct {
	Loading bool `json:"loading"`
}

// wsClient is one connected socket.
type wsClient struct {
	id   string
	conn *websocket.Conn
	log  *zap.Logger
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &wsClient{id: uuid.NewString(), conn: conn}
	c.log = s.log.With(zap.String("ws_session", c.id))
	c.log.Debug("websocket connected")

	// The current shelf is sent on connect.
	c.send(wsMsgBooks, s.shelfResponse(s.shelf.Books()))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgRefresh:
			s.wsRefresh(r, c)
		case wsMsgRate:
			s.wsRate(r, c, msg.Data)
		default:
			c.sendError("unknown message type: " + msg.Type)
		}
	}
}

func (s *Server) wsRefresh(r *http.Request, c *wsClient) {
	c.send(wsMsgState, wsState{Loading: true})
	books, err := s.shelf.Refresh(r.Context())
	c.send(wsMsgState, wsState{Loading: false})
	if err != nil {
		c.log.Error("refresh failed", zap.Error(err))
		c.send(wsMsgResult, model.Failure(model.RefreshFailedMessage))
		return
	}
	c.send(wsMsgBooks, s.shelfResponse(books))
}

func (s *Server) wsRate(r *http.Request, c *wsClient, data json.RawMessage) {
	var req wsRate
	if err := json.Unmarshal(data, &req); err != nil || req.ID < 1 {
		c.sendError("invalid rate data")
		return
	}

	c.send(wsMsgState, wsState{Loading: true})
	out, err := s.flow.Submit(r.Context(), req.ID, ratingText(req.Rating))
	c.send(wsMsgState, wsState{Loading: false})

	switch {
	case errors.Is(err, rating.ErrNotSignedIn):
		c.sendError("sign in to rate books")
		return
	case errors.Is(err, rating.ErrSubmissionInFlight):
		c.sendError("a submission is already in progress")
		return
	case err != nil:
		c.log.Error("rating failed", zap.Error(err))
		c.send(wsMsgResult, model.Failure(model.SubmissionFailedMessage))
		return
	}

	c.send(wsMsgResult, out.Result)
	if notice, ok := out.RefreshResult(); ok {
		c.send(wsMsgResult, notice)
		return
	}
	c.send(wsMsgBooks, s.shelfResponse(out.Books))
}

func (c *wsClient) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.log.Warn("ws marshal", zap.Error(err))
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.log.Warn("ws write", zap.Error(err))
	}
}

func (c *wsClient) sendError(errMsg string) {
	c.send(wsMsgError, map[string]string{"message": errMsg})
}
