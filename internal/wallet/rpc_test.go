package wallet

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode answers the JSON-RPC methods the RPC wallet uses.
type fakeNode struct {
	t          *testing.T
	view       []byte
	pending    int32 // tx polls answered with UNKNOWN_TRANSACTION before success
	status     string
	txCalls    atomic.Int32
	lastParams map[string]any
	lastCall   relayerRequest
}

func (n *fakeNode) serveRPC(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
	}
	assert.NoError(n.t, json.NewDecoder(r.Body).Decode(&req))
	n.lastParams = req.Params

	switch req.Method {
	case "query":
		raw := make([]int, len(n.view))
		for i, b := range n.view {
			raw[i] = int(b)
		}
		writeRPC(w, map[string]any{"result": map[string]any{"result": raw, "logs": []string{}, "block_height": 1}})
	case "tx":
		if n.txCalls.Add(1) <= n.pending {
			writeRPC(w, map[string]any{"error": map[string]any{
				"name":  "HANDLER_ERROR",
				"cause": map[string]any{"name": "UNKNOWN_TRANSACTION"},
			}})
			return
		}
		writeRPC(w, map[string]any{"result": map[string]json.RawMessage{"status": json.RawMessage(n.status)}})
	default:
		writeRPC(w, map[string]any{"error": map[string]any{"code": -32601, "message": "Method not found"}})
	}
}

func (n *fakeNode) serveRelayer(w http.ResponseWriter, r *http.Request) {
	assert.NoError(n.t, json.NewDecoder(r.Body).Decode(&n.lastCall))
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":{"SuccessValue":""},"transaction":{"hash":"H4sh"},"transaction_outcome":{"id":"H4sh"}}`))
}

func writeRPC(w http.ResponseWriter, body map[string]any) {
	body["jsonrpc"] = "2.0"
	body["id"] = "bookrate"
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newTestRPC(t *testing.T, node *fakeNode, signedIn bool) *RPC {
	t.Helper()
	node.t = t

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", node.serveRPC)
	mux.HandleFunc("POST /relay/call", node.serveRelayer)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := NewSession("", "erin.testnet")
	if signedIn {
		require.NoError(t, s.SignIn(context.Background()))
	}
	return NewRPC(srv.URL+"/", srv.URL+"/relay/", s, WithPolling(time.Millisecond, 5))
}

func successStatus(value string) string {
	return `{"SuccessValue":"` + base64.StdEncoding.EncodeToString([]byte(value)) + `"}`
}

func TestRPCViewMethod(t *testing.T) {
	node := &fakeNode{view: []byte(`"{\"1\":{\"name\":\"Dune\"}}"`)}
	w := newTestRPC(t, node, false)

	out, err := w.ViewMethod(context.Background(), ViewRequest{ContractID: "shelf.near", Method: MethodListShelf})
	require.NoError(t, err)
	assert.Equal(t, node.view, out)

	assert.Equal(t, "call_function", node.lastParams["request_type"])
	assert.Equal(t, "shelf.near", node.lastParams["account_id"])
	assert.Equal(t, "list_shelf", node.lastParams["method_name"])
	assert.Equal(t, "e30=", node.lastParams["args_base64"])
}

func TestRPCCallMethodUsesRelayer(t *testing.T) {
	node := &fakeNode{}
	w := newTestRPC(t, node, true)

	outcome, err := w.CallMethod(context.Background(), CallRequest{
		ContractID: "shelf.near",
		Method:     MethodAddRating,
		Args:       map[string]any{"id": 2, "rating": 3},
	})
	require.NoError(t, err)

	txID, err := TxID(outcome)
	require.NoError(t, err)
	assert.Equal(t, "H4sh", txID)

	assert.Equal(t, "erin.testnet", node.lastCall.SignerID)
	assert.Equal(t, "shelf.near", node.lastCall.ReceiverID)
	assert.Equal(t, defaultGas, node.lastCall.Gas)
	assert.EqualValues(t, 3, node.lastCall.Args["rating"])
}

func TestRPCCallMethodNeedsSignIn(t *testing.T) {
	w := newTestRPC(t, &fakeNode{}, false)
	_, err := w.CallMethod(context.Background(), CallRequest{ContractID: "shelf.near", Method: MethodAddRating})
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestRPCTransactionResultPollsUntilFinal(t *testing.T) {
	node := &fakeNode{pending: 2, status: successStatus(`{"status":"ok"}`)}
	w := newTestRPC(t, node, true)

	value, err := w.GetTransactionResult(context.Background(), "H4sh")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(value))
	assert.EqualValues(t, 3, node.txCalls.Load())
	assert.Equal(t, "H4sh", node.lastParams["tx_hash"])

	// Final outcomes are served from cache.
	_, err = w.GetTransactionResult(context.Background(), "H4sh")
	require.NoError(t, err)
	assert.EqualValues(t, 3, node.txCalls.Load())
}

func TestRPCTransactionResultGivesUp(t *testing.T) {
	node := &fakeNode{pending: 100, status: successStatus("")}
	w := newTestRPC(t, node, true)

	_, err := w.GetTransactionResult(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrTxPending)
	assert.EqualValues(t, 5, node.txCalls.Load())
}

func TestRPCTransactionFailure(t *testing.T) {
	node := &fakeNode{status: `{"Failure":{"ActionError":{"index":0}}}`}
	w := newTestRPC(t, node, true)

	_, err := w.GetTransactionResult(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrTxFailed)
}

func TestDecodeReturnValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "null"},
		{`{"a":1}`, `{"a":1}`},
		{`4`, `4`},
		{`not json`, `"not json"`},
	}
	for _, tt := range tests {
		got, err := decodeReturnValue(base64.StdEncoding.EncodeToString([]byte(tt.raw)))
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}

	_, err := decodeReturnValue("%%%")
	assert.Error(t, err)
}

func TestDecodeStatusNotStarted(t *testing.T) {
	_, final, err := decodeStatus(json.RawMessage(`"Started"`))
	require.NoError(t, err)
	assert.False(t, final)
}

func TestRPCErrorMessage(t *testing.T) {
	e := &RPCError{Code: -32601, Message: "Method not found"}
	assert.Equal(t, "rpc error -32601: Method not found", e.Error())

	e.Name = "HANDLER_ERROR"
	e.Cause.Name = "UNKNOWN_BLOCK"
	assert.Equal(t, "rpc HANDLER_ERROR: UNKNOWN_BLOCK", e.Error())
}
