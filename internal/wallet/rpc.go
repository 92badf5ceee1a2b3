package wallet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultGas     = "30000000000000"
	defaultDeposit = "0"
)

// RPC talks to a NEAR JSON-RPC node for views and transaction status, and to
// a signing relayer for change calls.
type RPC struct {
	*Session

	httpClient   *http.Client
	rpcURL       string
	relayerURL   string
	pollInterval time.Duration
	pollAttempts int
	outcomes     *cache.Cache
	log          *zap.Logger
}

// RPCOption configures an RPC wallet.
type RPCOption func(*RPC)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RPCOption {
	return func(r *RPC) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// WithPolling bounds how transaction results are awaited.
func WithPolling(interval time.Duration, attempts int) RPCOption {
	return func(r *RPC) {
		if interval > 0 {
			r.pollInterval = interval
		}
		if attempts > 0 {
			r.pollAttempts = attempts
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) RPCOption {
	return func(r *RPC) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRPC creates an RPC wallet.
func NewRPC(rpcURL, relayerURL string, session *Session, opts ...RPCOption) *RPC {
	r := &RPC{
		Session:      session,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		rpcURL:       rpcURL,
		relayerURL:   strings.TrimRight(relayerURL, "/"),
		pollInterval: 500 * time.Millisecond,
		pollAttempts: 40,
		// Final outcomes never change, so they can be kept for a while.
		outcomes: cache.New(30*time.Minute, 10*time.Minute),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Cause   struct {
		Name string         `json:"name"`
		Info map[string]any `json:"info"`
	} `json:"cause"`
}

func (e *RPCError) Error() string {
	if e.Cause.Name != "" {
		return fmt.Sprintf("rpc %s: %s", e.Name, e.Cause.Name)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (r *RPC) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: "bookrate", Method: method, Params: params})
	if err != nil {
		return err
	}

	var resp rpcResponse
	if err := r.post(ctx, r.rpcURL, body, &resp); err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

func (r *RPC) post(ctx context.Context, url string, body []byte, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, target)
}

// ViewMethod runs a call_function query and returns the method's raw output.
func (r *RPC) ViewMethod(ctx context.Context, req ViewRequest) ([]byte, error) {
	args := req.Args
	if args == nil {
		args = map[string]any{}
	}
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding view args: %w", err)
	}

	params := map[string]any{
		"request_type": "call_function",
		"finality":     "final",
		"account_id":   req.ContractID,
		"method_name":  req.Method,
		"args_base64":  base64.StdEncoding.EncodeToString(rawArgs),
	}

	var res struct {
		Raw   []int  `json:"result"`
		Error string `json:"error"`
	}
	if err := r.call(ctx, "query", params, &res); err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, fmt.Errorf("view %s: %s", req.Method, res.Error)
	}

	// The node returns the output as an array of byte values.
	out := make([]byte, len(res.Raw))
	for i, b := range res.Raw {
		out[i] = byte(b)
	}
	r.log.Debug("view method", zap.String("method", req.Method), zap.Int("bytes", len(out)))
	return out, nil
}

type relayerRequest struct {
	SignerID   string         `json:"signer_id"`
	ReceiverID string         `json:"receiver_id"`
	MethodName string         `json:"method_name"`
	Args       map[string]any `json:"args"`
	Gas        string         `json:"gas"`
	Deposit    string         `json:"deposit"`
}

// CallMethod asks the relayer to sign and broadcast a function call for the
// signed-in account. The relayer answers with the execution outcome.
func (r *RPC) CallMethod(ctx context.Context, req CallRequest) (json.RawMessage, error) {
	account := r.AccountID()
	if account == "" {
		return nil, ErrNotSignedIn
	}

	rr := relayerRequest{
		SignerID:   account,
		ReceiverID: req.ContractID,
		MethodName: req.Method,
		Args:       req.Args,
		Gas:        req.Gas,
		Deposit:    req.Deposit,
	}
	if rr.Gas == "" {
		rr.Gas = defaultGas
	}
	if rr.Deposit == "" {
		rr.Deposit = defaultDeposit
	}

	body, err := json.Marshal(rr)
	if err != nil {
		return nil, err
	}

	var outcome json.RawMessage
	if err := r.post(ctx, r.relayerURL+"/call", body, &outcome); err != nil {
		return nil, fmt.Errorf("relayer call %s: %w", req.Method, err)
	}
	r.log.Info("change call submitted", zap.String("method", req.Method), zap.String("signer", account))
	return outcome, nil
}

type txStatus struct {
	Status json.RawMessage `json:"status"`
}

// GetTransactionResult polls the tx status until the transaction is final and
// returns its decoded return value.
func (r *RPC) GetTransactionResult(ctx context.Context, txID string) (json.RawMessage, error) {
	if v, ok := r.outcomes.Get(txID); ok {
		return v.(json.RawMessage), nil
	}

	params := map[string]any{
		"tx_hash":           txID,
		"sender_account_id": r.AccountID(),
		"wait_until":        "FINAL",
	}

	limiter := rate.NewLimiter(rate.Every(r.pollInterval), 1)
	for attempt := 0; attempt < r.pollAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var st txStatus
		err := r.call(ctx, "tx", params, &st)
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && isPendingCause(rpcErr.Cause.Name) {
			r.log.Debug("transaction pending", zap.String("tx", txID), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, err
		}

		value, final, err := decodeStatus(st.Status)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txID, err)
		}
		if !final {
			continue
		}
		r.outcomes.Set(txID, value, cache.DefaultExpiration)
		return value, nil
	}
	return nil, fmt.Errorf("%w: %s after %d attempts", ErrTxPending, txID, r.pollAttempts)
}

func isPendingCause(name string) bool {
	switch name {
	case "UNKNOWN_TRANSACTION", "TIMEOUT_ERROR":
		return true
	}
	return false
}

// decodeStatus interprets an execution status. SuccessValue is base64 of the
// method's return bytes, usually JSON.
func decodeStatus(raw json.RawMessage) (json.RawMessage, bool, error) {
	var simple string
	if err := json.Unmarshal(raw, &simple); err == nil {
		// "NotStarted" / "Started"
		return nil, false, nil
	}

	var st struct {
		SuccessValue *string         `json:"SuccessValue"`
		Failure      json.RawMessage `json:"Failure"`
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, false, err
	}

	switch {
	case len(st.Failure) > 0:
		return nil, true, fmt.Errorf("%w: %s", ErrTxFailed, string(st.Failure))
	case st.SuccessValue != nil:
		value, err := decodeReturnValue(*st.SuccessValue)
		return value, true, err
	}
	return nil, false, fmt.Errorf("unrecognised status %s", string(raw))
}

func decodeReturnValue(b64 string) (json.RawMessage, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decoding return value: %w", err)
	}
	if len(data) == 0 {
		return json.RawMessage("null"), nil
	}
	if json.Valid(data) {
		return json.RawMessage(data), nil
	}
	quoted, err := json.Marshal(string(data))
	if err != nil {
		return nil, err
	}
	return quoted, nil
}
