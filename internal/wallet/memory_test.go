package wallet

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContract = "shelf.test.near"

func signedInMemory(t *testing.T, titles ...string) *Memory {
	t.Helper()
	s := NewSession("", "carol.testnet")
	require.NoError(t, s.SignIn(context.Background()))
	return NewMemory(testContract, s, titles...)
}

func listShelf(t *testing.T, m *Memory) map[string]shelfEntry {
	t.Helper()
	raw, err := m.ViewMethod(context.Background(), ViewRequest{ContractID: testContract, Method: MethodListShelf})
	require.NoError(t, err)

	var inner string
	require.NoError(t, json.Unmarshal(raw, &inner), "shelf is a JSON string")
	var entries map[string]shelfEntry
	require.NoError(t, json.Unmarshal([]byte(inner), &entries))
	return entries
}

func TestMemoryListShelf(t *testing.T) {
	m := signedInMemory(t, "Dune", "Emma")
	require.NoError(t, m.Seed(1, "alice.testnet", 5))

	entries := listShelf(t, m)
	require.Len(t, entries, 2)
	assert.Equal(t, "Dune", entries["1"].Name)
	assert.Equal(t, "5", entries["1"].Rating)
	assert.Equal(t, [][2]string{{"alice.testnet", "5"}}, entries["1"].Reviewers)
	assert.Equal(t, "0", entries["2"].Rating)
	assert.Empty(t, entries["2"].Reviewers)
}

func TestMemoryAddRatingRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := signedInMemory(t, "Dune")
	require.NoError(t, m.Seed(1, "alice.testnet", 4))

	outcome, err := m.CallMethod(ctx, CallRequest{
		ContractID: testContract,
		Method:     MethodAddRating,
		Args:       map[string]any{"id": 1, "rating": 3},
	})
	require.NoError(t, err)

	txID, err := TxID(outcome)
	require.NoError(t, err)

	value, err := m.GetTransactionResult(ctx, txID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Dune","rating":"3.5","reviewers":2}`, string(value))

	// Rating again replaces the account's previous review.
	_, err = m.CallMethod(ctx, CallRequest{
		ContractID: testContract,
		Method:     MethodAddRating,
		Args:       map[string]any{"id": 1, "rating": 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "4.5", listShelf(t, m)["1"].Rating)
}

func TestMemoryRejectsInvalidCalls(t *testing.T) {
	ctx := context.Background()
	m := signedInMemory(t, "Dune")

	_, err := m.CallMethod(ctx, CallRequest{ContractID: testContract, Method: MethodAddRating, Args: map[string]any{"id": 1, "rating": 9}})
	assert.ErrorIs(t, err, ErrTxFailed)

	_, err = m.CallMethod(ctx, CallRequest{ContractID: testContract, Method: MethodAddRating, Args: map[string]any{"id": 7, "rating": 3}})
	assert.ErrorIs(t, err, ErrTxFailed)

	_, err = m.CallMethod(ctx, CallRequest{ContractID: "other.near", Method: MethodAddRating, Args: map[string]any{"id": 1, "rating": 3}})
	assert.ErrorIs(t, err, ErrWrongAddress)

	_, err = m.CallMethod(ctx, CallRequest{ContractID: testContract, Method: MethodAddRating, Args: map[string]any{"rating": 3}})
	assert.Error(t, err)

	_, err = m.ViewMethod(ctx, ViewRequest{ContractID: testContract, Method: "get_owner"})
	assert.ErrorIs(t, err, ErrUnknownView)

	_, err = m.GetTransactionResult(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownTx)
}

func TestMemoryCallNeedsSignIn(t *testing.T) {
	m := NewMemory(testContract, NewSession("", "dave.testnet"))
	_, err := m.CallMethod(context.Background(), CallRequest{
		ContractID: testContract,
		Method:     MethodAddRating,
		Args:       map[string]any{"id": 1, "rating": 3},
	})
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestMemoryDefaultsToDemoShelf(t *testing.T) {
	m := signedInMemory(t)
	assert.Len(t, listShelf(t, m), len(DemoTitles))
}
