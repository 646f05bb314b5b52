package svm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers the JSON-RPC methods the client uses. Accounts maps
// base58 keys to their owner.
type fakeNode struct {
	healthy  bool
	accounts map[string]solana.PublicKey
	calls    atomic.Int32
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.calls.Add(1)
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply := func(result interface{}) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}
	fail := func(msg string) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": -32005, "message": msg},
		})
	}

	switch req.Method {
	case "getHealth":
		if !n.healthy {
			fail("Node is behind")
			return
		}
		reply("ok")
	case "getSlot":
		reply(1234)
	case "getMultipleAccounts":
		var keys []string
		if len(req.Params) == 0 || json.Unmarshal(req.Params[0], &keys) != nil {
			fail("bad params")
			return
		}
		value := make([]interface{}, len(keys))
		for i, k := range keys {
			owner, ok := n.accounts[k]
			if !ok {
				continue
			}
			value[i] = map[string]interface{}{
				"lamports":   1,
				"owner":      owner.String(),
				"data":       []string{"", "base64"},
				"executable": false,
				"rentEpoch":  0,
				"space":      0,
			}
		}
		reply(map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": value})
	default:
		fail("method not found")
	}
}

func newNode(t *testing.T, n *fakeNode) string {
	srv := httptest.NewServer(n)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestNewRPCClient(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(zerolog.NewTestWriter(t))

	t.Run("no urls", func(t *testing.T) {
		_, err := NewRPCClient(ctx, nil, time.Second, logger)
		require.Error(t, err)
		assert.Equal(t, tbrerrors.ErrCodeConfig, tbrerrors.CodeOf(err))
	})

	t.Run("skips unhealthy endpoints", func(t *testing.T) {
		bad := newNode(t, &fakeNode{})
		good := newNode(t, &fakeNode{healthy: true})

		rc, err := NewRPCClient(ctx, []string{bad, good}, time.Second, logger)
		require.NoError(t, err)
		assert.Len(t, rc.clients, 1)
		assert.True(t, rc.IsHealthy(ctx))
	})

	t.Run("all unhealthy", func(t *testing.T) {
		bad := newNode(t, &fakeNode{})
		_, err := NewRPCClient(ctx, []string{bad, "http://127.0.0.1:1"}, time.Second, logger)
		require.Error(t, err)
		assert.Equal(t, tbrerrors.ErrCodeNetwork, tbrerrors.CodeOf(err))
	})
}

func TestRPCClient_Owners(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(zerolog.NewTestWriter(t))
	present := solana.PublicKey{0x01}
	absent := solana.PublicKey{0x02}

	node := &fakeNode{healthy: true, accounts: map[string]solana.PublicKey{present.String(): solana.TokenProgramID}}
	rc, err := NewRPCClient(ctx, []string{newNode(t, node)}, time.Second, logger)
	require.NoError(t, err)

	owners, err := rc.Owners(ctx, []solana.PublicKey{present, absent})
	require.NoError(t, err)
	assert.Equal(t, solana.TokenProgramID, owners[present])
	_, ok := owners[absent]
	assert.False(t, ok)

	t.Run("batches large requests", func(t *testing.T) {
		keys := make([]solana.PublicKey, maxAccountsPerRequest*2+1)
		for i := range keys {
			keys[i] = solana.PublicKey{byte(i), byte(i >> 8), 0xff}
		}
		before := node.calls.Load()
		owners, err := rc.Owners(ctx, keys)
		require.NoError(t, err)
		assert.Empty(t, owners)
		assert.Equal(t, int32(3), node.calls.Load()-before)
	})
}

func TestRPCClient_Failover(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(zerolog.NewTestWriter(t))

	flaky := &fakeNode{healthy: true}
	stable := &fakeNode{healthy: true}
	flakySrv := httptest.NewServer(flaky)
	stableURL := newNode(t, stable)

	rc, err := NewRPCClient(ctx, []string{flakySrv.URL, stableURL}, time.Second, logger)
	require.NoError(t, err)
	require.Len(t, rc.clients, 2)

	flakySrv.Close()
	for i := 0; i < 4; i++ {
		slot, err := rc.GetLatestSlot(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1234), slot)
	}

	rc.Close()
	_, err = rc.GetLatestSlot(ctx)
	require.Error(t, err)
	assert.Equal(t, tbrerrors.ErrCodeRPC, tbrerrors.CodeOf(err))
	assert.False(t, rc.IsHealthy(ctx))
}
