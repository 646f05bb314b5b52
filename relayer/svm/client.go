package svm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
)

// maxAccountsPerRequest is the getMultipleAccounts limit.
const maxAccountsPerRequest = 100

// RPCClient provides Solana RPC operations with round-robin failover
type RPCClient struct {
	clients []*rpc.Client
	index   uint64
	timeout time.Duration
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// NewRPCClient creates a client over every endpoint that reports healthy.
func NewRPCClient(ctx context.Context, rpcURLs []string, timeout time.Duration, logger zerolog.Logger) (*RPCClient, error) {
	if len(rpcURLs) == 0 {
		return nil, tbrerrors.NewConfigError("", "no RPC URLs provided")
	}

	log := logger.With().Str("component", "svm_rpc_client").Logger()
	rc := &RPCClient{timeout: timeout, logger: log}
	checker := NewHealthChecker()

	for _, url := range rpcURLs {
		client := rpc.New(url)

		callCtx, cancel := rc.callContext(ctx)
		err := checker.CheckHealth(callCtx, client)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("RPC endpoint unhealthy, skipping")
			continue
		}

		rc.clients = append(rc.clients, client)
		log.Info().Str("url", url).Msg("connected to RPC endpoint")
	}

	if len(rc.clients) == 0 {
		return nil, tbrerrors.NewNetworkError("", "failed to connect to any healthy RPC endpoint", nil)
	}
	return rc, nil
}

func (rc *RPCClient) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if rc.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, rc.timeout)
}

// executeWithFailover executes a function with round-robin failover
func (rc *RPCClient) executeWithFailover(ctx context.Context, operation string, fn func(context.Context, *rpc.Client) error) error {
	rc.mu.RLock()
	clients := rc.clients
	rc.mu.RUnlock()

	if len(clients) == 0 {
		return tbrerrors.NewRPCError("", fmt.Sprintf("no RPC clients available for %s", operation), nil)
	}

	var lastErr error
	for attempt := 0; attempt < len(clients); attempt++ {
		select {
		case <-ctx.Done():
			return tbrerrors.NewTimeoutError("", fmt.Sprintf("%s: %v", operation, ctx.Err()))
		default:
		}

		index := atomic.AddUint64(&rc.index, 1) - 1
		client := clients[index%uint64(len(clients))]

		callCtx, cancel := rc.callContext(ctx)
		err := fn(callCtx, client)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		rc.logger.Warn().
			Str("operation", operation).
			Int("attempt", attempt+1).
			Err(err).
			Msg("operation failed, trying next endpoint")
	}

	return tbrerrors.NewRPCError("", fmt.Sprintf("operation %s failed after trying %d endpoints", operation, len(clients)), lastErr)
}

// IsHealthy checks if any RPC in the pool answers
func (rc *RPCClient) IsHealthy(ctx context.Context) bool {
	_, err := rc.GetLatestSlot(ctx)
	return err == nil
}

// GetLatestSlot returns the latest confirmed slot
func (rc *RPCClient) GetLatestSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := rc.executeWithFailover(ctx, "get_slot", func(ctx context.Context, client *rpc.Client) error {
		var innerErr error
		slot, innerErr = client.GetSlot(ctx, rpc.CommitmentConfirmed)
		return innerErr
	})
	return slot, err
}

// Owners fetches the owner of each key. Keys with no account on chain
// are absent from the result.
func (rc *RPCClient) Owners(ctx context.Context, keys []solana.PublicKey) (resolver.OwnerMap, error) {
	out := make(resolver.OwnerMap, len(keys))
	for start := 0; start < len(keys); start += maxAccountsPerRequest {
		end := start + maxAccountsPerRequest
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]

		var result *rpc.GetMultipleAccountsResult
		err := rc.executeWithFailover(ctx, "get_multiple_accounts", func(ctx context.Context, client *rpc.Client) error {
			var innerErr error
			result, innerErr = client.GetMultipleAccounts(ctx, batch...)
			return innerErr
		})
		if err != nil {
			return nil, err
		}
		if len(result.Value) != len(batch) {
			return nil, tbrerrors.NewRPCError("", fmt.Sprintf("getMultipleAccounts returned %d accounts for %d keys", len(result.Value), len(batch)), nil)
		}
		for i, acct := range result.Value {
			if acct == nil {
				continue
			}
			out[batch[i]] = acct.Owner
		}
	}
	return out, nil
}

// Close drops every endpoint
func (rc *RPCClient) Close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.clients = nil
}
