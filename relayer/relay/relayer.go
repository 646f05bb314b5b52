// Package relay is the transfer and redeem state machine. Every operation
// validates all supplied accounts into a typed context first and then runs
// its state transitions inside one ledger transaction.
package relay

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/metrics"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/registry"
)

// Options wires a Relayer. Metrics may be nil.
type Options struct {
	Store      *ledger.Store
	Deriver    *pda.Deriver
	Registry   *registry.Registry
	Bridge     TokenBridge
	Executor   Executor
	Tokens     TokenProgram
	LocalChain uint16
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// Relayer runs relay operations against the ledger.
type Relayer struct {
	store      *ledger.Store
	deriver    *pda.Deriver
	registry   *registry.Registry
	bridge     TokenBridge
	executor   Executor
	tokens     TokenProgram
	localChain uint16
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func New(opts Options) *Relayer {
	return &Relayer{
		store:      opts.Store,
		deriver:    opts.Deriver,
		registry:   opts.Registry,
		bridge:     opts.Bridge,
		executor:   opts.Executor,
		tokens:     opts.Tokens,
		localChain: opts.LocalChain,
		metrics:    opts.Metrics,
		logger:     opts.Logger.With().Str("component", "relay").Logger(),
	}
}

func (r *Relayer) program() solana.PublicKey { return r.deriver.Programs().Relayer }

// atomic runs fn in one ledger transaction and counts failures.
func (r *Relayer) atomic(ctx context.Context, operation string, fn func(tx *ledger.Tx) error) error {
	err := r.store.Atomic(ctx, fn)
	if err != nil {
		r.metrics.Failure(operation, err)
		r.logger.Warn().Err(err).Str("operation", operation).Msg("operation rolled back")
	}
	return err
}

// validForeignAddress reports whether chain and address can receive a transfer.
func (r *Relayer) validForeignAddress(chain uint16, address [32]byte) bool {
	return chain != 0 && chain != r.localChain && address != [32]byte{}
}
