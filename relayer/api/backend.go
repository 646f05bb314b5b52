package api

import (
	"context"

	"github.com/gagliardetto/solana-go"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/registry"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/relay"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/state"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
)

// LedgerBackend serves queries from the resolver and the local ledger.
type LedgerBackend struct {
	resolver *resolver.Resolver
	registry *registry.Registry
	relayer  *relay.Relayer
	store    *ledger.Store
}

func NewLedgerBackend(res *resolver.Resolver, reg *registry.Registry, rel *relay.Relayer, st *ledger.Store) *LedgerBackend {
	return &LedgerBackend{resolver: res, registry: reg, relayer: rel, store: st}
}

func (b *LedgerBackend) ExecuteVAA(body []byte, intent resolver.Completion) (*resolver.Instruction, error) {
	return b.resolver.ExecuteAs(body, intent)
}

// ResolveVAA looks accounts up in supplied first and then in the ledger.
func (b *LedgerBackend) ResolveVAA(ctx context.Context, body []byte, supplied resolver.OwnerMap) (resolver.Result, error) {
	return b.resolver.Resolve(body, layered{supplied, b.store.Owners(ctx)})
}

type layered []resolver.AccountLookup

func (l layered) Owner(key solana.PublicKey) (solana.PublicKey, bool) {
	for _, lookup := range l {
		if owner, ok := lookup.Owner(key); ok {
			return owner, true
		}
	}
	return solana.PublicKey{}, false
}

func (b *LedgerBackend) ForeignContracts(ctx context.Context) ([]state.ForeignContract, error) {
	var out []state.ForeignContract
	err := b.store.Atomic(ctx, func(tx *ledger.Tx) (err error) {
		out, err = b.registry.ForeignContracts(tx)
		return
	})
	return out, err
}

func (b *LedgerBackend) ExecutionRequests(ctx context.Context, limit int) ([]store.ExecutionRequest, error) {
	var out []store.ExecutionRequest
	q := b.store.DB().Client().WithContext(ctx).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, tbrerrors.NewDatabaseError("", "failed to list execution requests", err)
	}
	return out, nil
}

func (b *LedgerBackend) Redemptions(ctx context.Context, limit int) ([]store.Redemption, error) {
	return b.relayer.Redemptions(ctx, limit)
}
