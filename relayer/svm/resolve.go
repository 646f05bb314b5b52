package svm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
)

// OwnerFetcher reports the owners of on-chain accounts.
type OwnerFetcher interface {
	Owners(ctx context.Context, keys []solana.PublicKey) (resolver.OwnerMap, error)
}

var _ OwnerFetcher = (*RPCClient)(nil)

// Resolver drives the two-phase resolver against a live cluster,
// fetching whatever accounts each round reports missing.
type Resolver struct {
	resolver  *resolver.Resolver
	fetcher   OwnerFetcher
	maxRounds int
	retry     *tbrerrors.RetryConfig
	logger    zerolog.Logger
}

func NewResolver(res *resolver.Resolver, fetcher OwnerFetcher, maxRounds int, retry *tbrerrors.RetryConfig, logger zerolog.Logger) *Resolver {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Resolver{
		resolver:  res,
		fetcher:   fetcher,
		maxRounds: maxRounds,
		retry:     retry,
		logger:    logger.With().Str("component", "svm_resolver").Logger(),
	}
}

// Resolve returns the instruction groups for body. An account reported
// missing that does not exist on chain fails with MissingAccount.
func (r *Resolver) Resolve(ctx context.Context, body []byte) (*resolver.Resolved, error) {
	known := resolver.OwnerMap{}
	for round := 1; round <= r.maxRounds; round++ {
		result, err := r.resolver.Resolve(body, known)
		if err != nil {
			return nil, err
		}
		switch res := result.(type) {
		case *resolver.Resolved:
			r.logger.Debug().Int("rounds", round).Msg("resolved")
			return res, nil
		case *resolver.Missing:
			owners, err := r.fetch(ctx, res.Accounts)
			if err != nil {
				return nil, err
			}
			for _, key := range res.Accounts {
				owner, ok := owners[key]
				if !ok {
					return nil, tbrerrors.NewMissingAccountError(key.String())
				}
				known[key] = owner
			}
			r.logger.Debug().Int("round", round).Int("fetched", len(res.Accounts)).Msg("fetched missing accounts")
		default:
			return nil, tbrerrors.NewInternalError("", fmt.Sprintf("unexpected resolver result %T", result), nil)
		}
	}
	return nil, tbrerrors.NewValidationError("", fmt.Sprintf("unresolved after %d rounds", r.maxRounds))
}

func (r *Resolver) fetch(ctx context.Context, keys []solana.PublicKey) (resolver.OwnerMap, error) {
	var owners resolver.OwnerMap
	err := tbrerrors.RetryWithConfig(ctx, func() error {
		var err error
		owners, err = r.fetcher.Owners(ctx, keys)
		return err
	}, r.retry)
	return owners, err
}
