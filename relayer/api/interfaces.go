package api

import (
	"context"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/state"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
)

// Backend defines the methods needed by the API server
type Backend interface {
	ExecuteVAA(body []byte, intent resolver.Completion) (*resolver.Instruction, error)
	ResolveVAA(ctx context.Context, body []byte, supplied resolver.OwnerMap) (resolver.Result, error)
	ForeignContracts(ctx context.Context) ([]state.ForeignContract, error)
	ExecutionRequests(ctx context.Context, limit int) ([]store.ExecutionRequest, error)
	Redemptions(ctx context.Context, limit int) ([]store.Redemption, error)
}
