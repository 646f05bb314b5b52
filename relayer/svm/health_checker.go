package svm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

// HealthChecker vets a Solana endpoint before it joins the pool.
type HealthChecker struct {
	// ExpectedGenesisHash, if set, must prefix the endpoint's genesis hash.
	ExpectedGenesisHash string
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// CheckHealth performs a health check on a Solana RPC client
func (h *HealthChecker) CheckHealth(ctx context.Context, client *rpc.Client) error {
	health, err := client.GetHealth(ctx)
	if err != nil {
		return fmt.Errorf("failed to get health status: %w", err)
	}
	if health != "ok" {
		return fmt.Errorf("node is not healthy: %s", health)
	}

	if h.ExpectedGenesisHash != "" {
		genesisHash, err := client.GetGenesisHash(ctx)
		if err != nil {
			return fmt.Errorf("failed to get genesis hash: %w", err)
		}
		actual := genesisHash.String()
		if len(actual) > len(h.ExpectedGenesisHash) {
			actual = actual[:len(h.ExpectedGenesisHash)]
		}
		if actual != h.ExpectedGenesisHash {
			return fmt.Errorf("genesis hash mismatch: expected %s, got %s", h.ExpectedGenesisHash, genesisHash.String())
		}
	}
	return nil
}
