// Package pda derives every program-derived address the relayer touches.
// Derivations are pure functions of their inputs and the configured
// program ids.
package pda

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	DefaultRelayerProgramID     = solana.MustPublicKeyFromBase58("Hsf7mQAy6eSYbqGYqkeTx8smMGF4m6Nn6viGoh9wxiah")
	DefaultCoreBridgeProgramID  = solana.MustPublicKeyFromBase58("3u8hJUVTA4jH1wYAyUur7FFZVQ8H635K3tSHHF4ssjQ5")
	DefaultTokenBridgeProgramID = solana.MustPublicKeyFromBase58("DZnkkTmCiFWfYTfT41X3Rd1kDgozqzxWaHqsw6W4x2oe")
	DefaultExecutorProgramID    = solana.MustPublicKeyFromBase58("execXUrAsMnqMmTHj5m7N1YQgsDz3cwGLYCYyuDRciV")

	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	RentSysvarID             = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	ClockSysvarID            = solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")
	NativeMint               = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

// Programs holds the deployment's program ids.
type Programs struct {
	Relayer     solana.PublicKey
	CoreBridge  solana.PublicKey
	TokenBridge solana.PublicKey
	Executor    solana.PublicKey
}

// DefaultPrograms returns the devnet deployment.
func DefaultPrograms() Programs {
	return Programs{
		Relayer:     DefaultRelayerProgramID,
		CoreBridge:  DefaultCoreBridgeProgramID,
		TokenBridge: DefaultTokenBridgeProgramID,
		Executor:    DefaultExecutorProgramID,
	}
}

// ParsePrograms builds Programs from base58 strings. Empty strings keep
// the default for that program.
func ParsePrograms(relayer, coreBridge, tokenBridge, executor string) (Programs, error) {
	p := DefaultPrograms()
	fields := []struct {
		name string
		in   string
		out  *solana.PublicKey
	}{
		{"relayer", relayer, &p.Relayer},
		{"core bridge", coreBridge, &p.CoreBridge},
		{"token bridge", tokenBridge, &p.TokenBridge},
		{"executor", executor, &p.Executor},
	}
	for _, f := range fields {
		if f.in == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(f.in)
		if err != nil {
			return Programs{}, fmt.Errorf("invalid %s program id %q: %w", f.name, f.in, err)
		}
		*f.out = key
	}
	return p, nil
}
