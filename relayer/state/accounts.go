// Package state holds the relayer program's own accounts in their Anchor
// layouts: an 8-byte discriminator followed by Borsh fields.
package state

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
)

const (
	ConfigLen          = 8 + 1
	ForeignContractLen = 8 + 2 + 32 + 1

	// Rent-exempt minimums for the layouts above.
	ConfigRent          = 953_520
	ForeignContractRent = 1_183_200
)

func discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

var (
	SenderConfigDiscriminator    = discriminator("SenderConfig")
	RedeemerConfigDiscriminator  = discriminator("RedeemerConfig")
	ForeignContractDiscriminator = discriminator("ForeignContract")
)

// SenderConfig signs outbound transfers and owns their escrow.
type SenderConfig struct {
	Bump uint8
}

// RedeemerConfig is the redeemer of inbound transfers and owns their escrow.
type RedeemerConfig struct {
	Bump uint8
}

// ForeignContract maps a foreign chain to its registered contract.
type ForeignContract struct {
	Chain   uint16
	Address [32]byte
	Bump    uint8
}

func (c SenderConfig) Encode() []byte {
	return codec.NewLEWriter(ConfigLen).Bytes(SenderConfigDiscriminator[:]).Uint8(c.Bump).Result()
}

func (c RedeemerConfig) Encode() []byte {
	return codec.NewLEWriter(ConfigLen).Bytes(RedeemerConfigDiscriminator[:]).Uint8(c.Bump).Result()
}

func (f ForeignContract) Encode() []byte {
	return codec.NewLEWriter(ForeignContractLen).
		Bytes(ForeignContractDiscriminator[:]).
		Uint16(f.Chain).
		Bytes32(f.Address).
		Uint8(f.Bump).
		Result()
}

func checkDiscriminator(what string, data []byte, want [8]byte) (*codec.Reader, error) {
	r := codec.NewLEReader(what, data)
	got, err := r.Bytes(8)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(got, want[:]) {
		return nil, tbrerrors.NewValidationError("", fmt.Sprintf("%s: account discriminator mismatch", what))
	}
	return r, nil
}

func DecodeSenderConfig(data []byte) (*SenderConfig, error) {
	r, err := checkDiscriminator("sender config", data, SenderConfigDiscriminator)
	if err != nil {
		return nil, err
	}
	bump, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &SenderConfig{Bump: bump}, nil
}

func DecodeRedeemerConfig(data []byte) (*RedeemerConfig, error) {
	r, err := checkDiscriminator("redeemer config", data, RedeemerConfigDiscriminator)
	if err != nil {
		return nil, err
	}
	bump, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &RedeemerConfig{Bump: bump}, nil
}

func DecodeForeignContract(data []byte) (*ForeignContract, error) {
	r, err := checkDiscriminator("foreign contract", data, ForeignContractDiscriminator)
	if err != nil {
		return nil, err
	}
	var f ForeignContract
	if f.Chain, err = r.Uint16(); err != nil {
		return nil, err
	}
	if f.Address, err = r.Bytes32(); err != nil {
		return nil, err
	}
	if f.Bump, err = r.Uint8(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads an account owned by program and decodes it.
func Load[T any](tx *ledger.Tx, key, program solana.PublicKey, decode func([]byte) (*T, error)) (*T, error) {
	acct, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	if acct.Owner != program {
		return nil, tbrerrors.NewValidationError("", fmt.Sprintf(
			"account %s is owned by %s, expected %s", key, acct.Owner, program))
	}
	return decode(acct.Data)
}
