package tokenbridge

import (
	"github.com/holiman/uint256"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
)

// TransferLen is the fixed size of a transfer body, discriminant excluded.
const TransferLen = 132

const (
	offAmount         = 0
	offTokenAddress   = 32
	offTokenChain     = 64
	offRecipient      = 66
	offRecipientChain = 98
	offRelayerFee     = 100
)

// Transfer is payload 1. Amounts are normalized to at most 8 decimals.
type Transfer struct {
	span []byte
}

// ParseTransfer requires at least TransferLen bytes and ignores any excess.
func ParseTransfer(span []byte) (Transfer, error) {
	if err := codec.CheckLen("transfer", span, TransferLen); err != nil {
		return Transfer{}, err
	}
	return Transfer{span: span[:TransferLen]}, nil
}

func (t Transfer) Amount() *uint256.Int {
	return new(uint256.Int).SetBytes32(t.span[offAmount : offAmount+32])
}

func (t Transfer) TokenAddress() [32]byte { return codec.Bytes32At(t.span, offTokenAddress) }

func (t Transfer) TokenChain() uint16 { return codec.Uint16At(t.span, offTokenChain) }

func (t Transfer) Recipient() [32]byte { return codec.Bytes32At(t.span, offRecipient) }

func (t Transfer) RecipientChain() uint16 { return codec.Uint16At(t.span, offRecipientChain) }

func (t Transfer) RelayerFee() *uint256.Int {
	return new(uint256.Int).SetBytes32(t.span[offRelayerFee : offRelayerFee+32])
}

func (t Transfer) Bytes() []byte { return t.span }

// TransferFields builds a transfer payload.
type TransferFields struct {
	Amount         *uint256.Int
	TokenAddress   [32]byte
	TokenChain     uint16
	Recipient      [32]byte
	RecipientChain uint16
	RelayerFee     *uint256.Int
}

// Encode returns the payload including its discriminant byte.
func (f TransferFields) Encode() []byte {
	return codec.NewWriter(1 + TransferLen).
		Uint8(uint8(KindTransfer)).
		Bytes32(word(f.Amount)).
		Bytes32(f.TokenAddress).
		Uint16(f.TokenChain).
		Bytes32(f.Recipient).
		Uint16(f.RecipientChain).
		Bytes32(word(f.RelayerFee)).
		Result()
}

func word(v *uint256.Int) [32]byte {
	if v == nil {
		return [32]byte{}
	}
	return v.Bytes32()
}
