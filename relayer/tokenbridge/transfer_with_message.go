package tokenbridge

import (
	"github.com/holiman/uint256"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
)

// TransferWithMessageHeaderLen is the fixed prefix of payload 3; the
// application payload follows it.
const TransferWithMessageHeaderLen = 132

const (
	offRedeemer      = 66
	offRedeemerChain = 98
	offSender        = 100
	offMessage       = 132
)

// TransferWithMessage is payload 3: a transfer whose redeemer is a program
// that receives the tokens together with an application payload.
type TransferWithMessage struct {
	span []byte
}

// ParseTransferWithMessage requires at least the fixed prefix and keeps
// the whole span; everything after the prefix is the application payload.
func ParseTransferWithMessage(span []byte) (TransferWithMessage, error) {
	if err := codec.CheckLen("transfer with message", span, TransferWithMessageHeaderLen); err != nil {
		return TransferWithMessage{}, err
	}
	return TransferWithMessage{span: span}, nil
}

func (t TransferWithMessage) Amount() *uint256.Int {
	return new(uint256.Int).SetBytes32(t.span[offAmount : offAmount+32])
}

func (t TransferWithMessage) TokenAddress() [32]byte { return codec.Bytes32At(t.span, offTokenAddress) }

func (t TransferWithMessage) TokenChain() uint16 { return codec.Uint16At(t.span, offTokenChain) }

// Redeemer is the program allowed to complete the transfer.
func (t TransferWithMessage) Redeemer() [32]byte { return codec.Bytes32At(t.span, offRedeemer) }

func (t TransferWithMessage) RedeemerChain() uint16 { return codec.Uint16At(t.span, offRedeemerChain) }

func (t TransferWithMessage) Sender() [32]byte { return codec.Bytes32At(t.span, offSender) }

// Payload returns the application payload without copying. It may be empty.
func (t TransferWithMessage) Payload() []byte { return t.span[offMessage:] }

func (t TransferWithMessage) Bytes() []byte { return t.span }

// TransferWithMessageFields builds a transfer-with-message payload.
type TransferWithMessageFields struct {
	Amount        *uint256.Int
	TokenAddress  [32]byte
	TokenChain    uint16
	Redeemer      [32]byte
	RedeemerChain uint16
	Sender        [32]byte
	Payload       []byte
}

// Encode returns the payload including its discriminant byte.
func (f TransferWithMessageFields) Encode() []byte {
	return codec.NewWriter(1 + TransferWithMessageHeaderLen + len(f.Payload)).
		Uint8(uint8(KindTransferWithMessage)).
		Bytes32(word(f.Amount)).
		Bytes32(f.TokenAddress).
		Uint16(f.TokenChain).
		Bytes32(f.Redeemer).
		Uint16(f.RedeemerChain).
		Bytes32(f.Sender).
		Bytes(f.Payload).
		Result()
}
