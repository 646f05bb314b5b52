// Package vaa decodes the body of a Wormhole VAA: the part of a signed
// envelope that guardians hash and sign. Signatures are verified by the
// core bridge before a body is posted; this package only reads structure.
package vaa

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
)

// Body header layout, all big-endian.
const (
	offTimestamp        = 0
	offNonce            = 4
	offEmitterChain     = 8
	offEmitterAddress   = 10
	offSequence         = 42
	offConsistencyLevel = 50

	// HeaderLen is the minimum body length; the payload starts here.
	HeaderLen = 51
)

// Body is a read-only view over a caller-owned span of at least HeaderLen bytes.
type Body struct {
	span []byte
}

// ParseBody wraps span after checking its length. It never copies.
func ParseBody(span []byte) (Body, error) {
	if err := codec.CheckLen("vaa body", span, HeaderLen); err != nil {
		return Body{}, err
	}
	return Body{span: span}, nil
}

func (b Body) Timestamp() uint32 { return codec.Uint32At(b.span, offTimestamp) }

func (b Body) Nonce() uint32 { return codec.Uint32At(b.span, offNonce) }

func (b Body) EmitterChain() uint16 { return codec.Uint16At(b.span, offEmitterChain) }

func (b Body) EmitterAddress() [32]byte { return codec.Bytes32At(b.span, offEmitterAddress) }

func (b Body) Sequence() uint64 { return codec.Uint64At(b.span, offSequence) }

func (b Body) ConsistencyLevel() uint8 { return b.span[offConsistencyLevel] }

// Payload returns the bytes after the header. It is empty, not an error,
// when the body is exactly HeaderLen bytes long.
func (b Body) Payload() Payload {
	return Payload(b.span[HeaderLen:])
}

// Bytes returns the underlying span.
func (b Body) Bytes() []byte { return b.span }

// Hash returns the message hash used to key the posted VAA account.
func (b Body) Hash() common.Hash { return Hash(b.span) }

// Header returns a copy of the header fields.
func (b Body) Header() Header {
	return Header{
		Timestamp:        b.Timestamp(),
		Nonce:            b.Nonce(),
		EmitterChain:     b.EmitterChain(),
		EmitterAddress:   b.EmitterAddress(),
		Sequence:         b.Sequence(),
		ConsistencyLevel: b.ConsistencyLevel(),
	}
}

// Payload is the opaque remainder of a body.
type Payload []byte

func (p Payload) Len() int      { return len(p) }
func (p Payload) IsEmpty() bool { return len(p) == 0 }

// Hash is keccak256 over a body span.
func Hash(body []byte) common.Hash {
	return crypto.Keccak256Hash(body)
}
