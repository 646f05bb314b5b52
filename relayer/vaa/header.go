package vaa

import (
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
)

// Header holds the body header fields. It is used to build bodies for
// tooling and tests; decoding always goes through Body.
type Header struct {
	Timestamp        uint32   `json:"timestamp"`
	Nonce            uint32   `json:"nonce"`
	EmitterChain     uint16   `json:"emitter_chain"`
	EmitterAddress   [32]byte `json:"emitter_address"`
	Sequence         uint64   `json:"sequence"`
	ConsistencyLevel uint8    `json:"consistency_level"`
}

// Encode returns header || payload.
func (h Header) Encode(payload []byte) []byte {
	return codec.NewWriter(HeaderLen + len(payload)).
		Uint32(h.Timestamp).
		Uint32(h.Nonce).
		Uint16(h.EmitterChain).
		Bytes32(h.EmitterAddress).
		Uint64(h.Sequence).
		Uint8(h.ConsistencyLevel).
		Bytes(payload).
		Result()
}
