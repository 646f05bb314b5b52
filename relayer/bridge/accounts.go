package bridge

import (
	"bytes"
	"fmt"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/vaa"
)

// Account prefixes of posted messages and posted VAAs.
var (
	prefixMessage = []byte("msg")
	prefixVAA     = []byte("vaa")
)

// Posted is the shared layout of PostedMessage and PostedVAA accounts.
type Posted struct {
	VAAVersion          uint8
	ConsistencyLevel    uint8
	VAATime             uint32
	VAASignatureAccount [32]byte
	SubmissionTime      uint32
	Nonce               uint32
	Sequence            uint64
	EmitterChain        uint16
	EmitterAddress      [32]byte
	Payload             []byte
}

func (p *Posted) encode(prefix []byte) []byte {
	return codec.NewLEWriter(3 + 1 + 1 + 4 + 32 + 4 + 4 + 8 + 2 + 32 + 4 + len(p.Payload)).
		Bytes(prefix).
		Uint8(p.VAAVersion).
		Uint8(p.ConsistencyLevel).
		Uint32(p.VAATime).
		Bytes32(p.VAASignatureAccount).
		Uint32(p.SubmissionTime).
		Uint32(p.Nonce).
		Uint64(p.Sequence).
		Uint16(p.EmitterChain).
		Bytes32(p.EmitterAddress).
		Vec(p.Payload).
		Result()
}

// EncodeVAA returns the PostedVAA account data.
func (p *Posted) EncodeVAA() []byte { return p.encode(prefixVAA) }

// EncodeMessage returns the PostedMessage account data.
func (p *Posted) EncodeMessage() []byte { return p.encode(prefixMessage) }

func decodePosted(what string, data, prefix []byte) (*Posted, error) {
	r := codec.NewLEReader(what, data)
	got, err := r.Bytes(3)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(got, prefix) {
		return nil, tbrerrors.NewValidationError("", fmt.Sprintf("%s: bad prefix %q", what, got))
	}
	var p Posted
	fields := []func() error{
		func() (err error) { p.VAAVersion, err = r.Uint8(); return },
		func() (err error) { p.ConsistencyLevel, err = r.Uint8(); return },
		func() (err error) { p.VAATime, err = r.Uint32(); return },
		func() (err error) { p.VAASignatureAccount, err = r.Bytes32(); return },
		func() (err error) { p.SubmissionTime, err = r.Uint32(); return },
		func() (err error) { p.Nonce, err = r.Uint32(); return },
		func() (err error) { p.Sequence, err = r.Uint64(); return },
		func() (err error) { p.EmitterChain, err = r.Uint16(); return },
		func() (err error) { p.EmitterAddress, err = r.Bytes32(); return },
		func() (err error) { p.Payload, err = r.Vec(); return },
	}
	for _, read := range fields {
		if err := read(); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// DecodePostedVAA decodes PostedVAA account data.
func DecodePostedVAA(data []byte) (*Posted, error) {
	return decodePosted("posted vaa", data, prefixVAA)
}

// DecodePostedMessage decodes PostedMessage account data.
func DecodePostedMessage(data []byte) (*Posted, error) {
	return decodePosted("posted message", data, prefixMessage)
}

// Body rebuilds the VAA body the account was posted from.
func (p *Posted) Body() []byte {
	return vaa.Header{
		Timestamp:        p.VAATime,
		Nonce:            p.Nonce,
		EmitterChain:     p.EmitterChain,
		EmitterAddress:   p.EmitterAddress,
		Sequence:         p.Sequence,
		ConsistencyLevel: p.ConsistencyLevel,
	}.Encode(p.Payload)
}

// BridgeData is the core bridge's state account.
type BridgeData struct {
	GuardianSetIndex          uint32
	LastLamports              uint64
	GuardianSetExpirationTime uint32
	Fee                       uint64
}

const bridgeDataLen = 4 + 8 + 4 + 8

func (d *BridgeData) Encode() []byte {
	return codec.NewLEWriter(bridgeDataLen).
		Uint32(d.GuardianSetIndex).
		Uint64(d.LastLamports).
		Uint32(d.GuardianSetExpirationTime).
		Uint64(d.Fee).
		Result()
}

func DecodeBridgeData(data []byte) (*BridgeData, error) {
	if err := codec.CheckLen("bridge data", data, bridgeDataLen); err != nil {
		return nil, err
	}
	r := codec.NewLEReader("bridge data", data)
	var d BridgeData
	d.GuardianSetIndex, _ = r.Uint32()
	d.LastLamports, _ = r.Uint64()
	d.GuardianSetExpirationTime, _ = r.Uint32()
	d.Fee, _ = r.Uint64()
	return &d, nil
}

// EndpointRegistration is the token bridge's record of a foreign bridge.
type EndpointRegistration struct {
	Chain    uint16
	Contract [32]byte
}

func (e *EndpointRegistration) Encode() []byte {
	return codec.NewLEWriter(34).Uint16(e.Chain).Bytes32(e.Contract).Result()
}

func DecodeEndpointRegistration(data []byte) (*EndpointRegistration, error) {
	if err := codec.CheckLen("endpoint registration", data, 34); err != nil {
		return nil, err
	}
	r := codec.NewLEReader("endpoint registration", data)
	var e EndpointRegistration
	e.Chain, _ = r.Uint16()
	e.Contract, _ = r.Bytes32()
	return &e, nil
}

// WrappedMeta links a wrapped mint to its origin token.
type WrappedMeta struct {
	Chain            uint16
	TokenAddress     [32]byte
	OriginalDecimals uint8
}

func (m *WrappedMeta) Encode() []byte {
	return codec.NewLEWriter(35).Uint16(m.Chain).Bytes32(m.TokenAddress).Uint8(m.OriginalDecimals).Result()
}

func DecodeWrappedMeta(data []byte) (*WrappedMeta, error) {
	if err := codec.CheckLen("wrapped meta", data, 35); err != nil {
		return nil, err
	}
	r := codec.NewLEReader("wrapped meta", data)
	var m WrappedMeta
	m.Chain, _ = r.Uint16()
	m.TokenAddress, _ = r.Bytes32()
	m.OriginalDecimals, _ = r.Uint8()
	return &m, nil
}

// EncodeSequence returns sequence tracker data.
func EncodeSequence(next uint64) []byte {
	return codec.NewLEWriter(8).Uint64(next).Result()
}

// DecodeSequence reads the next sequence from tracker data.
func DecodeSequence(data []byte) (uint64, error) {
	return codec.NewLEReader("sequence tracker", data).Uint64()
}
