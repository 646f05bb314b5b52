// Package executor builds and parses the Wormhole executor's wire formats
// (execution requests, relay instructions, signed quotes), fetches quotes
// and simulates the on-chain request_for_execution.
package executor

import (
	"bytes"
	"fmt"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

// RequestKind is the 4-byte prefix of a request.
type RequestKind string

const (
	KindVAAv1          RequestKind = "ERV1"
	KindModularMessage RequestKind = "ERM1"
	KindNTTv1          RequestKind = "ERN1"
)

const (
	VAAv1RequestLen             = 4 + 2 + 32 + 8
	ModularMessageRequestMinLen = 4 + 2 + 32 + 8 + 4
	NTTv1RequestLen             = 4 + 2 + 32 + 32
)

// Request is a parsed execution request.
type Request interface {
	Kind() RequestKind
	Encode() []byte
	// Message identifies what is being executed: emitter chain and address
	// plus a sequence, which is zero for NTT requests.
	Message() (chain uint16, address [32]byte, sequence uint64)
}

// VAAv1Request asks for delivery of the VAA with the given emitter and sequence.
type VAAv1Request struct {
	Chain    uint16
	Address  [32]byte
	Sequence uint64
}

func (VAAv1Request) Kind() RequestKind { return KindVAAv1 }

func (r VAAv1Request) Encode() []byte {
	return codec.NewWriter(VAAv1RequestLen).
		Bytes([]byte(KindVAAv1)).
		Uint16(r.Chain).
		Bytes32(r.Address).
		Uint64(r.Sequence).
		Result()
}

func (r VAAv1Request) Message() (uint16, [32]byte, uint64) { return r.Chain, r.Address, r.Sequence }

// ModularMessageRequest carries an opaque payload next to the message id.
type ModularMessageRequest struct {
	Chain    uint16
	Address  [32]byte
	Sequence uint64
	Payload  []byte
}

func (ModularMessageRequest) Kind() RequestKind { return KindModularMessage }

func (r ModularMessageRequest) Encode() []byte {
	return codec.NewWriter(ModularMessageRequestMinLen + len(r.Payload)).
		Bytes([]byte(KindModularMessage)).
		Uint16(r.Chain).
		Bytes32(r.Address).
		Uint64(r.Sequence).
		Uint32(uint32(len(r.Payload))).
		Bytes(r.Payload).
		Result()
}

func (r ModularMessageRequest) Message() (uint16, [32]byte, uint64) {
	return r.Chain, r.Address, r.Sequence
}

// NTTv1Request names an NTT manager message.
type NTTv1Request struct {
	SrcChain   uint16
	SrcManager [32]byte
	MessageID  [32]byte
}

func (NTTv1Request) Kind() RequestKind { return KindNTTv1 }

func (r NTTv1Request) Encode() []byte {
	return codec.NewWriter(NTTv1RequestLen).
		Bytes([]byte(KindNTTv1)).
		Uint16(r.SrcChain).
		Bytes32(r.SrcManager).
		Bytes32(r.MessageID).
		Result()
}

func (r NTTv1Request) Message() (uint16, [32]byte, uint64) { return r.SrcChain, r.SrcManager, 0 }

// ParseRequest decodes any request kind. Lengths are exact: trailing bytes
// are rejected.
func ParseRequest(b []byte) (Request, error) {
	if err := codec.CheckLen("execution request", b, 4); err != nil {
		return nil, err
	}
	switch RequestKind(b[:4]) {
	case KindVAAv1:
		return ParseVAAv1Request(b)
	case KindModularMessage:
		return ParseModularMessageRequest(b)
	case KindNTTv1:
		return ParseNTTv1Request(b)
	default:
		return nil, tbrerrors.NewMalformedMessageError(fmt.Sprintf("unknown request prefix %q", b[:4]), nil)
	}
}

func checkPrefix(r *codec.Reader, kind RequestKind) error {
	prefix, err := r.Bytes(4)
	if err != nil {
		return err
	}
	if !bytes.Equal(prefix, []byte(kind)) {
		return tbrerrors.NewMalformedMessageError(fmt.Sprintf("expected %s prefix, got %q", kind, prefix), nil)
	}
	return nil
}

func exactLen(kind RequestKind, b []byte, want int) error {
	if err := codec.CheckLen(string(kind), b, want); err != nil {
		return err
	}
	if len(b) != want {
		return tbrerrors.NewMalformedMessageError(fmt.Sprintf("%s request must be %d bytes, got %d", kind, want, len(b)), nil)
	}
	return nil
}

func ParseVAAv1Request(b []byte) (VAAv1Request, error) {
	var req VAAv1Request
	if err := exactLen(KindVAAv1, b, VAAv1RequestLen); err != nil {
		return req, err
	}
	r := codec.NewReader(string(KindVAAv1), b)
	if err := checkPrefix(r, KindVAAv1); err != nil {
		return req, err
	}
	req.Chain, _ = r.Uint16()
	req.Address, _ = r.Bytes32()
	req.Sequence, _ = r.Uint64()
	return req, nil
}

func ParseModularMessageRequest(b []byte) (ModularMessageRequest, error) {
	var req ModularMessageRequest
	if err := codec.CheckLen(string(KindModularMessage), b, ModularMessageRequestMinLen); err != nil {
		return req, err
	}
	r := codec.NewReader(string(KindModularMessage), b)
	if err := checkPrefix(r, KindModularMessage); err != nil {
		return req, err
	}
	req.Chain, _ = r.Uint16()
	req.Address, _ = r.Bytes32()
	req.Sequence, _ = r.Uint64()
	n, _ := r.Uint32()
	if uint64(r.Len()) != uint64(n) {
		return req, tbrerrors.NewMalformedMessageError(
			fmt.Sprintf("ERM1 payload length %d does not match remaining %d bytes", n, r.Len()), nil)
	}
	req.Payload = r.Rest()
	return req, nil
}

func ParseNTTv1Request(b []byte) (NTTv1Request, error) {
	var req NTTv1Request
	if err := exactLen(KindNTTv1, b, NTTv1RequestLen); err != nil {
		return req, err
	}
	r := codec.NewReader(string(KindNTTv1), b)
	if err := checkPrefix(r, KindNTTv1); err != nil {
		return req, err
	}
	req.SrcChain, _ = r.Uint16()
	req.SrcManager, _ = r.Bytes32()
	req.MessageID, _ = r.Bytes32()
	return req, nil
}
