package vaa

import (
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

const (
	supportedVersion = 1
	signatureLen     = 66 // guardian index u8 + secp256k1 signature [65]
)

// Signed is the outer envelope as published by guardians. Only the shape
// is decoded; signatures are not checked here.
type Signed struct {
	Version          uint8
	GuardianSetIndex uint32
	Signatures       int
	Body             Body
}

// ParseSigned splits a signed VAA into its header and Body.
func ParseSigned(raw []byte) (*Signed, error) {
	r := codec.NewReader("signed vaa", raw)

	version, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	if version != supportedVersion {
		return nil, tbrerrors.NewMalformedMessageError("unsupported vaa version", nil).WithContext("version", version)
	}
	gsIndex, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	numSigs, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(int(numSigs) * signatureLen); err != nil {
		return nil, err
	}
	body, err := ParseBody(r.Rest())
	if err != nil {
		return nil, err
	}
	return &Signed{
		Version:          version,
		GuardianSetIndex: gsIndex,
		Signatures:       int(numSigs),
		Body:             body,
	}, nil
}
