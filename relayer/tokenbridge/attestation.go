package tokenbridge

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
)

// AttestationLen is the fixed size of an attestation body, discriminant excluded.
const AttestationLen = 99

const (
	offAttestTokenAddress = 0
	offAttestTokenChain   = 32
	offAttestDecimals     = 34
	offAttestSymbol       = 35
	offAttestName         = 67
)

// Attestation is payload 2: token metadata registration.
type Attestation struct {
	span []byte
}

// ParseAttestation requires at least AttestationLen bytes and ignores any excess.
func ParseAttestation(span []byte) (Attestation, error) {
	if err := codec.CheckLen("attestation", span, AttestationLen); err != nil {
		return Attestation{}, err
	}
	return Attestation{span: span[:AttestationLen]}, nil
}

func (a Attestation) TokenAddress() [32]byte { return codec.Bytes32At(a.span, offAttestTokenAddress) }

func (a Attestation) TokenChain() uint16 { return codec.Uint16At(a.span, offAttestTokenChain) }

func (a Attestation) Decimals() uint8 { return a.span[offAttestDecimals] }

// Symbol is display data: trailing zero bytes are dropped and invalid
// UTF-8 is replaced, never rejected.
func (a Attestation) Symbol() string {
	return fixedString(a.span[offAttestSymbol : offAttestSymbol+32])
}

// Name is decoded like Symbol.
func (a Attestation) Name() string { return fixedString(a.span[offAttestName : offAttestName+32]) }

func (a Attestation) Bytes() []byte { return a.span }

// fixedString decodes a zero-padded 32-byte field. Each maximal invalid
// subsequence becomes one U+FFFD and interior NULs are dropped.
func fixedString(field []byte) string {
	field = bytes.TrimRight(field, "\x00")
	var sb strings.Builder
	for len(field) > 0 {
		r, size := utf8.DecodeRune(field)
		if r == utf8.RuneError && size == 1 {
			size = invalidPrefixLen(field)
		}
		field = field[size:]
		if r == 0 {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// invalidPrefixLen returns the length of the maximal subpart at the start of
// b: a lead byte plus the continuation bytes that could still have completed
// it. Unicode 3.9 table 3-7 gives the allowed second-byte ranges.
func invalidPrefixLen(b []byte) int {
	lead := b[0]
	lo, hi := byte(0x80), byte(0xBF)
	var need int
	switch {
	case lead >= 0xC2 && lead <= 0xDF:
		need = 1
	case lead == 0xE0:
		need, lo = 2, 0xA0
	case lead == 0xED:
		need, hi = 2, 0x9F
	case lead >= 0xE1 && lead <= 0xEF:
		need = 2
	case lead == 0xF0:
		need, lo = 3, 0x90
	case lead == 0xF4:
		need, hi = 3, 0x8F
	case lead >= 0xF1 && lead <= 0xF3:
		need = 3
	default:
		return 1
	}
	n := 1
	for ; n <= need && n < len(b); n++ {
		c := b[n]
		if n == 1 && (c < lo || c > hi) {
			break
		}
		if n > 1 && (c < 0x80 || c > 0xBF) {
			break
		}
	}
	return n
}

// AttestationFields builds an attestation payload. Symbol and Name are
// truncated to 32 bytes.
type AttestationFields struct {
	TokenAddress [32]byte
	TokenChain   uint16
	Decimals     uint8
	Symbol       string
	Name         string
}

// Encode returns the payload including its discriminant byte.
func (f AttestationFields) Encode() []byte {
	var symbol, name [32]byte
	copy(symbol[:], f.Symbol)
	copy(name[:], f.Name)
	return codec.NewWriter(1 + AttestationLen).
		Uint8(uint8(KindAttestation)).
		Bytes32(f.TokenAddress).
		Uint16(f.TokenChain).
		Uint8(f.Decimals).
		Bytes32(symbol).
		Bytes32(name).
		Result()
}
