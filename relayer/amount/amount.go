// Package amount converts between host token amounts and the 8-decimal
// amounts carried in token bridge transfers.
package amount

import (
	"fmt"

	"github.com/holiman/uint256"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

// MaxDecimals is the precision of amounts on the wire.
const MaxDecimals = 8

// maxScaleExponent is the largest n with 10^n representable in a u64.
const maxScaleExponent = 19

// scale returns 10^(decimals-8), or false when the factor exceeds u64. Any
// u64 amount is then below one wire unit.
func scale(decimals uint8) (uint64, bool) {
	if decimals <= MaxDecimals {
		return 1, true
	}
	exp := decimals - MaxDecimals
	if exp > maxScaleExponent {
		return 0, false
	}
	f := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(exp)))
	return f.Uint64(), true
}

// Truncate drops the digits beyond MaxDecimals so the escrowed amount is
// exactly what the bridge can represent. Amounts with decimals <= 8 are
// returned unchanged.
func Truncate(amount uint64, decimals uint8) uint64 {
	f, ok := scale(decimals)
	if !ok {
		return 0
	}
	return amount - amount%f
}

// Normalize converts a host amount to its wire representation.
func Normalize(amount uint64, decimals uint8) uint64 {
	f, ok := scale(decimals)
	if !ok {
		return 0
	}
	return amount / f
}

// Denormalize converts a wire amount back to the mint's precision.
func Denormalize(amount uint64, decimals uint8) (uint64, error) {
	f, ok := scale(decimals)
	if !ok {
		if amount == 0 {
			return 0, nil
		}
		return 0, tbrerrors.NewMalformedMessageError(
			fmt.Sprintf("amount %d with %d decimals overflows u64", amount, decimals), nil)
	}
	out, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amount), uint256.NewInt(f))
	if overflow || !out.IsUint64() {
		return 0, tbrerrors.NewMalformedMessageError(
			fmt.Sprintf("amount %d with %d decimals overflows u64", amount, decimals), nil)
	}
	return out.Uint64(), nil
}

// FromWire narrows a 256-bit wire amount to u64.
func FromWire(v *uint256.Int) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if !v.IsUint64() {
		return 0, tbrerrors.NewMalformedMessageError(
			fmt.Sprintf("amount %s does not fit in u64", v.Dec()), nil)
	}
	return v.Uint64(), nil
}

// ToWire widens a u64 amount to the 256-bit wire word.
func ToWire(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}
