package executor

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

// Relay instruction type bytes.
const (
	TypeGas        uint8 = 1
	TypeGasDropOff uint8 = 2
)

const u128Len = 16

// RelayInstruction tells the executor how to deliver on the destination.
type RelayInstruction interface {
	Type() uint8
	encode(w *codec.Writer) error
}

// GasInstruction requests a gas limit and a native value for the call.
type GasInstruction struct {
	GasLimit *uint256.Int
	MsgValue *uint256.Int
}

func (GasInstruction) Type() uint8 { return TypeGas }

func (g GasInstruction) encode(w *codec.Writer) error {
	if err := writeU128(w, g.GasLimit); err != nil {
		return err
	}
	return writeU128(w, g.MsgValue)
}

// GasDropOffInstruction sends native currency to a recipient on delivery.
type GasDropOffInstruction struct {
	DropOff   *uint256.Int
	Recipient [32]byte
}

func (GasDropOffInstruction) Type() uint8 { return TypeGasDropOff }

func (d GasDropOffInstruction) encode(w *codec.Writer) error {
	if err := writeU128(w, d.DropOff); err != nil {
		return err
	}
	w.Bytes32(d.Recipient)
	return nil
}

func writeU128(w *codec.Writer, v *uint256.Int) error {
	if v == nil {
		v = new(uint256.Int)
	}
	if v.BitLen() > 128 {
		return tbrerrors.NewValidationError("", fmt.Sprintf("value %s exceeds u128", v.Dec()))
	}
	word := v.Bytes32()
	w.Bytes(word[32-u128Len:])
	return nil
}

func readU128(r *codec.Reader) (*uint256.Int, error) {
	b, err := r.Bytes(u128Len)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}

// EncodeRelayInstructions concatenates the instructions, each prefixed by
// its type byte.
func EncodeRelayInstructions(instructions ...RelayInstruction) ([]byte, error) {
	w := codec.NewWriter(len(instructions) * (1 + 2*u128Len + 16))
	for _, ix := range instructions {
		w.Uint8(ix.Type())
		if err := ix.encode(w); err != nil {
			return nil, err
		}
	}
	return w.Result(), nil
}

// ParseRelayInstructions decodes a concatenation of relay instructions.
// An empty input is an empty list.
func ParseRelayInstructions(b []byte) ([]RelayInstruction, error) {
	r := codec.NewReader("relay instructions", b)
	var out []RelayInstruction
	for r.Len() > 0 {
		typ, _ := r.Uint8()
		switch typ {
		case TypeGas:
			limit, err := readU128(r)
			if err != nil {
				return nil, err
			}
			value, err := readU128(r)
			if err != nil {
				return nil, err
			}
			out = append(out, GasInstruction{GasLimit: limit, MsgValue: value})
		case TypeGasDropOff:
			dropOff, err := readU128(r)
			if err != nil {
				return nil, err
			}
			recipient, err := r.Bytes32()
			if err != nil {
				return nil, err
			}
			out = append(out, GasDropOffInstruction{DropOff: dropOff, Recipient: recipient})
		default:
			return nil, tbrerrors.NewMalformedMessageError(fmt.Sprintf("unknown relay instruction type %d", typ), nil)
		}
	}
	return out, nil
}

// TotalGas sums the gas limits and message values of every gas instruction.
func TotalGas(instructions []RelayInstruction) (gasLimit, msgValue *uint256.Int) {
	gasLimit, msgValue = new(uint256.Int), new(uint256.Int)
	for _, ix := range instructions {
		if g, ok := ix.(GasInstruction); ok {
			if g.GasLimit != nil {
				gasLimit.Add(gasLimit, g.GasLimit)
			}
			if g.MsgValue != nil {
				msgValue.Add(msgValue, g.MsgValue)
			}
		}
	}
	return gasLimit, msgValue
}
