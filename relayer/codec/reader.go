// Package codec provides bounds-checked cursors over byte spans and the
// matching writer. Wire formats (VAA bodies, token bridge payloads,
// execution requests) are big-endian; Borsh account layouts are
// little-endian.
package codec

import (
	"encoding/binary"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

// Reader is a forward-only cursor over a caller-owned span. Reads never
// copy fixed-size arrays out of bounds and never panic: a short read
// returns a TruncatedInput error and leaves the cursor where it was.
type Reader struct {
	what  string
	span  []byte
	off   int
	order binary.ByteOrder
}

// NewReader returns a big-endian reader. what names the structure being
// decoded and shows up in error messages.
func NewReader(what string, span []byte) *Reader {
	return &Reader{what: what, span: span, order: binary.BigEndian}
}

// NewLEReader returns a little-endian reader for Borsh encoded data.
func NewLEReader(what string, span []byte) *Reader {
	return &Reader{what: what, span: span, order: binary.LittleEndian}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.span) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, tbrerrors.NewTruncatedInputError(r.what, r.off+n, len(r.span))
	}
	b := r.span[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool reads a Borsh bool.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	return v != 0, err
}

// Uint16 reads two bytes.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// Uint32 reads four bytes.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

// Uint64 reads eight bytes.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

// Bytes32 reads a fixed 32-byte array.
func (r *Reader) Bytes32() ([32]byte, error) {
	var out [32]byte
	b, err := r.take(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// Bytes returns the next n bytes without copying.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

// Vec reads a Borsh Vec<u8>: a u32 length prefix followed by that many bytes.
func (r *Reader) Vec() ([]byte, error) {
	start := r.off
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		r.off = start
		return nil, err
	}
	return b, nil
}

// Rest returns every unread byte without copying. It never fails.
func (r *Reader) Rest() []byte {
	b := r.span[r.off:]
	r.off = len(r.span)
	return b
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// Require fails unless at least n unread bytes remain.
func (r *Reader) Require(n int) error {
	if r.Len() < n {
		return tbrerrors.NewTruncatedInputError(r.what, r.off+n, len(r.span))
	}
	return nil
}

// Fixed-offset accessors for view types. They assume the caller validated
// the span length once at construction and are used by zero-copy views.

// Uint16At reads a big-endian u16 at off.
func Uint16At(span []byte, off int) uint16 { return binary.BigEndian.Uint16(span[off : off+2]) }

// Uint32At reads a big-endian u32 at off.
func Uint32At(span []byte, off int) uint32 { return binary.BigEndian.Uint32(span[off : off+4]) }

// Uint64At reads a big-endian u64 at off.
func Uint64At(span []byte, off int) uint64 { return binary.BigEndian.Uint64(span[off : off+8]) }

// Bytes32At copies the 32-byte array at off.
func Bytes32At(span []byte, off int) [32]byte {
	var out [32]byte
	copy(out[:], span[off:off+32])
	return out
}

// CheckLen fails with TruncatedInput if span is shorter than min.
func CheckLen(what string, span []byte, min int) error {
	if len(span) < min {
		return tbrerrors.NewTruncatedInputError(what, min, len(span))
	}
	return nil
}
