package codec

import (
	"encoding/binary"
)

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Writer appends fixed-width fields to a growing buffer.
type Writer struct {
	buf   []byte
	order byteOrder
}

// NewWriter returns a big-endian writer.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint), order: binary.BigEndian}
}

// NewLEWriter returns a little-endian writer for Borsh encoded data.
func NewLEWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint), order: binary.LittleEndian}
}

func (w *Writer) Uint8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.Uint8(1)
	}
	return w.Uint8(0)
}

func (w *Writer) Uint16(v uint16) *Writer {
	w.buf = w.order.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) Uint32(v uint32) *Writer {
	w.buf = w.order.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) Uint64(v uint64) *Writer {
	w.buf = w.order.AppendUint64(w.buf, v)
	return w
}

func (w *Writer) Bytes32(v [32]byte) *Writer {
	w.buf = append(w.buf, v[:]...)
	return w
}

func (w *Writer) Bytes(v []byte) *Writer {
	w.buf = append(w.buf, v...)
	return w
}

// Vec writes a Borsh Vec<u8>: a u32 length prefix in the writer's byte
// order followed by the bytes.
func (w *Writer) Vec(v []byte) *Writer {
	return w.Uint32(uint32(len(v))).Bytes(v)
}

// Result returns the encoded bytes.
func (w *Writer) Result() []byte {
	return w.buf
}
