// Package binary encodes the fixed size little endian layouts used by
// on-chain account state.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// optionTagSize is the width of the tag preceding COption fields.
const optionTagSize = 4

// Writer fills a fixed size buffer front to back. Absent optional values
// are left zeroed.
type Writer struct {
	buf []byte
	off int
}

func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, size)}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Key(key ed25519.PublicKey) {
	copy(w.next(ed25519.PublicKeySize), key)
}

func (w *Writer) OptionalKey(key ed25519.PublicKey) {
	w.tag(len(key) > 0)
	w.Key(key)
}

func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.next(8), v)
}

func (w *Writer) OptionalUint64(v *uint64) {
	w.tag(v != nil)
	if v == nil {
		w.next(8)
		return
	}
	w.Uint64(*v)
}

func (w *Writer) Uint8(v uint8) {
	w.next(1)[0] = v
}

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

func (w *Writer) tag(present bool) {
	if present {
		binary.LittleEndian.PutUint32(w.next(optionTagSize), 1)
	} else {
		w.next(optionTagSize)
	}
}

func (w *Writer) next(n int) []byte {
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b
}

// Reader consumes a buffer produced by Writer. Callers check the buffer
// size up front.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Key() ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, r.next(ed25519.PublicKeySize))
	return key
}

func (r *Reader) OptionalKey() ed25519.PublicKey {
	if !r.tag() {
		r.next(ed25519.PublicKeySize)
		return nil
	}
	return r.Key()
}

func (r *Reader) Uint64() uint64 {
	return binary.LittleEndian.Uint64(r.next(8))
}

func (r *Reader) OptionalUint64() *uint64 {
	if !r.tag() {
		r.next(8)
		return nil
	}
	v := r.Uint64()
	return &v
}

func (r *Reader) Uint8() uint8 {
	return r.next(1)[0]
}

func (r *Reader) Bool() bool {
	return r.Uint8() == 1
}

func (r *Reader) tag() bool {
	return r.next(optionTagSize)[0] == 1
}

func (r *Reader) next(n int) []byte {
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}
