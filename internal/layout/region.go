package layout

import (
	"encoding/binary"

	"github.com/roach88/gifboard/internal/ir"
)

// Region is a fixed-size byte region with a write cursor.
// Writes past the end fail with *CapacityError and leave the cursor where it
// was; the region never grows.
type Region struct {
	buf []byte
	off int
}

// NewRegion wraps buf. The capacity of the region is len(buf).
func NewRegion(buf []byte) *Region {
	return &Region{buf: buf}
}

// Len returns the number of bytes written so far.
func (r *Region) Len() int { return r.off }

// Cap returns the fixed capacity of the region.
func (r *Region) Cap() int { return len(r.buf) }

// Bytes returns the written prefix.
func (r *Region) Bytes() []byte { return r.buf[:r.off] }

// reserve returns the next n bytes and advances the cursor.
func (r *Region) reserve(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, &CapacityError{Need: r.off + n, Capacity: len(r.buf)}
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// PutBytes writes p verbatim.
func (r *Region) PutBytes(p []byte) error {
	b, err := r.reserve(len(p))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

// PutU32 writes v as 4 little-endian bytes.
func (r *Region) PutU32(v uint32) error {
	b, err := r.reserve(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// PutU64 writes v as 8 little-endian bytes.
func (r *Region) PutU64(v uint64) error {
	b, err := r.reserve(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	return nil
}

// PutI32 writes v in two's complement as 4 little-endian bytes.
func (r *Region) PutI32(v int32) error {
	return r.PutU32(uint32(v))
}

// PutString writes a u32 length prefix followed by the bytes of s.
// The whole string is checked against capacity before anything is written.
func (r *Region) PutString(s string) error {
	if uint64(len(s)) > uint64(^uint32(0)) {
		return &CapacityError{Need: r.off + 4 + len(s), Capacity: len(r.buf)}
	}
	if r.off+4+len(s) > len(r.buf) {
		return &CapacityError{Need: r.off + 4 + len(s), Capacity: len(r.buf)}
	}
	if err := r.PutU32(uint32(len(s))); err != nil {
		return err
	}
	b, err := r.reserve(len(s))
	if err != nil {
		return err
	}
	copy(b, s)
	return nil
}

// PutIdentity writes the 32 raw bytes of id.
func (r *Region) PutIdentity(id ir.Identity) error {
	return r.PutBytes(id[:])
}

// Reader is the bounds-checked read side of a Region.
// Reads past the end fail with *DecodeError.
type Reader struct {
	buf []byte
	off int
}

// NewReader reads from buf starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Rest returns the unread bytes without consuming them.
func (r *Reader) Rest() []byte { return r.buf[r.off:] }

func (r *Reader) take(n int, what string) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, &DecodeError{Offset: r.off, Reason: what + ": unexpected end of buffer"}
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int, what string) ([]byte, error) {
	return r.take(n, what)
}

// U32 reads 4 little-endian bytes.
func (r *Reader) U32(what string) (uint32, error) {
	b, err := r.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads 8 little-endian bytes.
func (r *Reader) U64(what string) (uint64, error) {
	b, err := r.take(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// I32 reads a two's complement int32.
func (r *Reader) I32(what string) (int32, error) {
	v, err := r.U32(what)
	return int32(v), err
}

// String reads a u32 length prefix followed by that many bytes.
// The length is checked against the remaining buffer before allocating.
func (r *Reader) String(what string) (string, error) {
	start := r.off
	n, err := r.U32(what + " length")
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.off = start
		return "", &DecodeError{Offset: start, Reason: what + ": length exceeds buffer"}
	}
	b, err := r.take(int(n), what)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Identity reads 32 raw bytes.
func (r *Reader) Identity(what string) (ir.Identity, error) {
	var id ir.Identity
	b, err := r.take(ir.IdentitySize, what)
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}
