package layout

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/roach88/gifboard/internal/ir"
)

// Encoded sizes of the fixed parts of the layout.
const (
	DiscriminatorSize = 8
	countSize         = 8
	vecLenSize        = 4

	// MinSize is the encoded size of an empty RecordStore.
	MinSize = DiscriminatorSize + countSize + vecLenSize

	// recordFixedSize is the size of a record excluding its link bytes.
	recordFixedSize = 4 + ir.IdentitySize + 4
)

// Discriminator tags a buffer as holding a RecordStore.
var Discriminator = discriminator("account:RecordStore")

func discriminator(name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte(name))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// RecordSize returns the encoded size of r.
func RecordSize(r ir.Record) int {
	return recordFixedSize + len(r.Link)
}

// Size returns the encoded size of s, excluding padding.
func Size(s ir.RecordStore) int {
	n := MinSize
	for _, r := range s.Records {
		n += RecordSize(r)
	}
	return n
}

// Encode returns exactly capacity bytes: the canonical encoding of s
// followed by zero padding. It fails with *CapacityError when Size(s)
// exceeds capacity.
func Encode(s ir.RecordStore, capacity int) ([]byte, error) {
	if s.Count != uint64(len(s.Records)) {
		return nil, fmt.Errorf("encode: count %d does not match %d records", s.Count, len(s.Records))
	}
	if need := Size(s); need > capacity {
		return nil, &CapacityError{Need: need, Capacity: capacity}
	}

	buf := make([]byte, capacity)
	if err := EncodeInto(NewRegion(buf), s); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeInto writes the canonical encoding of s into r.
// On error the region holds a partial encoding; callers that need
// all-or-nothing behaviour encode into scratch space first.
func EncodeInto(r *Region, s ir.RecordStore) error {
	if len(s.Records) > int(^uint32(0)) {
		return fmt.Errorf("encode: %d records exceed vector limit", len(s.Records))
	}
	if err := r.PutBytes(Discriminator[:]); err != nil {
		return err
	}
	if err := r.PutU64(s.Count); err != nil {
		return err
	}
	if err := r.PutU32(uint32(len(s.Records))); err != nil {
		return err
	}
	for _, rec := range s.Records {
		if err := r.PutString(rec.Link); err != nil {
			return err
		}
		if err := r.PutIdentity(rec.Owner); err != nil {
			return err
		}
		if err := r.PutI32(rec.Vote); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses buf as a RecordStore. It fails with *DecodeError when the
// discriminator does not match, when count disagrees with the vector length,
// when any length runs past the buffer, or when the padding after the last
// record is not zero.
func Decode(buf []byte) (ir.RecordStore, error) {
	var s ir.RecordStore
	rd := NewReader(buf)

	disc, err := rd.Bytes(DiscriminatorSize, "discriminator")
	if err != nil {
		return s, err
	}
	if !bytes.Equal(disc, Discriminator[:]) {
		reason := "discriminator mismatch"
		if IsZeroed(buf) {
			reason = "account is not initialized"
		}
		return s, &DecodeError{Offset: 0, Reason: reason}
	}

	count, err := rd.U64("count")
	if err != nil {
		return s, err
	}
	n, err := rd.U32("record vector length")
	if err != nil {
		return s, err
	}
	if uint64(n) != count {
		return s, &DecodeError{Offset: DiscriminatorSize, Reason: fmt.Sprintf("count %d does not match vector length %d", count, n)}
	}
	// Every record needs at least recordFixedSize bytes.
	if uint64(n)*recordFixedSize > uint64(rd.Remaining()) {
		return s, &DecodeError{Offset: DiscriminatorSize + countSize, Reason: fmt.Sprintf("vector length %d exceeds buffer", n)}
	}

	s.Count = count
	s.Records = make([]ir.Record, 0, n)
	for i := uint32(0); i < n; i++ {
		what := fmt.Sprintf("record %d", i)
		link, err := rd.String(what + " link")
		if err != nil {
			return ir.RecordStore{}, err
		}
		owner, err := rd.Identity(what + " owner")
		if err != nil {
			return ir.RecordStore{}, err
		}
		vote, err := rd.I32(what + " vote")
		if err != nil {
			return ir.RecordStore{}, err
		}
		s.Records = append(s.Records, ir.Record{Link: link, Owner: owner, Vote: vote})
	}

	if off := rd.Offset(); !IsZeroed(rd.Rest()) {
		return ir.RecordStore{}, &DecodeError{Offset: off, Reason: "non-zero bytes after last record"}
	}
	return s, nil
}

// IsZeroed reports whether every byte of buf is zero.
func IsZeroed(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
