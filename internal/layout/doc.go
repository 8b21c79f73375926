// Package layout defines the in-buffer encoding of a RecordStore.
//
// An account buffer has a fixed capacity chosen by the host when the account
// is created. Nothing in this package ever grows a buffer: every write goes
// through a bounds-checked Region and fails with *CapacityError instead.
//
// # Layout
//
// All integers are little-endian.
//
//	offset  size  field
//	0       8     account discriminator, sha256("account:RecordStore")[:8]
//	8       8     count (u64)
//	16      4     record vector length (u32)
//	20      ...   records
//	...     ...   zero padding up to capacity
//
// Each record is encoded as:
//
//	u32 link length | link bytes | owner (32 bytes) | vote (i32)
//
// The encoding is self-describing: Decode reconstructs count and reads exactly
// count records, then requires the remaining bytes to be zero. Because of
// that, Encode(Decode(buf), len(buf)) reproduces buf exactly.
package layout
