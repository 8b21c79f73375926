// Package host is the local runtime that owns account buffers and feeds
// calls to the record store program.
//
// The program itself only sees an exclusive, writable view of one buffer.
// Everything around that view lives here:
//   - Allocating zeroed, fixed-capacity accounts owned by the program
//   - Serializing calls (one writer at a time)
//   - Running each call against a copy of the buffer and committing the
//     copy together with its log entry, or discarding it
//   - Logging every call, failed calls included, to the ledger
//
// A failed call leaves the stored buffer byte-for-byte unchanged.
package host
