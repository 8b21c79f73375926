// Package program implements the three gifboard entry points: Initialize,
// Append and AdjustVote.
//
// Each entry point runs against one account buffer supplied by the host,
// together with the caller's identity. The host guarantees exclusive,
// non-reentrant access for the duration of a call; this package does no
// locking, never blocks, and keeps no reference to the buffer after
// returning.
//
// # Commit discipline
//
// Every entry point decodes the buffer, mutates a copy of the decoded
// store, encodes the result into scratch space of the same capacity and
// only then copies it over the buffer. Any failure returns before the copy,
// so a failed call leaves the buffer byte-for-byte unchanged.
//
// # Voting policy
//
// AdjustVote does not compare the caller with the record's owner. Any
// caller may vote on any record. Vote arithmetic is checked int32 addition;
// a result outside the int32 range fails with VOTE_OVERFLOW rather than
// wrapping or saturating.
//
// The package never logs. Errors are returned to the host as *ProgramError.
package program
