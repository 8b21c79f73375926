// Package ir provides the canonical value types for gifboard.
//
// This package contains type definitions and identity helpers only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Vote tallies are fixed-width int32; counts are uint64
//   - Identities are opaque 32-byte references, never re-verified
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
