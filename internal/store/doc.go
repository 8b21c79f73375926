// Package store provides the SQLite-backed ledger of the local host runtime.
//
// The ledger holds two things:
//   - Accounts: fixed-capacity buffers owned by a program
//   - Transactions: an append-only log of every call, successful or not
//
// # Invariants
//
//   - An account's data is always exactly its declared space; the ledger
//     never resizes a buffer
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//   - Every query returning transactions uses ORDER BY seq ASC
//   - A failed call is logged but never changes account data
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
