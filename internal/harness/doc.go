// Package harness runs gifboard scenarios as executable conformance tests.
//
// A scenario creates one board account, drives it through a flow of
// instructions, and checks the outcome of each call, the trace, and the
// final record store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	space: 9000
//	flow:
//	  - invoke: initialize
//	    caller: alice
//	  - invoke: append
//	    caller: alice
//	    args: { link: "https://example.com/a.gif" }
//	    expect:
//	      case: Success
//	      result: { index: 0 }
//	  - invoke: adjust_vote
//	    caller: bob
//	    args: { index: 0, delta: 1 }
//	assertions:
//	  - type: final_state
//	    count: 1
//	  - type: record
//	    index: 0
//	    expect: { link: "https://example.com/a.gif", owner: alice, vote: 1 }
//
// # Assertion Types
//
//   - final_state: Verifies the record count of the final store
//   - record: Verifies fields of the record at an index (owner by wallet name)
//   - trace_contains: Verifies an instruction appears in the trace with matching args
//   - trace_order: Verifies instructions appear in specified order
//   - trace_count: Verifies an instruction appears exactly N times
//
// # Deterministic Testing
//
// The harness uses:
//   - Wallet identities derived from caller names (testutil.Wallets)
//   - Deterministic logical clock (testutil.DeterministicClock)
//   - In-memory SQLite database (isolated per scenario)
//
// This ensures identical traces across runs for golden file comparison.
//
// Every failed call is also checked to have left the account buffer
// byte-for-byte unchanged.
package harness
