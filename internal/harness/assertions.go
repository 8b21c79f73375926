package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s by %s %v -> %s\n", event.Seq, event.Action, event.Caller, event.Args, event.OutputCase)
		}
	}

	return buf.String()
}

// assertFinalState checks the record count of the final store.
func assertFinalState(result *Result, assertion Assertion) error {
	if result.State == nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("count %d", *assertion.Count),
			Actual:   "board is not initialized",
			Trace:    result.Trace,
		}
	}
	if result.State.Count != uint64(*assertion.Count) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("count %d", *assertion.Count),
			Actual:   fmt.Sprintf("count %d", result.State.Count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertRecord checks fields of one record (subset match).
func assertRecord(result *Result, assertion Assertion) error {
	index := *assertion.Index
	if result.State == nil || index >= len(result.State.Records) {
		count := 0
		if result.State != nil {
			count = len(result.State.Records)
		}
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record at index %d", index),
			Actual:   fmt.Sprintf("store has %d records", count),
			Trace:    result.Trace,
		}
	}

	rec := result.State.Records[index]
	actual := map[string]any{
		"link":  rec.Link,
		"owner": rec.Owner,
		"vote":  rec.Vote,
	}
	for _, key := range []string{"link", "owner", "vote"} {
		want, ok := assertion.Expect[key]
		if !ok {
			continue
		}
		if !valuesEqual(actual[key], want) {
			return &AssertionError{
				Type:     AssertRecord,
				Expected: fmt.Sprintf("record[%d].%s = %v", index, key, want),
				Actual:   fmt.Sprintf("record[%d].%s = %v", index, key, actual[key]),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// assertTraceContains checks if the trace contains a call matching
// the specified action and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Action == assertion.Action && matchArgs(event.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with args %v", assertion.Action, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed).
// A repeated action matches its next occurrence after the previous match.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Actions {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Action == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual:   fmt.Sprintf("no %s after position %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the action appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Action == assertion.Action {
			count++
		}
	}

	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// matchArgs checks if actual args contain all expected args (subset match).
// Extra keys in actual are ignored.
func matchArgs(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, exists := actual[key]
		if !exists || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFinalState:
			err = assertFinalState(result, assertion)
		case AssertRecord:
			err = assertRecord(result, assertion)
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
