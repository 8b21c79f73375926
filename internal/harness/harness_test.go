package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Initialize only",
		Flow: []FlowStep{
			{Invoke: "initialize", Caller: "alice"},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Count: intPtr(0)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, "initialize", result.Trace[0].Action)
	assert.Equal(t, "Success", result.Trace[0].OutputCase)
	assert.Equal(t, int64(2), result.Trace[0].Seq, "seq 1 is the board allocation")

	require.NotNil(t, result.State)
	assert.Equal(t, uint64(0), result.State.Count)
	assert.Empty(t, result.State.Records)
}

func TestRun_UnexpectedCaseFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_case",
		Description: "Voting on an empty board",
		Flow: []FlowStep{
			{Invoke: "initialize", Caller: "alice"},
			{Invoke: "adjust_vote", Caller: "bob", Args: map[string]any{"index": 0, "delta": 1}},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Count: intPtr(0)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected case Success, got IndexOutOfRange")
}

func TestRun_ExpectedFailurePasses(t *testing.T) {
	scenario := &Scenario{
		Name:        "expected_failure",
		Description: "Index out of range is reported and harmless",
		Flow: []FlowStep{
			{Invoke: "initialize", Caller: "alice"},
			{
				Invoke: "adjust_vote",
				Caller: "bob",
				Args:   map[string]any{"index": 0, "delta": 1},
				Expect: &ExpectClause{Case: "IndexOutOfRange"},
			},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Count: intPtr(0)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Nil(t, result.Trace[1].Result)
}

func TestRun_ResultMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "result_mismatch",
		Description: "Wrong expected index",
		Flow: []FlowStep{
			{Invoke: "initialize", Caller: "alice"},
			{
				Invoke: "append",
				Caller: "alice",
				Args:   map[string]any{"link": "x"},
				Expect: &ExpectClause{Case: "Success", Result: map[string]any{"index": 3}},
			},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Count: intPtr(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "result index = 0, expected 3")
}

func TestRun_UninitializedBoard(t *testing.T) {
	scenario := &Scenario{
		Name:        "uninitialized",
		Description: "Append before initialize",
		Flow: []FlowStep{
			{
				Invoke: "append",
				Caller: "alice",
				Args:   map[string]any{"link": "x"},
				Expect: &ExpectClause{Case: "DeserializationFailed"},
			},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: "append", Count: intPtr(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Nil(t, result.State)
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := Run(&Scenario{Name: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/vote_flow.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalSnapshot(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunWithLogger_LogsSteps(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := RunWithLogger(&Scenario{
		Name:        "logged",
		Description: "d",
		Flow:        []FlowStep{{Invoke: "initialize", Caller: "alice"}},
		Assertions:  []Assertion{{Type: AssertFinalState, Count: intPtr(0)}},
	}, logger)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "flow step completed")
	assert.Contains(t, buf.String(), "call committed")
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(uint64(3), 3))
	assert.True(t, valuesEqual(int32(-1), -1))
	assert.False(t, valuesEqual(uint64(3), "3"))
	assert.True(t, valuesEqual("a", "a"))
	assert.False(t, valuesEqual("a", "b"))
}
