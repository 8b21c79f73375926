package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gifboard/internal/program"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
flow:
  - invoke: initialize
    caller: alice
  - invoke: append
    caller: alice
    args: { link: "http://a" }
    expect:
      case: Success
      result: { index: 0 }
assertions:
  - type: final_state
    count: 1
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "test_scenario", s.Name)
	assert.Equal(t, DefaultSpace, s.Space)
	require.Len(t, s.Flow, 2)
	assert.Equal(t, "append", s.Flow[1].Invoke)
	assert.Equal(t, "Success", s.Flow[1].Expect.Case)
	require.NotNil(t, s.Assertions[0].Count)
	assert.Equal(t, 1, *s.Assertions[0].Count)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "d"
flow:
  - invoke: initialize
    caller: alice
assertion:
  - type: final_state
    count: 0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nflow: [{invoke: initialize, caller: a}]\nassertions: [{type: final_state, count: 0}]",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nflow: [{invoke: initialize, caller: a}]\nassertions: [{type: final_state, count: 0}]",
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: n\ndescription: d\nassertions: [{type: final_state, count: 0}]",
			wantErr: "flow list is required",
		},
		{
			name:    "empty assertions",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: initialize, caller: a}]",
			wantErr: "assertions list is required",
		},
		{
			name:    "missing caller",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: initialize}]\nassertions: [{type: final_state, count: 0}]",
			wantErr: "flow[0]: caller is required",
		},
		{
			name:    "unknown instruction",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: delete, caller: a}]\nassertions: [{type: final_state, count: 0}]",
			wantErr: `unknown instruction "delete"`,
		},
		{
			name:    "append without link",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: append, caller: a}]\nassertions: [{type: final_state, count: 0}]",
			wantErr: "link must be a string",
		},
		{
			name:    "negative index",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: adjust_vote, caller: a, args: {index: -1, delta: 1}}]\nassertions: [{type: final_state, count: 0}]",
			wantErr: "index -1 out of range",
		},
		{
			name:    "delta beyond int32",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: adjust_vote, caller: a, args: {index: 0, delta: 2147483648}}]\nassertions: [{type: final_state, count: 0}]",
			wantErr: "delta 2147483648 out of range",
		},
		{
			name:    "unexpected argument",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: initialize, caller: a, args: {link: x}}]\nassertions: [{type: final_state, count: 0}]",
			wantErr: `unexpected argument "link"`,
		},
		{
			name:    "expect without case",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: initialize, caller: a, expect: {result: {count: 0}}}]\nassertions: [{type: final_state, count: 0}]",
			wantErr: "flow[0].expect: case is required",
		},
		{
			name:    "final_state without count",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: initialize, caller: a}]\nassertions: [{type: final_state}]",
			wantErr: "count is required for final_state",
		},
		{
			name:    "record without expect",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: initialize, caller: a}]\nassertions: [{type: record, index: 0}]",
			wantErr: "expect is required for record",
		},
		{
			name:    "record with unknown field",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: initialize, caller: a}]\nassertions: [{type: record, index: 0, expect: {score: 1}}]",
			wantErr: `unknown record field "score"`,
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\nflow: [{invoke: initialize, caller: a}]\nassertions: [{type: magic}]",
			wantErr: `unknown assertion type "magic"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFlowStep_Instruction(t *testing.T) {
	ix, err := FlowStep{Invoke: "initialize"}.Instruction()
	require.NoError(t, err)
	assert.Equal(t, program.Initialize{}, ix)

	ix, err = FlowStep{Invoke: "append", Args: map[string]any{"link": "http://a"}}.Instruction()
	require.NoError(t, err)
	assert.Equal(t, program.Append{Link: "http://a"}, ix)

	ix, err = FlowStep{Invoke: "adjust_vote", Args: map[string]any{"index": 4294967295, "delta": -2147483648}}.Instruction()
	require.NoError(t, err)
	assert.Equal(t, program.AdjustVote{Index: 4294967295, Delta: -2147483648}, ix)

	_, err = FlowStep{Invoke: "adjust_vote", Args: map[string]any{"index": "zero", "delta": 1}}.Instruction()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index must be an integer")
}

func TestLoadScenario_Fixtures(t *testing.T) {
	matches, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	for _, path := range matches {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}
