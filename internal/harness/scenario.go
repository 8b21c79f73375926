package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gifboard/internal/program"
)

// DefaultSpace is the board size used when a scenario does not set one.
const DefaultSpace = 9000

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also seeds the board address
	// and names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Space is the board buffer size in bytes. Defaults to DefaultSpace.
	Space int `yaml:"space,omitempty"`

	// Flow contains the calls to execute, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is one call.
type FlowStep struct {
	// Invoke is the instruction name: initialize, append or adjust_vote.
	Invoke string `yaml:"invoke"`

	// Caller is the wallet name of the signer.
	Caller string `yaml:"caller"`

	// Args contains the instruction arguments.
	// append takes link; adjust_vote takes index and delta.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the call must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected call behavior.
type ExpectClause struct {
	// Case is the expected output case (e.g., "Success", "IndexOutOfRange").
	Case string `yaml:"case"`

	// Result contains expected result field values.
	// This is a subset match - only specified fields are validated.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is the instruction name (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are the expected instruction arguments (trace_contains).
	// Subset match - only specified fields are validated.
	Args map[string]any `yaml:"args,omitempty"`

	// Count is the expected record count (final_state) or number of
	// occurrences (trace_count).
	Count *int `yaml:"count,omitempty"`

	// Index selects the record (record).
	Index *int `yaml:"index,omitempty"`

	// Expect contains expected record fields: link, owner, vote (record).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Actions is the expected instruction order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertRecord        = "record"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Space == 0 {
		scenario.Space = DefaultSpace
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Space < 0 {
		return fmt.Errorf("space must be non-negative, got %d", s.Space)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if step.Caller == "" {
			return fmt.Errorf("flow[%d]: caller is required", i)
		}
		if _, err := step.Instruction(); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for final_state", index)
		}
	case AssertRecord:
		if a.Index == nil || *a.Index < 0 {
			return fmt.Errorf("assertions[%d]: non-negative index is required for record", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record", index)
		}
		for key := range a.Expect {
			if key != "link" && key != "owner" && key != "vote" {
				return fmt.Errorf("assertions[%d]: unknown record field %q", index, key)
			}
		}
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// Instruction converts the step into a program instruction.
func (s FlowStep) Instruction() (program.Instruction, error) {
	switch s.Invoke {
	case program.InstructionInitialize:
		if err := onlyArgs(s.Args); err != nil {
			return nil, err
		}
		return program.Initialize{}, nil

	case program.InstructionAppend:
		if err := onlyArgs(s.Args, "link"); err != nil {
			return nil, err
		}
		link, ok := s.Args["link"].(string)
		if !ok {
			return nil, fmt.Errorf("append: link must be a string")
		}
		return program.Append{Link: link}, nil

	case program.InstructionAdjustVote:
		if err := onlyArgs(s.Args, "index", "delta"); err != nil {
			return nil, err
		}
		index, err := intArg(s.Args, "index", 0, 1<<32-1)
		if err != nil {
			return nil, err
		}
		delta, err := intArg(s.Args, "delta", -1<<31, 1<<31-1)
		if err != nil {
			return nil, err
		}
		return program.AdjustVote{Index: uint32(index), Delta: int32(delta)}, nil

	case "":
		return nil, fmt.Errorf("invoke is required")
	default:
		return nil, fmt.Errorf("unknown instruction %q", s.Invoke)
	}
}

func onlyArgs(args map[string]any, allowed ...string) error {
	for key := range args {
		found := false
		for _, a := range allowed {
			if key == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unexpected argument %q", key)
		}
	}
	return nil
}

func intArg(args map[string]any, key string, lo, hi int64) (int64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, ok := toInt64(raw)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer, got %T", key, raw)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s %d out of range [%d, %d]", key, n, lo, hi)
	}
	return n, nil
}

// toInt64 accepts the integer types produced by yaml.v3 and by Go literals.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		if n > 1<<63-1 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
