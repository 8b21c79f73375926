package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/gifboard/internal/host"
	"github.com/roach88/gifboard/internal/ir"
	"github.com/roach88/gifboard/internal/program"
	"github.com/roach88/gifboard/internal/store"
	"github.com/roach88/gifboard/internal/testutil"
)

// ProgramName seeds the program identity used by every scenario.
const ProgramName = "gifboard-harness"

// Harness is the test execution engine.
// It runs one scenario against a fresh runtime with a deterministic clock.
type Harness struct {
	runtime *host.Runtime
	store   *store.Store
	wallets *testutil.Wallets
	board   ir.Identity
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and runtime
// 2. Allocate a zeroed board of scenario.Space bytes
// 3. Execute flow steps, checking each expect clause
// 4. Decode the final store and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with runtime logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	ctx := context.Background()

	if scenario.Space == 0 {
		sc := *scenario
		sc.Space = DefaultSpace
		scenario = &sc
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	wallets := testutil.NewWallets()
	prog := program.New(wallets.Identity(ProgramName))

	rt, err := host.New(ctx, st, prog,
		host.WithClock(testutil.NewDeterministicClock()),
		host.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}

	h := &Harness{
		runtime: rt,
		store:   st,
		wallets: wallets,
		board:   ir.AccountAddress(prog.ID(), scenario.Name),
		logger:  logger,
	}

	if _, err := rt.CreateAccount(ctx, h.board, scenario.Space); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	if s, err := rt.Load(ctx, h.board); err == nil {
		result.State = h.finalState(s)
	} else {
		h.logger.Info("board did not decode after flow", "error", err)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// executeFlow runs all flow steps and validates expect clauses.
//
// Each step:
// 1. Snapshots the board buffer
// 2. Executes the call through the runtime
// 3. Appends the call to the trace
// 4. Validates the outcome against the expect clause
// 5. For failed calls, checks the buffer is unchanged
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		ix, err := step.Instruction()
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		before, err := h.runtime.Account(ctx, h.board)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		receipt, err := h.runtime.Invoke(ctx, h.board, h.wallets.Identity(step.Caller), ix)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		outputCase := program.OutputCase(receipt.Err)
		result.AddTrace(TraceEvent{
			Seq:        receipt.Seq,
			Action:     receipt.Instruction,
			Caller:     step.Caller,
			Args:       ix.Args(),
			OutputCase: outputCase,
			Result:     receipt.Result,
		})

		expectedCase := program.CaseSuccess
		if step.Expect != nil {
			expectedCase = step.Expect.Case
		}
		if outputCase != expectedCase {
			msg := fmt.Sprintf("flow[%d] %s: expected case %s, got %s", i, step.Invoke, expectedCase, outputCase)
			if receipt.Err != nil {
				msg += fmt.Sprintf(" (%v)", receipt.Err)
			}
			result.AddError(msg)
		} else if step.Expect != nil {
			for key, want := range step.Expect.Result {
				got, ok := receipt.Result[key]
				if !ok || !valuesEqual(got, want) {
					result.AddError(fmt.Sprintf("flow[%d] %s: result %s = %v, expected %v", i, step.Invoke, key, got, want))
				}
			}
		}

		if !receipt.OK() {
			after, err := h.runtime.Account(ctx, h.board)
			if err != nil {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			if !bytes.Equal(before.Data, after.Data) {
				result.AddError(fmt.Sprintf("flow[%d] %s: failed call modified the board", i, step.Invoke))
			}
		}

		h.logger.Info("flow step completed",
			"step", i,
			"action", step.Invoke,
			"caller", step.Caller,
			"output_case", outputCase,
			"seq", receipt.Seq,
		)
	}
	return nil
}

func (h *Harness) finalState(s ir.RecordStore) *FinalState {
	state := &FinalState{
		Count:   s.Count,
		Records: make([]RecordState, len(s.Records)),
	}
	for i, r := range s.Records {
		state.Records[i] = RecordState{
			Link:  r.Link,
			Owner: h.wallets.Name(r.Owner),
			Vote:  r.Vote,
		}
	}
	return state
}

// valuesEqual compares scenario values with runtime values. Integers of any
// width compare by value; everything else uses reflect.DeepEqual.
func valuesEqual(actual, expected any) bool {
	if a, ok := toInt64(actual); ok {
		e, ok := toInt64(expected)
		return ok && a == e
	}
	return reflect.DeepEqual(actual, expected)
}
