package host

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gifboard/internal/ir"
	"github.com/roach88/gifboard/internal/layout"
	"github.com/roach88/gifboard/internal/program"
	"github.com/roach88/gifboard/internal/store"
	"github.com/roach88/gifboard/internal/testutil"
)

var (
	testProgramID = ir.WalletIdentity("test-program")
	alice         = ir.WalletIdentity("alice")
	bob           = ir.WalletIdentity("bob")
)

func newTestRuntime(t *testing.T, opts ...Option) (*Runtime, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	rt, err := New(context.Background(), st, program.New(testProgramID), opts...)
	require.NoError(t, err)
	return rt, st
}

func newBoard(t *testing.T, rt *Runtime, space int) ir.Identity {
	t.Helper()
	ctx := context.Background()
	addr := ir.AccountAddress(testProgramID, "board-"+t.Name())
	_, err := rt.CreateAccount(ctx, addr, space)
	require.NoError(t, err)

	receipt, err := rt.Invoke(ctx, addr, alice, program.Initialize{})
	require.NoError(t, err)
	require.True(t, receipt.OK(), "initialize failed: %v", receipt.Err)
	return addr
}

func TestCreateAccount_ZeroedAndOwned(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()

	addr := ir.AccountAddress(testProgramID, "board")
	acct, err := rt.CreateAccount(ctx, addr, 128)
	require.NoError(t, err)
	assert.Equal(t, testProgramID, acct.Owner)
	assert.Equal(t, int64(1), acct.CreatedSeq)

	stored, err := rt.Account(ctx, addr)
	require.NoError(t, err)
	assert.True(t, layout.IsZeroed(stored.Data))
	assert.Len(t, stored.Data, 128)
}

func TestCreateAccount_ExistingAddressRejected(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()

	addr := ir.AccountAddress(testProgramID, "board")
	_, err := rt.CreateAccount(ctx, addr, 64)
	require.NoError(t, err)

	_, err = rt.CreateAccount(ctx, addr, 64)
	require.ErrorIs(t, err, store.ErrAccountExists)
}

func TestCreateAccount_NegativeSpace(t *testing.T) {
	rt, _ := newTestRuntime(t)

	_, err := rt.CreateAccount(context.Background(), ir.AccountAddress(testProgramID, "x"), -1)
	assert.Error(t, err)
}

func TestExecute_AppendAndVote(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()
	board := newBoard(t, rt, 9000)

	r, err := rt.Invoke(ctx, board, alice, program.Append{Link: "https://a.gif"})
	require.NoError(t, err)
	require.True(t, r.OK())
	assert.Equal(t, program.InstructionAppend, r.Instruction)
	assert.Equal(t, map[string]any{"index": uint64(0), "count": uint64(1)}, r.Result)

	r, err = rt.Invoke(ctx, board, bob, program.AdjustVote{Index: 0, Delta: 5})
	require.NoError(t, err)
	require.True(t, r.OK())
	assert.Equal(t, map[string]any{"index": uint64(0), "vote": int32(5)}, r.Result)

	s, err := rt.Load(ctx, board)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Count)
	assert.Equal(t, ir.Record{Link: "https://a.gif", Owner: alice, Vote: 5}, s.Records[0])
}

func TestExecute_FailureLeavesBufferUnchanged(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()
	board := newBoard(t, rt, 9000)

	_, err := rt.Invoke(ctx, board, alice, program.Append{Link: "https://a.gif"})
	require.NoError(t, err)

	before, err := rt.Account(ctx, board)
	require.NoError(t, err)

	r, err := rt.Invoke(ctx, board, bob, program.AdjustVote{Index: 7, Delta: 1})
	require.NoError(t, err, "program failures are reported in the receipt")
	assert.False(t, r.OK())
	assert.Equal(t, ir.StatusFailed, r.Status)
	assert.True(t, program.IsIndexError(r.Err))
	assert.Nil(t, r.Result)

	after, err := rt.Account(ctx, board)
	require.NoError(t, err)
	assert.Equal(t, before.Data, after.Data)
}

func TestExecute_CapacityExceededRollsBack(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()
	board := newBoard(t, rt, layout.MinSize+layout.RecordSize(ir.Record{Link: "abc"}))

	r, err := rt.Invoke(ctx, board, alice, program.Append{Link: "abc"})
	require.NoError(t, err)
	require.True(t, r.OK(), "record exactly fills the buffer")

	before, err := rt.Account(ctx, board)
	require.NoError(t, err)

	r, err = rt.Invoke(ctx, board, alice, program.Append{Link: ""})
	require.NoError(t, err)
	assert.True(t, program.IsCapacityError(r.Err))

	after, err := rt.Account(ctx, board)
	require.NoError(t, err)
	assert.Equal(t, before.Data, after.Data)

	s, err := rt.Load(ctx, board)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Count)
}

func TestExecute_UndecodableDataIsLogged(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()
	board := newBoard(t, rt, 256)

	r, err := rt.Execute(ctx, Call{Account: board, Caller: alice, Data: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, InstructionUnknown, r.Instruction)
	assert.True(t, program.IsDeserializationError(r.Err))

	txns, err := rt.Transactions(ctx, board)
	require.NoError(t, err)
	last := txns[len(txns)-1]
	assert.Equal(t, InstructionUnknown, last.Instruction)
	assert.Equal(t, ir.StatusFailed, last.Status)
	assert.Equal(t, string(program.ErrCodeDeserialization), last.ErrorCode)
	assert.Equal(t, "{}", last.Args)
}

func TestExecute_UnknownAccount(t *testing.T) {
	rt, _ := newTestRuntime(t)

	_, err := rt.Invoke(context.Background(), ir.AccountAddress(testProgramID, "missing"), alice, program.Initialize{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestExecute_AccountOwnedByOtherProgram(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	other, err := New(ctx, st, program.New(ir.WalletIdentity("other-program")))
	require.NoError(t, err)
	addr := ir.AccountAddress(testProgramID, "board")
	_, err = other.CreateAccount(ctx, addr, 64)
	require.NoError(t, err)

	rt, err := New(ctx, st, program.New(testProgramID))
	require.NoError(t, err)

	r, err := rt.Invoke(ctx, addr, alice, program.Initialize{})
	require.NoError(t, err)
	assert.Equal(t, program.ErrCodeConstraint, program.CodeOf(r.Err))
}

func TestExecute_LogRecordsEveryCallInOrder(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()
	board := newBoard(t, rt, 9000)

	_, err := rt.Invoke(ctx, board, alice, program.Append{Link: "x"})
	require.NoError(t, err)
	_, err = rt.Invoke(ctx, board, bob, program.AdjustVote{Index: 3, Delta: 1})
	require.NoError(t, err)
	_, err = rt.Invoke(ctx, board, bob, program.AdjustVote{Index: 0, Delta: -2})
	require.NoError(t, err)

	txns, err := rt.Transactions(ctx, board)
	require.NoError(t, err)
	require.Len(t, txns, 4)

	names := make([]string, len(txns))
	statuses := make([]string, len(txns))
	for i, txn := range txns {
		names[i] = txn.Instruction
		statuses[i] = txn.Status
		if i > 0 {
			assert.Greater(t, txn.Seq, txns[i-1].Seq)
		}
	}
	assert.Equal(t, []string{"initialize", "append", "adjust_vote", "adjust_vote"}, names)
	assert.Equal(t, []string{"ok", "ok", "failed", "ok"}, statuses)
	assert.Equal(t, "INDEX_OUT_OF_RANGE", txns[2].ErrorCode)

	var args map[string]any
	require.NoError(t, json.Unmarshal([]byte(txns[3].Args), &args))
	assert.Equal(t, map[string]any{"index": float64(0), "delta": float64(-2)}, args)
}

func TestFailedTransactions(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()
	board := newBoard(t, rt, 9000)

	_, err := rt.Invoke(ctx, board, bob, program.AdjustVote{Index: 0, Delta: 1})
	require.NoError(t, err)
	_, err = rt.Invoke(ctx, board, alice, program.Append{Link: "x"})
	require.NoError(t, err)

	failed, err := rt.FailedTransactions(ctx, board)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "adjust_vote", failed[0].Instruction)
	assert.Equal(t, "INDEX_OUT_OF_RANGE", failed[0].ErrorCode)

	_, err = rt.FailedTransactions(ctx, ir.AccountAddress(testProgramID, "missing"))
	assert.True(t, IsNotFound(err))
}

func TestExecute_TransactionIDMatchesContent(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()
	board := newBoard(t, rt, 9000)

	r, err := rt.Invoke(ctx, board, alice, program.Append{Link: "x"})
	require.NoError(t, err)

	want := ir.MustTransactionID(board, alice, program.InstructionAppend, map[string]any{"link": "x"}, r.Seq)
	assert.Equal(t, want, r.ID)
}

func TestNew_ClockResumesFromLedger(t *testing.T) {
	path := t.TempDir() + "/ledger.db"
	ctx := context.Background()

	st, err := store.Open(path)
	require.NoError(t, err)
	rt, err := New(ctx, st, program.New(testProgramID))
	require.NoError(t, err)
	board := newBoard(t, rt, 256)
	r, err := rt.Invoke(ctx, board, alice, program.Append{Link: "x"})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	rt, err = New(ctx, st, program.New(testProgramID))
	require.NoError(t, err)

	next, err := rt.Invoke(ctx, board, bob, program.AdjustVote{Index: 0, Delta: 1})
	require.NoError(t, err)
	assert.Equal(t, r.Seq+1, next.Seq)
}

func TestExecute_SharedLedgerFileDistinctSeqs(t *testing.T) {
	path := t.TempDir() + "/ledger.db"
	ctx := context.Background()

	open := func() *Runtime {
		st, err := store.Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		rt, err := New(ctx, st, program.New(testProgramID))
		require.NoError(t, err)
		return rt
	}
	first := open()
	second := open()

	board := newBoard(t, first, 9000)
	other := ir.AccountAddress(testProgramID, "other")
	_, err := second.CreateAccount(ctx, other, 64)
	require.NoError(t, err)

	var seqs []int64
	for i, rt := range []*Runtime{first, second, first, second} {
		r, err := rt.Invoke(ctx, board, alice, program.Append{Link: fmt.Sprintf("gif-%d", i)})
		require.NoError(t, err)
		require.True(t, r.OK(), "append failed: %v", r.Err)
		seqs = append(seqs, r.Seq)
	}
	// A failed call from the lagging runtime still gets a fresh seq
	failed, err := second.Invoke(ctx, board, alice, program.AdjustVote{Index: 99, Delta: 1})
	require.NoError(t, err)
	require.False(t, failed.OK())
	seqs = append(seqs, failed.Seq)

	// board create, initialize, other create, then the calls above
	assert.Equal(t, []int64{4, 5, 6, 7, 8}, seqs)

	s, err := first.Load(ctx, board)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), s.Count)
}

func TestWithClock_Deterministic(t *testing.T) {
	run := func() []int64 {
		clock := testutil.NewDeterministicClock()
		rt, _ := newTestRuntime(t, WithClock(clock))
		ctx := context.Background()
		addr := ir.AccountAddress(testProgramID, "board")
		_, err := rt.CreateAccount(ctx, addr, 256)
		require.NoError(t, err)

		var seqs []int64
		for _, ix := range []program.Instruction{program.Initialize{}, program.Append{Link: "a"}} {
			r, err := rt.Invoke(ctx, addr, alice, ix)
			require.NoError(t, err)
			seqs = append(seqs, r.Seq)
		}
		// Account creation consumed the first seq
		assert.Equal(t, []int64{1, 2, 3}, clock.Issued())
		return seqs
	}

	assert.Equal(t, []int64{2, 3}, run())
	assert.Equal(t, run(), run())
}

func TestLoad_UninitializedAccount(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()

	addr := ir.AccountAddress(testProgramID, "raw")
	_, err := rt.CreateAccount(ctx, addr, 64)
	require.NoError(t, err)

	_, err = rt.Load(ctx, addr)
	require.Error(t, err)
	assert.True(t, program.IsDeserializationError(err))
	assert.True(t, strings.Contains(err.Error(), "not initialized"))
}

func TestClock_NextIsMonotonic(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(41), c.Current())
	assert.Equal(t, int64(42), c.Next())
	assert.Equal(t, int64(43), c.Next())
	assert.Equal(t, int64(43), c.Current())
}

func TestExecute_ReinitializeRejected(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()
	board := newBoard(t, rt, 256)

	_, err := rt.Invoke(ctx, board, alice, program.Append{Link: "keep"})
	require.NoError(t, err)

	r, err := rt.Invoke(ctx, board, bob, program.Initialize{})
	require.NoError(t, err)
	assert.Equal(t, program.ErrCodeConstraint, program.CodeOf(r.Err))

	s, err := rt.Load(ctx, board)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Count)
}

func TestClock_Observe(t *testing.T) {
	c := NewClockAt(3)
	c.Observe(2)
	assert.Equal(t, int64(4), c.Next())

	c.Observe(10)
	assert.Equal(t, int64(10), c.Current())
	assert.Equal(t, int64(11), c.Next())
}
