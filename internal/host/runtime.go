package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/gifboard/internal/ir"
	"github.com/roach88/gifboard/internal/program"
	"github.com/roach88/gifboard/internal/store"
)

// InstructionUnknown is logged for calls whose data could not be decoded.
const InstructionUnknown = "unknown"

// Runtime executes program calls against accounts held in a store.
type Runtime struct {
	mu      sync.Mutex
	store   *store.Store
	program *program.Program
	clock   Sequencer
	logger  *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithClock replaces the ledger-backed clock. Only safe on an empty
// ledger, since seq values must stay unique.
func WithClock(clock Sequencer) Option {
	return func(r *Runtime) {
		r.clock = clock
	}
}

// New creates a runtime. The clock resumes after the ledger's last seq.
func New(ctx context.Context, st *store.Store, prog *program.Program, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		store:   st,
		program: prog,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.clock == nil {
		last, err := st.LastSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("resume clock: %w", err)
		}
		r.clock = NewClockAt(last)
	}
	return r, nil
}

// Program returns the program the runtime dispatches to.
func (r *Runtime) Program() *program.Program {
	return r.program
}

// CreateAccount allocates a zeroed buffer of space bytes owned by the
// program. Returns store.ErrAccountExists if address is taken.
func (r *Runtime) CreateAccount(ctx context.Context, address ir.Identity, space int) (ir.Account, error) {
	if space < 0 {
		return ir.Account{}, fmt.Errorf("create account: negative space %d", space)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return ir.Account{}, err
	}
	defer tx.Rollback()

	if err := r.syncClock(ctx, tx); err != nil {
		return ir.Account{}, err
	}
	acct := ir.Account{
		Address:    address,
		Owner:      r.program.ID(),
		Space:      space,
		Data:       make([]byte, space),
		CreatedSeq: r.clock.Next(),
	}
	if err := tx.CreateAccount(ctx, acct); err != nil {
		return ir.Account{}, err
	}
	if err := tx.Commit(); err != nil {
		return ir.Account{}, err
	}

	r.logger.Info("account created",
		"address", address.String(),
		"space", space,
		"seq", acct.CreatedSeq,
	)
	return acct, nil
}

// observer is implemented by clocks that can catch up with seqs written
// by other processes sharing the ledger file.
type observer interface {
	Observe(seq int64)
}

// syncClock raises the clock past the ledger's last seq. tx holds the
// write lock, so the seq handed out next is not taken by anyone else
// before Commit. Clocks without Observe are used as is.
func (r *Runtime) syncClock(ctx context.Context, tx *store.Tx) error {
	o, ok := r.clock.(observer)
	if !ok {
		return nil
	}
	last, err := tx.LastSeq(ctx)
	if err != nil {
		return fmt.Errorf("sync clock: %w", err)
	}
	o.Observe(last)
	return nil
}

// Call is one program invocation.
type Call struct {
	Account ir.Identity
	Caller  ir.Identity
	Data    []byte
}

// Receipt reports how a call ended.
type Receipt struct {
	ID          string
	Seq         int64
	Instruction string
	Status      string         // ir.StatusOK or ir.StatusFailed
	Result      map[string]any // Outcome fields, set on success
	Err         error          // Program failure, set when Status is failed
}

// OK reports whether the call succeeded.
func (r Receipt) OK() bool {
	return r.Status == ir.StatusOK
}

// Execute runs one call.
//
// Instructions that require a zeroed board (initialize) fail with
// CONSTRAINT_VIOLATION once the board holds data, so a board is never
// initialized twice through the runtime.
//
// The program runs against a copy of the account buffer. On success the
// copy and an ok log entry are committed together. On failure only the
// failed log entry is committed, so the stored buffer never changes.
//
// Program failures are reported in Receipt.Err with a nil error. The
// returned error is reserved for ledger failures and unknown accounts.
func (r *Runtime) Execute(ctx context.Context, call Call) (Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := InstructionUnknown
	args := map[string]any{}
	ix, decodeErr := program.DecodeInstruction(call.Data)
	if decodeErr == nil {
		name = ix.Name()
		args = ix.Args()
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return Receipt{}, err
	}
	defer tx.Rollback()

	acct, err := tx.Account(ctx, call.Account)
	if err != nil {
		return Receipt{}, err
	}

	if err := r.syncClock(ctx, tx); err != nil {
		return Receipt{}, err
	}
	seq := r.clock.Next()
	id, err := ir.TransactionID(call.Account, call.Caller, name, args, seq)
	if err != nil {
		return Receipt{}, fmt.Errorf("transaction id: %w", err)
	}
	argsJSON, err := ir.MarshalCanonical(args)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal args: %w", err)
	}

	txn := ir.Transaction{
		ID:          id,
		Seq:         seq,
		Instruction: name,
		Account:     call.Account,
		Caller:      call.Caller,
		Args:        string(argsJSON),
	}
	receipt := Receipt{ID: id, Seq: seq, Instruction: name}

	r.logger.Debug("executing call",
		"id", id,
		"instruction", name,
		"account", call.Account.String(),
		"caller", call.Caller.String(),
		"seq", seq,
	)

	working := make([]byte, len(acct.Data))
	copy(working, acct.Data)
	pctx := program.Context{
		Board: &program.AccountInfo{
			Address:  acct.Address,
			Owner:    acct.Owner,
			Data:     working,
			Writable: true,
		},
		Caller: program.Caller{Key: call.Caller, Signer: true},
	}

	runErr := decodeErr
	if runErr == nil {
		runErr = program.CheckZeroed(program.RequirementsOf(ix), pctx.Board)
	}
	var out program.Outcome
	if runErr == nil {
		out, runErr = r.program.Dispatch(pctx, ix)
	}

	if runErr != nil {
		txn.Status = ir.StatusFailed
		txn.ErrorCode = string(program.CodeOf(runErr))
		txn.ErrorMessage = runErr.Error()
		if err := tx.WriteTransaction(ctx, txn); err != nil {
			return Receipt{}, err
		}
		if err := tx.Commit(); err != nil {
			return Receipt{}, err
		}

		r.logger.Warn("call failed",
			"id", id,
			"instruction", name,
			"code", txn.ErrorCode,
			"error", runErr,
		)
		receipt.Status = ir.StatusFailed
		receipt.Err = runErr
		return receipt, nil
	}

	txn.Status = ir.StatusOK
	if err := tx.UpdateAccountData(ctx, call.Account, working); err != nil {
		return Receipt{}, err
	}
	if err := tx.WriteTransaction(ctx, txn); err != nil {
		return Receipt{}, err
	}
	if err := tx.Commit(); err != nil {
		return Receipt{}, err
	}

	r.logger.Info("call committed",
		"id", id,
		"instruction", name,
		"seq", seq,
	)
	receipt.Status = ir.StatusOK
	receipt.Result = out.Result()
	return receipt, nil
}

// Invoke encodes ix and executes it.
func (r *Runtime) Invoke(ctx context.Context, account, caller ir.Identity, ix program.Instruction) (Receipt, error) {
	data, err := program.EncodeInstruction(ix)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode %s: %w", ix.Name(), err)
	}
	return r.Execute(ctx, Call{Account: account, Caller: caller, Data: data})
}

// Load decodes the record store held in the account at address.
func (r *Runtime) Load(ctx context.Context, address ir.Identity) (ir.RecordStore, error) {
	acct, err := r.store.Account(ctx, address)
	if err != nil {
		return ir.RecordStore{}, err
	}
	return r.program.Load(&program.AccountInfo{
		Address: acct.Address,
		Owner:   acct.Owner,
		Data:    acct.Data,
	})
}

// Account returns the raw account at address.
func (r *Runtime) Account(ctx context.Context, address ir.Identity) (ir.Account, error) {
	return r.store.Account(ctx, address)
}

// Transactions returns the call log for the account at address.
func (r *Runtime) Transactions(ctx context.Context, address ir.Identity) ([]ir.Transaction, error) {
	if _, err := r.store.Account(ctx, address); err != nil {
		return nil, err
	}
	return r.store.Transactions(ctx, address)
}

// FailedTransactions returns only the rejected calls against the account
// at address.
func (r *Runtime) FailedTransactions(ctx context.Context, address ir.Identity) ([]ir.Transaction, error) {
	if _, err := r.store.Account(ctx, address); err != nil {
		return nil, err
	}
	return r.store.TransactionsWithStatus(ctx, address, ir.StatusFailed)
}

// IsNotFound reports whether err means the account does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrAccountNotFound)
}
