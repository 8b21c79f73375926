package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/gifboard/internal/ir"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateAccount inserts a new account. Returns ErrAccountExists if the
// address is taken. len(acct.Data) must equal acct.Space.
func (s *Store) CreateAccount(ctx context.Context, acct ir.Account) error {
	return createAccount(ctx, s.db, acct)
}

func createAccount(ctx context.Context, ex execer, acct ir.Account) error {
	if len(acct.Data) != acct.Space {
		return fmt.Errorf("create account: data is %d bytes, space is %d", len(acct.Data), acct.Space)
	}

	res, err := ex.ExecContext(ctx, `
		INSERT INTO accounts (address, owner, space, data, created_seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`,
		acct.Address.String(),
		acct.Owner.String(),
		acct.Space,
		acct.Data,
		acct.CreatedSeq,
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("create account %s: %w", acct.Address, ErrAccountExists)
	}
	return nil
}

// WriteTransaction appends a record to the transaction log outside of any
// ledger transaction.
func (s *Store) WriteTransaction(ctx context.Context, txn ir.Transaction) error {
	return writeTransaction(ctx, s.db, txn)
}

func writeTransaction(ctx context.Context, ex execer, txn ir.Transaction) error {
	if txn.Status != ir.StatusOK && txn.Status != ir.StatusFailed {
		return fmt.Errorf("write transaction: invalid status %q", txn.Status)
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO transactions
		(seq, id, instruction, account, caller, args, status, error_code, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.Seq,
		txn.ID,
		txn.Instruction,
		txn.Account.String(),
		txn.Caller.String(),
		txn.Args,
		txn.Status,
		txn.ErrorCode,
		txn.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}
	return nil
}

// Tx is a ledger transaction. The host runs each call inside one Tx so
// that the account update and its log entry commit together.
type Tx struct {
	tx *sql.Tx
}

// Begin starts a ledger transaction.
// While a Tx is open, use only its methods: the Store has a single
// connection.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// CreateAccount inserts a new account inside the transaction.
func (t *Tx) CreateAccount(ctx context.Context, acct ir.Account) error {
	return createAccount(ctx, t.tx, acct)
}

// LastSeq reads the ledger's highest seq while holding the write lock, so
// no other writer can take a seq before Commit.
func (t *Tx) LastSeq(ctx context.Context) (int64, error) {
	return lastSeq(ctx, t.tx)
}

// Account reads an account inside the transaction.
func (t *Tx) Account(ctx context.Context, address ir.Identity) (ir.Account, error) {
	return readAccount(ctx, t.tx, address)
}

// UpdateAccountData overwrites an account's buffer. The new data must be
// exactly the account's space.
func (t *Tx) UpdateAccountData(ctx context.Context, address ir.Identity, data []byte) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE accounts SET data = ?
		WHERE address = ? AND space = ?
	`, data, address.String(), len(data))
	if err != nil {
		return fmt.Errorf("update account data: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account data: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update account data %s: no account with space %d", address, len(data))
	}
	return nil
}

// WriteTransaction appends a record to the transaction log.
func (t *Tx) WriteTransaction(ctx context.Context, txn ir.Transaction) error {
	return writeTransaction(ctx, t.tx, txn)
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
