package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/gifboard/internal/ir"
)

// Account returns the account at address, or ErrAccountNotFound.
func (s *Store) Account(ctx context.Context, address ir.Identity) (ir.Account, error) {
	return readAccount(ctx, s.db, address)
}

func readAccount(ctx context.Context, ex execer, address ir.Identity) (ir.Account, error) {
	row := ex.QueryRowContext(ctx, `
		SELECT address, owner, space, data, created_seq
		FROM accounts
		WHERE address = ?
	`, address.String())

	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Account{}, fmt.Errorf("account %s: %w", address, ErrAccountNotFound)
	}
	if err != nil {
		return ir.Account{}, err
	}
	return acct, nil
}

// Accounts returns every account ordered by creation.
// Returns an empty slice (not nil) for an empty ledger.
func (s *Store) Accounts(ctx context.Context) ([]ir.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, owner, space, data, created_seq
		FROM accounts
		ORDER BY created_seq ASC, address COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []ir.Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// Transactions returns the log entries for one account, ordered by seq.
// Returns an empty slice (not nil) if none exist.
func (s *Store) Transactions(ctx context.Context, account ir.Identity) ([]ir.Transaction, error) {
	return s.queryTransactions(ctx, `WHERE account = ?`, account.String())
}

// TransactionsWithStatus returns the log entries for one account that
// ended with status (ir.StatusOK or ir.StatusFailed), ordered by seq.
func (s *Store) TransactionsWithStatus(ctx context.Context, account ir.Identity, status string) ([]ir.Transaction, error) {
	return s.queryTransactions(ctx, `WHERE account = ? AND status = ?`, account.String(), status)
}

func (s *Store) queryTransactions(ctx context.Context, where string, args ...any) ([]ir.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, instruction, account, caller, args, status, error_code, error_message
		FROM transactions
		`+where+`
		ORDER BY seq ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txns := []ir.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(sc scanner) (ir.Account, error) {
	var (
		acct           ir.Account
		address, owner string
	)
	if err := sc.Scan(&address, &owner, &acct.Space, &acct.Data, &acct.CreatedSeq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Account{}, err
		}
		return ir.Account{}, fmt.Errorf("scan account: %w", err)
	}

	var err error
	if acct.Address, err = unmarshalIdentity("address", address); err != nil {
		return ir.Account{}, err
	}
	if acct.Owner, err = unmarshalIdentity("owner", owner); err != nil {
		return ir.Account{}, err
	}
	// A zero-length BLOB scans as nil.
	if acct.Data == nil {
		acct.Data = []byte{}
	}
	return acct, nil
}

func scanTransaction(sc scanner) (ir.Transaction, error) {
	var (
		txn             ir.Transaction
		account, caller string
	)
	err := sc.Scan(&txn.Seq, &txn.ID, &txn.Instruction, &account, &caller,
		&txn.Args, &txn.Status, &txn.ErrorCode, &txn.ErrorMessage)
	if err != nil {
		return ir.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	if txn.Account, err = unmarshalIdentity("account", account); err != nil {
		return ir.Transaction{}, err
	}
	if txn.Caller, err = unmarshalIdentity("caller", caller); err != nil {
		return ir.Transaction{}, err
	}
	return txn, nil
}
