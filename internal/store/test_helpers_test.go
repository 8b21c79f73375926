package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/gifboard/internal/ir"
)

var testProgramID = ir.WalletIdentity("test-program")

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestAccount builds a zeroed account owned by the test program.
func createTestAccount(seed string, space int, seq int64) ir.Account {
	return ir.Account{
		Address:    ir.AccountAddress(testProgramID, seed),
		Owner:      testProgramID,
		Space:      space,
		Data:       make([]byte, space),
		CreatedSeq: seq,
	}
}

// createTestTransaction builds a log entry with minimal required fields.
func createTestTransaction(id string, account ir.Identity, status string, seq int64) ir.Transaction {
	return ir.Transaction{
		ID:          id,
		Seq:         seq,
		Instruction: "append",
		Account:     account,
		Caller:      ir.WalletIdentity("alice"),
		Args:        `{"link":"http://a"}`,
		Status:      status,
	}
}
