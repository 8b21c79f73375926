package store

import (
	"fmt"

	"github.com/roach88/gifboard/internal/ir"
)

// unmarshalIdentity parses an identity column. Identities are stored as
// base58 TEXT so the ledger is readable with the sqlite3 shell.
func unmarshalIdentity(column, text string) (ir.Identity, error) {
	id, err := ir.ParseIdentity(text)
	if err != nil {
		return ir.Identity{}, fmt.Errorf("unmarshal %s: %w", column, err)
	}
	return id, nil
}
