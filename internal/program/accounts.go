package program

import (
	"strings"

	"github.com/roach88/gifboard/internal/ir"
	"github.com/roach88/gifboard/internal/layout"
)

// Requirement is a capability an instruction needs from an account.
type Requirement uint8

const (
	// RequireWritable: the host hands the buffer over as mutable.
	RequireWritable Requirement = 1 << iota

	// RequireZeroed: the buffer is freshly allocated and all zero.
	// Enforced by the host only; Initialize resets whatever it is given.
	RequireZeroed

	// RequireSigner: the caller identity was verified by the host.
	RequireSigner
)

// Has reports whether r includes all of want.
func (r Requirement) Has(want Requirement) bool {
	return r&want == want
}

func (r Requirement) String() string {
	var parts []string
	if r.Has(RequireWritable) {
		parts = append(parts, "writable")
	}
	if r.Has(RequireZeroed) {
		parts = append(parts, "zeroed")
	}
	if r.Has(RequireSigner) {
		parts = append(parts, "signer")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Requirements is the capability descriptor of one instruction.
type Requirements struct {
	Board  Requirement
	Caller Requirement
}

// Capability descriptors per instruction.
var (
	InitializeRequirements = Requirements{Board: RequireWritable | RequireZeroed, Caller: RequireSigner}
	AppendRequirements     = Requirements{Board: RequireWritable, Caller: RequireSigner}
	AdjustVoteRequirements = Requirements{Board: RequireWritable, Caller: RequireSigner}
)

// AccountInfo is the host's mutable view of an account for one call.
type AccountInfo struct {
	Address  ir.Identity
	Owner    ir.Identity // Program allowed to mutate Data
	Data     []byte      // Fixed capacity; never resized
	Writable bool
}

// Caller is the identity the host attached to a call.
type Caller struct {
	Key    ir.Identity
	Signer bool
}

// Context is everything an entry point receives from the host.
type Context struct {
	Board  *AccountInfo
	Caller Caller
}

// RequirementsOf returns the capability descriptor of ix.
func RequirementsOf(ix Instruction) Requirements {
	switch ix.(type) {
	case Initialize:
		return InitializeRequirements
	case Append:
		return AppendRequirements
	default:
		return AdjustVoteRequirements
	}
}

// CheckZeroed is the host-side check for RequireZeroed. It fails with
// CONSTRAINT_VIOLATION when req demands a zeroed board and board holds any
// non-zero byte. Entry points never call it.
func CheckZeroed(req Requirements, board *AccountInfo) error {
	if !req.Board.Has(RequireZeroed) || board == nil {
		return nil
	}
	if !layout.IsZeroed(board.Data) {
		return newConstraintError("account %s must be zeroed", board.Address)
	}
	return nil
}
