package program

import (
	"github.com/roach88/gifboard/internal/ir"
	"github.com/roach88/gifboard/internal/layout"
)

// Program is the gifboard record store program.
type Program struct {
	id ir.Identity
}

// New creates a program with its declared identity. The identity comes
// from configuration and never changes for the life of the process.
func New(id ir.Identity) *Program {
	return &Program{id: id}
}

// ID returns the declared program identity.
func (p *Program) ID() ir.Identity {
	return p.id
}

// Initialize writes an empty store into the board buffer, discarding
// whatever was there. Fails with CAPACITY_EXCEEDED if the buffer is smaller
// than layout.MinSize.
func (p *Program) Initialize(ctx Context) error {
	if err := p.check(ctx, InitializeRequirements); err != nil {
		return err
	}
	return p.commit(ctx.Board, ir.RecordStore{Records: []ir.Record{}})
}

// Append adds a record owned by the caller with a zero tally and returns its
// index, which equals the count before the call.
func (p *Program) Append(ctx Context, link string) (uint64, error) {
	if err := p.check(ctx, AppendRequirements); err != nil {
		return 0, err
	}
	s, err := p.load(ctx.Board)
	if err != nil {
		return 0, err
	}

	index := s.Count
	s.Records = append(s.Records, ir.Record{
		Link:  link,
		Owner: ctx.Caller.Key,
		Vote:  0,
	})
	s.Count++

	if err := p.commit(ctx.Board, s); err != nil {
		return 0, err
	}
	return index, nil
}

// AdjustVote adds delta to the tally of the record at index and returns the
// new tally. Any caller may vote on any record.
func (p *Program) AdjustVote(ctx Context, index uint32, delta int32) (int32, error) {
	if err := p.check(ctx, AdjustVoteRequirements); err != nil {
		return 0, err
	}
	s, err := p.load(ctx.Board)
	if err != nil {
		return 0, err
	}

	if uint64(index) >= s.Count {
		return 0, newIndexError(index, s.Count)
	}

	current := s.Records[index].Vote
	sum := int64(current) + int64(delta)
	if sum < minVote || sum > maxVote {
		return 0, newVoteOverflowError(index, current, delta)
	}
	s.Records[index].Vote = int32(sum)

	if err := p.commit(ctx.Board, s); err != nil {
		return 0, err
	}
	return int32(sum), nil
}

const (
	minVote = -1 << 31
	maxVote = 1<<31 - 1
)

// Load decodes the board buffer without modifying it.
func (p *Program) Load(acct *AccountInfo) (ir.RecordStore, error) {
	return p.load(acct)
}

// check asserts the capability preconditions the host is meant to enforce.
// RequireZeroed is not asserted: re-initialization is the host's concern.
func (p *Program) check(ctx Context, req Requirements) error {
	if ctx.Board == nil {
		return newConstraintError("board account is required")
	}
	if ctx.Board.Owner != p.id {
		return newConstraintError("account %s is owned by %s, not %s", ctx.Board.Address, ctx.Board.Owner, p.id)
	}
	if req.Board.Has(RequireWritable) && !ctx.Board.Writable {
		return newConstraintError("account %s must be writable", ctx.Board.Address)
	}
	if req.Caller.Has(RequireSigner) && !ctx.Caller.Signer {
		return newConstraintError("caller %s must sign", ctx.Caller.Key)
	}
	return nil
}

func (p *Program) load(acct *AccountInfo) (ir.RecordStore, error) {
	s, err := layout.Decode(acct.Data)
	if err != nil {
		return ir.RecordStore{}, wrapLayoutError("account data does not match layout", err)
	}
	return s, nil
}

// commit encodes s into scratch space of the buffer's capacity and copies it
// over the buffer only once the whole encoding has succeeded.
func (p *Program) commit(acct *AccountInfo, s ir.RecordStore) error {
	scratch, err := layout.Encode(s, len(acct.Data))
	if err != nil {
		return wrapLayoutError("encode store", err)
	}
	copy(acct.Data, scratch)
	return nil
}
