package program

import (
	"crypto/sha256"
	"fmt"

	"github.com/roach88/gifboard/internal/layout"
)

// Instruction names.
const (
	InstructionInitialize = "initialize"
	InstructionAppend     = "append"
	InstructionAdjustVote = "adjust_vote"
)

// SelectorSize is the length of the instruction selector prefix.
const SelectorSize = 8

// Selector returns sha256("global:<name>")[:8].
func Selector(name string) [SelectorSize]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var s [SelectorSize]byte
	copy(s[:], sum[:SelectorSize])
	return s
}

var selectors = map[[SelectorSize]byte]string{
	Selector(InstructionInitialize): InstructionInitialize,
	Selector(InstructionAppend):     InstructionAppend,
	Selector(InstructionAdjustVote): InstructionAdjustVote,
}

// Instruction is a decoded call to one entry point.
type Instruction interface {
	// Name returns the instruction name.
	Name() string

	// Args returns the arguments as canonical-JSON encodable values.
	Args() map[string]any

	argsSize() int
	encodeArgs(r *layout.Region) error
}

// Initialize resets the board to an empty store.
type Initialize struct{}

// Append adds a record.
type Append struct {
	Link string
}

// AdjustVote changes the tally of one record.
type AdjustVote struct {
	Index uint32
	Delta int32
}

func (Initialize) Name() string         { return InstructionInitialize }
func (Initialize) Args() map[string]any { return map[string]any{} }
func (Initialize) argsSize() int        { return 0 }
func (Initialize) encodeArgs(*layout.Region) error {
	return nil
}

func (a Append) Name() string         { return InstructionAppend }
func (a Append) Args() map[string]any { return map[string]any{"link": a.Link} }
func (a Append) argsSize() int        { return 4 + len(a.Link) }
func (a Append) encodeArgs(r *layout.Region) error {
	return r.PutString(a.Link)
}

func (a AdjustVote) Name() string { return InstructionAdjustVote }
func (a AdjustVote) Args() map[string]any {
	return map[string]any{"index": a.Index, "delta": a.Delta}
}
func (a AdjustVote) argsSize() int { return 8 }
func (a AdjustVote) encodeArgs(r *layout.Region) error {
	if err := r.PutU32(a.Index); err != nil {
		return err
	}
	return r.PutI32(a.Delta)
}

// EncodeInstruction returns the selector followed by the encoded arguments.
func EncodeInstruction(ix Instruction) ([]byte, error) {
	buf := make([]byte, SelectorSize+ix.argsSize())
	r := layout.NewRegion(buf)
	sel := Selector(ix.Name())
	if err := r.PutBytes(sel[:]); err != nil {
		return nil, err
	}
	if err := ix.encodeArgs(r); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ix.Name(), err)
	}
	return buf, nil
}

// MustEncodeInstruction is like EncodeInstruction but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEncodeInstruction(ix Instruction) []byte {
	data, err := EncodeInstruction(ix)
	if err != nil {
		panic(err)
	}
	return data
}

// DecodeInstruction parses instruction data. Unknown selectors fail with
// UNKNOWN_INSTRUCTION; short, malformed or trailing argument bytes fail
// with DESERIALIZATION_FAILED.
func DecodeInstruction(data []byte) (Instruction, error) {
	rd := layout.NewReader(data)
	raw, err := rd.Bytes(SelectorSize, "instruction selector")
	if err != nil {
		return nil, newDeserializationError("instruction data too short", err)
	}
	var sel [SelectorSize]byte
	copy(sel[:], raw)

	name, ok := selectors[sel]
	if !ok {
		return nil, &ProgramError{
			Code:    ErrCodeUnknownInstruction,
			Message: fmt.Sprintf("unknown instruction selector %x", sel),
		}
	}

	var ix Instruction
	switch name {
	case InstructionInitialize:
		ix = Initialize{}
	case InstructionAppend:
		link, err := rd.String("link")
		if err != nil {
			return nil, newDeserializationError("append arguments", err)
		}
		ix = Append{Link: link}
	case InstructionAdjustVote:
		index, err := rd.U32("index")
		if err != nil {
			return nil, newDeserializationError("adjust_vote arguments", err)
		}
		delta, err := rd.I32("delta")
		if err != nil {
			return nil, newDeserializationError("adjust_vote arguments", err)
		}
		ix = AdjustVote{Index: index, Delta: delta}
	}

	if rd.Remaining() != 0 {
		return nil, newDeserializationError(
			fmt.Sprintf("%s arguments", name),
			&layout.DecodeError{Offset: rd.Offset(), Reason: fmt.Sprintf("%d trailing bytes", rd.Remaining())},
		)
	}
	return ix, nil
}

// Outcome describes the effect of a successful call.
type Outcome struct {
	Instruction Instruction
	Count       uint64 // Record count after the call
	Index       uint64 // Record appended or voted on
	Vote        int32  // Tally after adjust_vote
}

// Result returns the outcome's fields as canonical-JSON encodable values.
func (o Outcome) Result() map[string]any {
	switch o.Instruction.(type) {
	case Append:
		return map[string]any{"index": o.Index, "count": o.Count}
	case AdjustVote:
		return map[string]any{"index": o.Index, "vote": o.Vote}
	default:
		return map[string]any{"count": o.Count}
	}
}

// Process decodes instruction data and dispatches it to the matching entry
// point.
func (p *Program) Process(ctx Context, data []byte) (Outcome, error) {
	ix, err := DecodeInstruction(data)
	if err != nil {
		return Outcome{}, err
	}
	return p.Dispatch(ctx, ix)
}

// Dispatch runs an already decoded instruction.
func (p *Program) Dispatch(ctx Context, ix Instruction) (Outcome, error) {
	out := Outcome{Instruction: ix}
	switch in := ix.(type) {
	case Initialize:
		if err := p.Initialize(ctx); err != nil {
			return out, err
		}
		out.Count = 0
	case Append:
		index, err := p.Append(ctx, in.Link)
		if err != nil {
			return out, err
		}
		out.Index = index
		out.Count = index + 1
	case AdjustVote:
		vote, err := p.AdjustVote(ctx, in.Index, in.Delta)
		if err != nil {
			return out, err
		}
		out.Index = uint64(in.Index)
		out.Vote = vote
		s, err := p.load(ctx.Board)
		if err != nil {
			return out, err
		}
		out.Count = s.Count
	default:
		return out, &ProgramError{
			Code:    ErrCodeUnknownInstruction,
			Message: fmt.Sprintf("unsupported instruction %T", ix),
		}
	}
	return out, nil
}
