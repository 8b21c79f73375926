package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/gifboard/internal/program"
)

// VoteOptions holds flags for the vote command.
type VoteOptions struct {
	*RootOptions
	ledgerFlags
	Caller string
}

// VoteResult is the output of the vote command.
type VoteResult struct {
	Index       uint64 `json:"index"`
	Vote        int32  `json:"vote"`
	Transaction string `json:"transaction"`
	Seq         int64  `json:"seq"`
}

func (r VoteResult) writeText(w io.Writer) {
	fmt.Fprintf(w, "Record %d vote is now %d\n", r.Index, r.Vote)
}

// NewVoteCommand creates the vote command.
func NewVoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "vote <index> <delta>",
		Short: "Adjust the vote of a record",
		Long: `Add a signed delta to the vote of the record at index. Any caller
may vote on any record, any number of times.

Put negative deltas after "--" so they are not read as flags.

Examples:
  gifboard vote 0 1 --account memes --caller bob
  gifboard vote --account memes --caller bob -- 0 -3`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVote(opts, args[0], args[1], cmd)
		},
	}

	opts.ledgerFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Caller, "caller", "", "signer: wallet name or base58 key (required)")
	_ = cmd.MarkFlagRequired("caller")

	return cmd
}

func runVote(opts *VoteOptions, indexArg, deltaArg string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd)

	index, err := strconv.ParseUint(indexArg, 10, 32)
	if err != nil {
		return f.Fail(ErrCodeInvalidArgument,
			fmt.Sprintf("index must be an integer in [0, %d]: %q", uint32(1<<32-1), indexArg), nil)
	}
	delta, err := strconv.ParseInt(deltaArg, 10, 32)
	if err != nil {
		return f.Fail(ErrCodeInvalidArgument,
			fmt.Sprintf("delta must be a 32-bit signed integer: %q", deltaArg), nil)
	}

	if err := requireAccount(f, opts.Account); err != nil {
		return err
	}
	caller, err := resolveCaller(f, opts.Caller)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, opts.RootOptions, f, opts.Database)
	if err != nil {
		return err
	}
	defer s.Close(opts.RootOptions)

	ix := program.AdjustVote{Index: uint32(index), Delta: int32(delta)}
	receipt, err := s.runtime.Invoke(ctx, s.account(opts.Account), caller, ix)
	if err != nil {
		return failLedger(f, err)
	}
	if !receipt.OK() {
		return failReceipt(f, receipt)
	}

	result := VoteResult{
		Index:       index,
		Vote:        receipt.Result["vote"].(int32),
		Transaction: receipt.ID,
		Seq:         receipt.Seq,
	}
	return f.Success(result)
}
