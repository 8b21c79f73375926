package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/gifboard/internal/program"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	ledgerFlags
	Caller string
}

// AddResult is the output of the add command.
type AddResult struct {
	Index       uint64 `json:"index"`
	Count       uint64 `json:"count"`
	Transaction string `json:"transaction"`
	Seq         int64  `json:"seq"`
}

func (r AddResult) writeText(w io.Writer) {
	fmt.Fprintf(w, "Appended record %d (count %d)\n", r.Index, r.Count)
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <link>",
		Short: "Append a link to a board",
		Long: `Append a link to a board. The caller becomes the record's owner
and the record starts with a zero vote.

Fails with exit code 1 if the board has no room for the record.

Examples:
  gifboard add https://example.com/cat.gif --account memes --caller alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args[0], cmd)
		},
	}

	opts.ledgerFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Caller, "caller", "", "signer: wallet name or base58 key (required)")
	_ = cmd.MarkFlagRequired("caller")

	return cmd
}

func runAdd(opts *AddOptions, link string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd)

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

	receipt, err := s.runtime.Invoke(ctx, s.account(opts.Account), caller, program.Append{Link: link})
	if err != nil {
		return failLedger(f, err)
	}
	if !receipt.OK() {
		return failReceipt(f, receipt)
	}

	result := AddResult{
		Index:       receipt.Result["index"].(uint64),
		Count:       receipt.Result["count"].(uint64),
		Transaction: receipt.ID,
		Seq:         receipt.Seq,
	}
	return f.Success(result)
}
