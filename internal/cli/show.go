package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/gifboard/internal/layout"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	ledgerFlags
}

// RecordView is one record as printed by show.
type RecordView struct {
	Index int    `json:"index"`
	Link  string `json:"link"`
	Owner string `json:"owner"`
	Vote  int32  `json:"vote"`
}

// ShowResult is the output of the show command.
type ShowResult struct {
	Address string       `json:"address"`
	Count   uint64       `json:"count"`
	Space   int          `json:"space"`
	Used    int          `json:"used"`
	Records []RecordView `json:"records"`
}

func (r ShowResult) writeText(w io.Writer) {
	fmt.Fprintf(w, "Board %s\n", r.Address)
	fmt.Fprintf(w, "  records: %d\n", r.Count)
	fmt.Fprintf(w, "  used:    %d/%d bytes\n", r.Used, r.Space)
	for _, rec := range r.Records {
		fmt.Fprintf(w, "  [%d] %+d %s (%s)\n", rec.Index, rec.Vote, rec.Link, rec.Owner)
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the records of a board",
		Long: `Decode a board and print its records in append order, with the
number of bytes in use out of the board's fixed space.

Examples:
  gifboard show --account memes
  gifboard show --account memes --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	opts.ledgerFlags.register(cmd)
	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd)

	if err := requireAccount(f, opts.Account); err != nil {
		return err
	}

	s, err := openSession(ctx, opts.RootOptions, f, opts.Database)
	if err != nil {
		return err
	}
	defer s.Close(opts.RootOptions)

	addr := s.account(opts.Account)
	acct, err := s.runtime.Account(ctx, addr)
	if err != nil {
		return failLedger(f, err)
	}
	board, err := s.runtime.Load(ctx, addr)
	if err != nil {
		return failLedger(f, err)
	}

	result := ShowResult{
		Address: addr.String(),
		Count:   board.Count,
		Space:   acct.Space,
		Used:    layout.Size(board),
		Records: make([]RecordView, len(board.Records)),
	}
	for i, r := range board.Records {
		result.Records[i] = RecordView{Index: i, Link: r.Link, Owner: r.Owner.String(), Vote: r.Vote}
	}

	return f.Success(result)
}
