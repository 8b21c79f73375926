package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	ledgerFlags
	Failed bool
}

// LogEntry is one transaction as printed by log.
type LogEntry struct {
	Seq          int64           `json:"seq"`
	ID           string          `json:"id"`
	Instruction  string          `json:"instruction"`
	Caller       string          `json:"caller"`
	Args         json.RawMessage `json:"args"`
	Status       string          `json:"status"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// LogResult is the output of the log command.
type LogResult struct {
	Address      string     `json:"address"`
	Transactions []LogEntry `json:"transactions"`
}

func (r LogResult) writeText(w io.Writer) {
	if len(r.Transactions) == 0 {
		fmt.Fprintln(w, "No transactions")
		return
	}
	for _, e := range r.Transactions {
		line := fmt.Sprintf("%4d  %-7s %-11s %s %s", e.Seq, e.Status, e.Instruction, e.Caller, e.Args)
		if e.ErrorCode != "" {
			line += fmt.Sprintf("  %s: %s", e.ErrorCode, e.ErrorMessage)
		}
		fmt.Fprintln(w, line)
	}
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the transaction log of a board",
		Long: `Print every call made against a board in order, including calls
the program rejected. Rejected calls never changed the board.

Examples:
  gifboard log --account memes
  gifboard log --account memes --failed --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	opts.ledgerFlags.register(cmd)
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only show failed calls")
	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
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
	list := s.runtime.Transactions
	if opts.Failed {
		list = s.runtime.FailedTransactions
	}
	txs, err := list(ctx, addr)
	if err != nil {
		return failLedger(f, err)
	}

	result := LogResult{Address: addr.String(), Transactions: []LogEntry{}}
	for _, tx := range txs {
		result.Transactions = append(result.Transactions, LogEntry{
			Seq:          tx.Seq,
			ID:           tx.ID,
			Instruction:  tx.Instruction,
			Caller:       tx.Caller.String(),
			Args:         json.RawMessage(tx.Args),
			Status:       tx.Status,
			ErrorCode:    tx.ErrorCode,
			ErrorMessage: tx.ErrorMessage,
		})
	}

	return f.Success(result)
}
