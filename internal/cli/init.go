package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/gifboard/internal/ir"
	"github.com/roach88/gifboard/internal/layout"
	"github.com/roach88/gifboard/internal/program"
	"github.com/roach88/gifboard/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	ledgerFlags
	Space  int
	Caller string

	// NewSeed generates the account seed when --account is omitted.
	// If nil, defaults to a UUIDv7.
	NewSeed func() string
}

// InitResult is the output of the init command.
type InitResult struct {
	Address     string `json:"address"`
	Seed        string `json:"seed"`
	Space       int    `json:"space"`
	Transaction string `json:"transaction"`
	Seq         int64  `json:"seq"`
}

func (r InitResult) writeText(w io.Writer) {
	fmt.Fprintf(w, "Initialized board %s\n", r.Address)
	fmt.Fprintf(w, "  seed:  %s\n", r.Seed)
	fmt.Fprintf(w, "  space: %d bytes\n", r.Space)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create and initialize a board",
		Long: `Create a zeroed board account of a fixed size and initialize it
to an empty record store.

The board address is derived from the program ID and the account seed.
Without --account a fresh UUIDv7 seed is generated and printed.

If an earlier init created the account but did not initialize it, running
init again with the same --account and --space finishes the job.

Examples:
  gifboard init --account memes
  gifboard init --account memes --space 20000 --db ./boards.db
  gifboard init --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	opts.ledgerFlags.register(cmd)
	cmd.Flags().IntVar(&opts.Space, "space", 0, "board size in bytes (default from config)")
	cmd.Flags().StringVar(&opts.Caller, "caller", "authority", "signer: wallet name or base58 key")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd)

	caller, err := resolveCaller(f, opts.Caller)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, opts.RootOptions, f, opts.Database)
	if err != nil {
		return err
	}
	defer s.Close(opts.RootOptions)

	space := opts.Space
	if space == 0 {
		space = s.cfg.Space
	}
	if space < layout.MinSize {
		return f.Fail(ErrCodeInvalidArgument,
			fmt.Sprintf("space %d is below the empty board size %d", space, layout.MinSize), nil)
	}

	seed := opts.Account
	if seed == "" {
		if opts.NewSeed != nil {
			seed = opts.NewSeed()
		} else {
			seed = uuid.Must(uuid.NewV7()).String()
		}
	}
	addr := s.account(seed)
	f.VerboseLog("Creating board %s (%d bytes)", addr, space)

	if err := createBoard(ctx, s, f, addr, space); err != nil {
		return err
	}

	receipt, err := s.runtime.Invoke(ctx, addr, caller, program.Initialize{})
	if err != nil {
		return failLedger(f, err)
	}
	if !receipt.OK() {
		return failReceipt(f, receipt)
	}

	result := InitResult{
		Address:     addr.String(),
		Seed:        seed,
		Space:       space,
		Transaction: receipt.ID,
		Seq:         receipt.Seq,
	}
	return f.Success(result)
}

// createBoard allocates the board account. An existing account of the same
// size that is still all zeros was left by an init whose initialize step
// never committed, so it is reused.
func createBoard(ctx context.Context, s *session, f *OutputFormatter, addr ir.Identity, space int) error {
	_, err := s.runtime.CreateAccount(ctx, addr, space)
	if !errors.Is(err, store.ErrAccountExists) {
		if err != nil {
			return failLedger(f, err)
		}
		return nil
	}

	acct, lookupErr := s.runtime.Account(ctx, addr)
	if lookupErr != nil {
		return failLedger(f, lookupErr)
	}
	if acct.Owner != s.runtime.Program().ID() || acct.Space != space || !layout.IsZeroed(acct.Data) {
		return failLedger(f, err)
	}
	f.VerboseLog("Reusing uninitialized board %s", addr)
	return nil
}
