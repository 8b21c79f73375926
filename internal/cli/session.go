package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gifboard/internal/config"
	"github.com/roach88/gifboard/internal/host"
	"github.com/roach88/gifboard/internal/ir"
	"github.com/roach88/gifboard/internal/program"
	"github.com/roach88/gifboard/internal/store"
)

// ledgerFlags are shared by every command that touches a board.
type ledgerFlags struct {
	Database string
	Account  string
}

func (f *ledgerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Database, "db", "", "path to SQLite ledger (default from config)")
	cmd.Flags().StringVar(&f.Account, "account", "", "board account: seed or base58 address")
}

// session is an open ledger plus a runtime bound to the configured program.
type session struct {
	cfg     *config.Config
	store   *store.Store
	runtime *host.Runtime
}

// openSession opens the ledger named by database, or the configured one.
// Errors are already ExitErrors reported through f.
func openSession(ctx context.Context, opts *RootOptions, f *OutputFormatter, database string) (*session, error) {
	cfg, err := opts.settings()
	if err != nil {
		return nil, err
	}
	programID, err := cfg.ProgramIdentity()
	if err != nil {
		return nil, f.Fail(ErrCodeInvalidArgument, err.Error(), nil)
	}

	if database == "" {
		database = cfg.Database
	}
	f.VerboseLog("Opening ledger %s", database)

	st, err := store.Open(database)
	if err != nil {
		return nil, f.Fail(ErrCodeStorage, fmt.Sprintf("failed to open database: %v", err), nil)
	}

	rt, err := host.New(ctx, st, program.New(programID), host.WithLogger(opts.logger()))
	if err != nil {
		st.Close()
		return nil, f.Fail(ErrCodeStorage, err.Error(), nil)
	}
	return &session{cfg: cfg, store: st, runtime: rt}, nil
}

func (s *session) Close(opts *RootOptions) {
	if err := s.store.Close(); err != nil {
		opts.logger().Error("error closing database", "error", err)
	}
}

// account resolves a board reference: a base58 address is used as is,
// anything else is a seed under the configured program.
func (s *session) account(ref string) ir.Identity {
	if id, err := ir.ParseIdentity(ref); err == nil {
		return id
	}
	return ir.AccountAddress(s.runtime.Program().ID(), ref)
}

// requireAccount checks that --account was given.
func requireAccount(f *OutputFormatter, ref string) error {
	if ref == "" {
		return f.Fail(ErrCodeInvalidArgument, "--account is required", nil)
	}
	return nil
}

// resolveCaller turns --caller into an identity.
func resolveCaller(f *OutputFormatter, ref string) (ir.Identity, error) {
	id, err := ir.ResolveIdentity(ref)
	if err != nil {
		return ir.Identity{}, f.Fail(ErrCodeInvalidArgument, fmt.Sprintf("--caller: %v", err), nil)
	}
	return id, nil
}

// failLedger reports a runtime or store error.
func failLedger(f *OutputFormatter, err error) error {
	switch {
	case host.IsNotFound(err):
		return f.Fail(ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, store.ErrAccountExists):
		return f.Fail(ErrCodeInvalidArgument, err.Error(), nil)
	case program.CodeOf(err) != "":
		return f.Fail(ErrCodeProgramFailure, err.Error(), programDetails(err))
	default:
		return f.Fail(ErrCodeStorage, err.Error(), nil)
	}
}

// failReceipt reports a call the program rejected.
func failReceipt(f *OutputFormatter, r host.Receipt) error {
	details := programDetails(r.Err)
	details["transaction"] = r.ID
	details["seq"] = fmt.Sprintf("%d", r.Seq)
	return f.Fail(ErrCodeProgramFailure, r.Err.Error(), details)
}

func programDetails(err error) map[string]string {
	details := map[string]string{"code": string(program.CodeOf(err))}
	var pe *program.ProgramError
	if errors.As(err, &pe) {
		for k, v := range pe.Details {
			details[k] = v
		}
	}
	return details
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
