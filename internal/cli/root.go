package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/talentflow/internal/config"
	"github.com/roach88/talentflow/internal/coordinator"
	"github.com/roach88/talentflow/internal/provider"
	"github.com/roach88/talentflow/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string // overrides the configured database path
	ConfigPath string
	EnvFile    string

	// CoordinatorOptions are appended when a command builds its coordinator.
	// Tests use them to pin ids and time.
	CoordinatorOptions []coordinator.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the talentflow CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "talentflow",
		Short: "talentflow - local-first hiring pipeline",
		Long: `Manage job postings and candidates in a local SQLite database.

Reorders and stage moves are applied optimistically and written in the
background; every mutating command waits for its writes to settle and
reports how they ended.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with TALENTFLOW_* overrides")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewJobsCommand(opts))
	cmd.AddCommand(NewCandidatesCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are rendered in the selected format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, &RootOptions{}, args, stdout, stderr)
}

func execute(ctx context.Context, opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	f := opts.formatter(cmd)
	f.ErrWriter = stderr
	_ = f.Error(ErrorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig merges the config file, env overrides and the --db flag.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath, o.EnvFile)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	return cfg, nil
}

// session is an open database with a loaded coordinator.
type session struct {
	cfg    config.Config
	store  *store.Store
	coord  *coordinator.Coordinator
	logger *slog.Logger
}

// openSession opens the configured database and hydrates a coordinator.
// When the simulated network is enabled, every provider call goes through
// it.
func (o *RootOptions) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := o.logger(cmd)

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	var p provider.Provider = st
	if cfg.Unreliable.Enabled {
		popts := append(cfg.Unreliable.ProviderOptions(), provider.WithLogger(logger))
		p = provider.NewUnreliable(st, popts...)
		logger.Debug("simulated network enabled",
			"failure_rate", cfg.Unreliable.FailureRate,
			"min_latency", cfg.Unreliable.MinLatency,
			"max_latency", cfg.Unreliable.MaxLatency)
	}

	copts := append([]coordinator.Option{
		coordinator.WithUser(cfg.CurrentUser),
		coordinator.WithLogger(logger),
	}, o.CoordinatorOptions...)
	coord := coordinator.New(p, copts...)

	if err := coord.Load(cmd.Context()); err != nil {
		st.Close()
		return nil, WrapExitError(ExitFailure, "failed to load data", err)
	}
	return &session{cfg: cfg, store: st, coord: coord, logger: logger}, nil
}

// Close waits for background writes and closes the database.
func (s *session) Close() {
	s.coord.Wait()
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// settled waits for every background write and returns the notifications
// delivered to sub in the meantime.
func (s *session) settled(sub <-chan coordinator.Notification) []coordinator.Notification {
	s.coord.Wait()
	var out []coordinator.Notification
	for {
		select {
		case n := <-sub:
			out = append(out, n)
		default:
			return out
		}
	}
}

// commandError turns a domain error into an ExitError that keeps the domain
// code visible to ErrorCode.
func commandError(message string, err error) error {
	return WrapExitError(ExitFailure, message, err)
}
