package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/talentflow/internal/seed"
	"github.com/roach88/talentflow/internal/store"
)

// SeedResult wraps seed.Summary for text output.
type SeedResult seed.Summary

// Text implements Texter.
func (r SeedResult) Text() string {
	if r.Skipped {
		return "Database already has data; nothing seeded.\n"
	}
	return fmt.Sprintf("Seeded %d jobs, %d candidates and %d timeline events.\n", r.Jobs, r.Candidates, r.Events)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := seed.Options{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty database with demo data",
		Long: `Generate demo jobs and candidates. Each candidate gets an initial
"Application submitted" timeline event. Nothing is written if the database
already holds jobs or candidates.

Examples:
  talentflow seed
  talentflow seed --jobs 5 --candidates 50 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			logger := rootOpts.logger(cmd)

			st, err := store.Open(cfg.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			if opts.Seed == 0 {
				opts.Seed = uint64(time.Now().UnixNano())
			}
			sum, err := seed.Run(cmd.Context(), st, opts, logger)
			if err != nil {
				return commandError("failed to seed", err)
			}
			return rootOpts.formatter(cmd).Success(SeedResult(sum))
		},
	}
	cmd.Flags().IntVar(&opts.Jobs, "jobs", seed.DefaultJobs, "number of jobs")
	cmd.Flags().IntVar(&opts.Candidates, "candidates", seed.DefaultCandidates, "number of candidates")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (default: time-based)")
	return cmd
}
