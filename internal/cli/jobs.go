package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/talentflow/internal/coordinator"
	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/query"
)

// ListOptions holds the shared list flags.
type ListOptions struct {
	Search   string
	Filter   string
	Page     int
	PageSize int
}

func (o *ListOptions) bind(cmd *cobra.Command, filterFlag, filterHelp string) {
	cmd.Flags().StringVar(&o.Search, "search", "", "case-insensitive search")
	cmd.Flags().StringVar(&o.Filter, filterFlag, "", filterHelp)
	cmd.Flags().IntVar(&o.Page, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&o.PageSize, "page-size", 0, "items per page (default from config)")
}

func (o *ListOptions) params(defaultSize int) query.Params {
	size := o.PageSize
	if size == 0 {
		size = defaultSize
	}
	p := query.NewParams(size).WithSearch(o.Search).WithFilter(o.Filter).WithPage(o.Page)
	p.PageSize = size
	return p
}

// JobList is one page of jobs.
type JobList query.Result[domain.Job]

// Text implements Texter.
func (l JobList) Text() string {
	if l.Total == 0 {
		return "No jobs found.\n"
	}
	rows := make([][]string, len(l.Items))
	for i, j := range l.Items {
		rows[i] = []string{strconv.Itoa(j.Order), j.ID, j.Title, string(j.Status), joinTags(j.Tags)}
	}
	return renderTable([]string{"#", "ID", "TITLE", "STATUS", "TAGS"}, rows) +
		pageFooter(l.Page, l.TotalPages, l.Total)
}

// JobResult reports a single job.
type JobResult struct {
	Action string     `json:"action"`
	Job    domain.Job `json:"job"`
}

// Text implements Texter.
func (r JobResult) Text() string {
	return fmt.Sprintf("%s job %s %q (%s, order %d)\n", r.Action, r.Job.ID, r.Job.Title, r.Job.Status, r.Job.Order)
}

// ReorderResult reports a reorder and how its write settled.
type ReorderResult struct {
	Generation int64        `json:"generation"`
	Order      []string     `json:"order"`
	Settled    []Settlement `json:"settled"`
}

// Text implements Texter.
func (r ReorderResult) Text() string {
	if r.Generation == 0 {
		return "Nothing to reorder.\n"
	}
	return fmt.Sprintf("Reordered (generation %d): %s\n", r.Generation, strings.Join(r.Order, ", ")) +
		settlementLines(r.Settled)
}

// DeleteResult reports a deleted job.
type DeleteResult struct {
	ID    string   `json:"id"`
	Order []string `json:"order"`
}

// Text implements Texter.
func (r DeleteResult) Text() string {
	return fmt.Sprintf("Deleted job %s. Order: %s\n", r.ID, strings.Join(r.Order, ", "))
}

// NewJobsCommand creates the jobs command group.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List, create, reorder, archive and delete jobs",
	}
	cmd.AddCommand(newJobsListCommand(rootOpts))
	cmd.AddCommand(newJobsCreateCommand(rootOpts))
	cmd.AddCommand(newJobsReorderCommand(rootOpts))
	cmd.AddCommand(newJobsArchiveCommand(rootOpts))
	cmd.AddCommand(newJobsDeleteCommand(rootOpts))
	return cmd
}

func newJobsListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in board order",
		Long: `List jobs in their global order, optionally searched and filtered.

Examples:
  talentflow jobs list
  talentflow jobs list --search engineer --status active --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Filter != "" {
				if _, err := domain.ParseJobStatus(opts.Filter); err != nil {
					return commandError("invalid --status", err)
				}
			}
			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.coord.Jobs(opts.params(s.cfg.PageSize))
			if err != nil {
				return commandError("failed to list jobs", err)
			}
			return rootOpts.formatter(cmd).Success(JobList(res))
		},
	}
	opts.bind(cmd, "status", "filter by status (active|archived)")
	return cmd
}

func newJobsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var in domain.NewJob
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job at the end of the order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			job, err := s.coord.CreateJob(cmd.Context(), in)
			if err != nil {
				return commandError("failed to create job", err)
			}
			return rootOpts.formatter(cmd).Success(JobResult{Action: "Created", Job: job})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "job title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "job description (required)")
	cmd.Flags().StringVar(&in.Location, "location", "", "location")
	cmd.Flags().StringVar(&in.Type, "type", "", "employment type")
	cmd.Flags().StringSliceVar(&in.Tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringArrayVar(&in.Requirements, "requirement", nil, "requirement (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newJobsReorderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <active-id> <over-id>",
		Short: "Move a job to another job's position",
		Long: `Move <active-id> to the position held by <over-id> and renumber every job.

The new order is applied at once and written in the background. If the
write fails the order is re-read from the database.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			sub := s.coord.Subscribe(cmd.Context())
			gen, err := s.coord.Reorder(cmd.Context(), args[0], args[1])
			if err != nil {
				return commandError("failed to reorder", err)
			}
			settled := s.settled(sub)

			res := ReorderResult{
				Generation: gen,
				Order:      jobIDs(s.coord.AllJobs()),
				Settled:    toSettlements(settled),
			}
			if err := rootOpts.formatter(cmd).Success(res); err != nil {
				return err
			}
			return settlementError(settled)
		},
	}
}

func newJobsArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Toggle a job between active and archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			job, err := s.coord.ToggleArchive(cmd.Context(), args[0])
			if err != nil {
				return commandError("failed to archive job", err)
			}
			action := "Archived"
			if job.Status == domain.JobActive {
				action = "Unarchived"
			}
			return rootOpts.formatter(cmd).Success(JobResult{Action: action, Job: job})
		},
	}
}

func newJobsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job and renumber the rest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.coord.DeleteJob(cmd.Context(), args[0]); err != nil {
				return commandError("failed to delete job", err)
			}
			return rootOpts.formatter(cmd).Success(DeleteResult{ID: args[0], Order: jobIDs(s.coord.AllJobs())})
		},
	}
}

func jobIDs(jobs []domain.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

// settlementError fails the command when a write did not stick.
func settlementError(notes []coordinator.Notification) error {
	for _, n := range notes {
		switch n.Outcome {
		case coordinator.OutcomeRolledBack, coordinator.OutcomeReconciled, coordinator.OutcomeUnrecovered:
			return WrapExitError(ExitFailure,
				fmt.Sprintf("%s %s was %s", n.Op, n.EntityID, n.Outcome),
				domain.Persistence(string(n.Op), n.Err))
		}
	}
	return nil
}
