package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/talentflow/internal/candidates"
	"github.com/roach88/talentflow/internal/coordinator"
	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/query"
)

// CandidateList is one page of candidates.
type CandidateList query.Result[domain.Candidate]

// Text implements Texter.
func (l CandidateList) Text() string {
	if l.Total == 0 {
		return "No candidates found.\n"
	}
	rows := make([][]string, len(l.Items))
	for i, c := range l.Items {
		rows[i] = []string{c.ID, c.Name, c.Email, string(c.Stage), c.JobTitle, formatDate(c)}
	}
	return renderTable([]string{"ID", "NAME", "EMAIL", "STAGE", "JOB", "APPLIED"}, rows) +
		pageFooter(l.Page, l.TotalPages, l.Total)
}

// CandidateResult reports a single candidate.
type CandidateResult struct {
	Action    string           `json:"action"`
	Candidate domain.Candidate `json:"candidate"`
}

// Text implements Texter.
func (r CandidateResult) Text() string {
	return fmt.Sprintf("%s candidate %s %q (%s)\n", r.Action, r.Candidate.ID, r.Candidate.Name, r.Candidate.Stage)
}

// MoveResult reports a Kanban drop and how its write settled.
type MoveResult struct {
	Kind       string       `json:"kind"`
	ID         string       `json:"id"`
	From       domain.Stage `json:"from"`
	To         domain.Stage `json:"to"`
	Stage      domain.Stage `json:"stage"` // stage after settlement
	Generation int64        `json:"generation,omitempty"`
	Settled    []Settlement `json:"settled"`
}

// Text implements Texter.
func (r MoveResult) Text() string {
	switch r.Kind {
	case candidates.NoOp.String():
		return fmt.Sprintf("Candidate %s stays in %s.\n", r.ID, r.Stage)
	case candidates.Reposition.String():
		return fmt.Sprintf("Candidate %s repositioned within %s.\n", r.ID, r.Stage)
	}
	return fmt.Sprintf("Moved candidate %s: %s -> %s (now %s)\n", r.ID, r.From, r.To, r.Stage) +
		settlementLines(r.Settled)
}

// TimelineResult lists a candidate's stage history.
type TimelineResult struct {
	Candidate domain.Candidate       `json:"candidate"`
	Events    []domain.TimelineEvent `json:"events"`
}

// Text implements Texter.
func (r TimelineResult) Text() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", r.Candidate.Name, r.Candidate.Stage)) + "\n")
	if len(r.Events) == 0 {
		b.WriteString("No timeline events.\n")
		return b.String()
	}
	rows := make([][]string, len(r.Events))
	for i, e := range r.Events {
		rows[i] = []string{e.Timestamp.Format("2006-01-02 15:04"), string(e.Stage), e.Notes, e.ChangedBy}
	}
	b.WriteString(renderTable([]string{"WHEN", "STAGE", "NOTES", "BY"}, rows))
	return b.String()
}

// BoardColumn is one Kanban column.
type BoardColumn struct {
	Stage      domain.Stage       `json:"stage"`
	Candidates []domain.Candidate `json:"candidates"`
}

// Board is the Kanban view.
type Board struct {
	Columns []BoardColumn `json:"columns"`
}

// Text implements Texter.
func (b Board) Text() string {
	return renderColumns(b.Columns)
}

// NewCandidatesCommand creates the candidates command group.
func NewCandidatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List, create and move candidates",
	}
	cmd.AddCommand(newCandidatesListCommand(rootOpts))
	cmd.AddCommand(newCandidatesCreateCommand(rootOpts))
	cmd.AddCommand(newCandidatesMoveCommand(rootOpts))
	cmd.AddCommand(newCandidatesTimelineCommand(rootOpts))
	cmd.AddCommand(newCandidatesBoardCommand(rootOpts))
	return cmd
}

func newCandidatesListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{}
	var jobID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidates",
		Long: `List candidates, optionally searched by name or email and filtered by stage.

With --job the candidates are read from the database for that job rather
than from the loaded view.

Examples:
  talentflow candidates list --stage screening
  talentflow candidates list --search doe --job job-3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Filter != "" {
				if _, err := domain.ParseStage(opts.Filter); err != nil {
					return commandError("invalid --stage", err)
				}
			}
			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			p := opts.params(s.cfg.PageSize)
			var res query.Result[domain.Candidate]
			if jobID == "" {
				res, err = s.coord.Candidates(p)
			} else {
				var fetched []domain.Candidate
				fetched, err = s.coord.FetchCandidates(cmd.Context(), domain.Stage(opts.Filter), jobID)
				if err == nil {
					res, err = query.Compute(fetched, query.Candidates, p)
				}
			}
			if err != nil {
				return commandError("failed to list candidates", err)
			}
			return rootOpts.formatter(cmd).Success(CandidateList(res))
		},
	}
	opts.bind(cmd, "stage", "filter by stage")
	cmd.Flags().StringVar(&jobID, "job", "", "only candidates for this job id")
	return cmd
}

func newCandidatesCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var in domain.NewCandidate
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a candidate in the applied stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.coord.CreateCandidate(cmd.Context(), in)
			if err != nil {
				return commandError("failed to create candidate", err)
			}
			return rootOpts.formatter(cmd).Success(CandidateResult{Action: "Created", Candidate: c})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.JobID, "job", "", "job id (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func newCandidatesMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var stage, onto, notes string
	cmd := &cobra.Command{
		Use:   "move <id> (--stage <stage> | --onto <candidate-id>)",
		Short: "Drop a candidate onto a stage column or another card",
		Long: `Drop a candidate onto a stage column (--stage) or onto another candidate's
card (--onto). Dropping onto a card in the same column only repositions it.

A stage change is applied at once and written in the background. When the
write fails the candidate returns to its last saved stage and no timeline
event is recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target candidates.Target
			switch {
			case stage != "" && onto == "":
				target = candidates.Column{Stage: domain.Stage(stage)}
			case onto != "" && stage == "":
				target = candidates.Card{ID: onto}
			default:
				return NewExitError(ExitCommandError, "exactly one of --stage or --onto is required")
			}

			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			sub := s.coord.Subscribe(cmd.Context())
			mv, err := s.coord.MoveCandidate(cmd.Context(), args[0], target, coordinator.WithNotes(notes))
			if err != nil {
				return commandError("failed to move candidate", err)
			}
			settled := s.settled(sub)

			now, err := s.coord.Candidate(args[0])
			if err != nil {
				return commandError("failed to read candidate", err)
			}
			res := MoveResult{
				Kind:       mv.Kind.String(),
				ID:         mv.CandidateID,
				From:       mv.From,
				To:         mv.To,
				Stage:      now.Stage,
				Generation: mv.Generation,
				Settled:    toSettlements(settled),
			}
			if err := rootOpts.formatter(cmd).Success(res); err != nil {
				return err
			}
			return settlementError(settled)
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "target stage column")
	cmd.Flags().StringVar(&onto, "onto", "", "candidate id whose card is the drop target")
	cmd.Flags().StringVar(&notes, "notes", "", "timeline note (default \"Moved to <stage>\")")
	return cmd
}

func newCandidatesTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <id>",
		Short: "Show a candidate's stage history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.coord.Candidate(args[0])
			if err != nil {
				return commandError("failed to read candidate", err)
			}
			events, err := s.coord.Timeline(args[0])
			if err != nil {
				return commandError("failed to read timeline", err)
			}
			return rootOpts.formatter(cmd).Success(TimelineResult{Candidate: c, Events: events})
		},
	}
}

func newCandidatesBoardCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show candidates as Kanban columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var b Board
			for _, st := range domain.Stages() {
				b.Columns = append(b.Columns, BoardColumn{Stage: st, Candidates: s.coord.Board(st)})
			}
			return rootOpts.formatter(cmd).Success(b)
		},
	}
}
