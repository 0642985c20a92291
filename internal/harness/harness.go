package harness

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/roach88/talentflow/internal/candidates"
	"github.com/roach88/talentflow/internal/coordinator"
	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/provider"
	"github.com/roach88/talentflow/internal/store"
	"github.com/roach88/talentflow/internal/testutil"
	"github.com/roach88/talentflow/internal/transfer"
)

// Epoch is the fake clock's start time for every scenario.
var Epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// Harness executes one scenario against a fresh in-memory database.
type Harness struct {
	store  *store.Store
	faults *testutil.Faults
	hold   *testutil.Barrier
	coord  *coordinator.Coordinator
	notes  <-chan coordinator.Notification
	logger *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger routes coordinator logs to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a fake clock and
// sequential ids ("id-1", "id-2", ...), so results are reproducible. Every
// step waits for its background writes to settle before the next one runs.
// The returned error is for harness failures (bad seed data); scenario
// failures are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		faults: testutil.NewFaults(),
		hold:   &testutil.Barrier{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}

	clock := testutil.NewFakeClock(Epoch, time.Minute)
	h.coord = coordinator.New(testutil.Reliable(st, h.hold.Hook(), h.faults.Hook()),
		coordinator.WithIDGenerator(testutil.NewSequenceGenerator("id")),
		coordinator.WithNow(clock.Now),
		coordinator.WithUser(coordinator.DefaultUser),
		coordinator.WithRetry(coordinator.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}),
		coordinator.WithLogger(h.logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.notes = h.coord.Subscribe(ctx)

	if err := h.seed(ctx, scenario.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed: %w", err)
	}
	if err := h.coord.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		ev := h.execute(ctx, step)
		ev.Seq = i + 1
		h.coord.Wait()
		ev.Settled = h.drain()

		if ev.Error != step.ExpectError {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected error %q, got %q",
				i, ev.Step, step.ExpectError, ev.Error))
		}
		result.Trace = append(result.Trace, ev)
	}

	result.State = h.snapshot()

	actx := &AssertionContext{Ctx: ctx, Store: st}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) seed(ctx context.Context, seed Seed) error {
	jobs := make([]domain.Job, len(seed.Jobs))
	for i, sj := range seed.Jobs {
		order := i
		if sj.Order != nil {
			order = *sj.Order
		}
		status := domain.JobActive
		if sj.Status != "" {
			status = domain.JobStatus(sj.Status)
		}
		jobs[i] = domain.Job{
			ID:        sj.ID,
			Title:     sj.Title,
			Slug:      domain.Slugify(sj.Title),
			Status:    status,
			Tags:      sj.Tags,
			Order:     order,
			CreatedAt: Epoch,
		}
	}
	if len(jobs) > 0 {
		if err := h.store.BulkPut(ctx, provider.TableJobs, provider.AsRecords(jobs)); err != nil {
			return fmt.Errorf("seed jobs: %w", err)
		}
	}

	titles := make(map[string]string, len(jobs))
	for _, j := range jobs {
		titles[j.ID] = j.Title
	}
	cands := make([]domain.Candidate, len(seed.Candidates))
	for i, sc := range seed.Candidates {
		stage := domain.StageApplied
		if sc.Stage != "" {
			stage = domain.Stage(sc.Stage)
		}
		cands[i] = domain.Candidate{
			ID:          sc.ID,
			Name:        sc.Name,
			Email:       sc.Email,
			Stage:       stage,
			JobID:       sc.JobID,
			JobTitle:    titles[sc.JobID],
			AppliedDate: Epoch,
		}
	}
	if len(cands) > 0 {
		if err := h.store.BulkPut(ctx, provider.TableCandidates, provider.AsRecords(cands)); err != nil {
			return fmt.Errorf("seed candidates: %w", err)
		}
	}
	return nil
}

// execute runs one step and records what it did. The returned event has no
// Seq or Settled yet. Optimistic steps run with the provider held so the
// recorded state is the one the step applied, not a settled one.
func (h *Harness) execute(ctx context.Context, step Step) TraceEvent {
	switch {
	case step.Reorder != nil:
		h.hold.Hold()
		defer h.hold.Release()
		ev := TraceEvent{Step: "reorder", Args: map[string]any{
			"active": step.Reorder.Active,
			"over":   step.Reorder.Over,
		}}
		_, err := h.coord.Reorder(ctx, step.Reorder.Active, step.Reorder.Over)
		ev.Error = codeOf(err)
		if err == nil {
			ev.Optimistic = jobIDs(h.coord.AllJobs())
		}
		return ev

	case step.Move != nil:
		h.hold.Hold()
		defer h.hold.Release()
		m := step.Move
		args := map[string]any{"id": m.ID}
		var target candidates.Target = candidates.Column{Stage: domain.Stage(m.Stage)}
		if m.Onto != "" {
			target = candidates.Card{ID: m.Onto}
			args["onto"] = m.Onto
		} else {
			args["stage"] = m.Stage
		}
		if m.Notes != "" {
			args["notes"] = m.Notes
		}
		ev := TraceEvent{Step: "move", Args: args}
		res, err := h.coord.MoveCandidate(ctx, m.ID, target, coordinator.WithNotes(m.Notes))
		ev.Error = codeOf(err)
		if err == nil {
			column := make([]string, 0)
			for _, c := range h.coord.Board(res.To) {
				column = append(column, c.ID)
			}
			ev.Optimistic = []string{
				res.Kind.String(),
				fmt.Sprintf("%s: %s", res.To, strings.Join(column, ", ")),
			}
		}
		return ev

	case step.CreateJob != nil:
		cj := step.CreateJob
		ev := TraceEvent{Step: "create_job", Args: map[string]any{"title": cj.Title}}
		job, err := h.coord.CreateJob(ctx, domain.NewJob{
			Title:       cj.Title,
			Description: cj.Description,
			Tags:        cj.Tags,
		})
		ev.Error = codeOf(err)
		if err == nil {
			ev.Optimistic = []string{job.ID, job.Slug}
		}
		return ev

	case step.CreateCandidate != nil:
		cc := step.CreateCandidate
		ev := TraceEvent{Step: "create_candidate", Args: map[string]any{
			"name":   cc.Name,
			"email":  cc.Email,
			"job_id": cc.JobID,
		}}
		cand, err := h.coord.CreateCandidate(ctx, domain.NewCandidate{
			Name:  cc.Name,
			Email: cc.Email,
			JobID: cc.JobID,
		})
		ev.Error = codeOf(err)
		if err == nil {
			ev.Optimistic = []string{cand.ID, string(cand.Stage)}
		}
		return ev

	case step.Archive != "":
		ev := TraceEvent{Step: "archive", Args: map[string]any{"id": step.Archive}}
		job, err := h.coord.ToggleArchive(ctx, step.Archive)
		ev.Error = codeOf(err)
		if err == nil {
			ev.Optimistic = []string{string(job.Status)}
		}
		return ev

	case step.DeleteJob != "":
		ev := TraceEvent{Step: "delete_job", Args: map[string]any{"id": step.DeleteJob}}
		err := h.coord.DeleteJob(ctx, step.DeleteJob)
		ev.Error = codeOf(err)
		if err == nil {
			ev.Optimistic = jobIDs(h.coord.AllJobs())
		}
		return ev

	case step.ImportCSV != "":
		ev := TraceEvent{Step: "import_csv"}
		parsed, err := transfer.ImportCSV(strings.NewReader(step.ImportCSV), h.coord.AllJobs())
		if err == nil {
			var imported []domain.Candidate
			imported, err = h.coord.ImportCandidates(ctx, parsed)
			for _, c := range imported {
				ev.Optimistic = append(ev.Optimistic, c.ID+":"+c.JobID)
			}
		}
		ev.Args = map[string]any{"rows": len(parsed)}
		ev.Error = codeOf(err)
		return ev

	case step.Fail != nil:
		f := step.Fail
		h.faults.Fail(testutil.Match{Name: f.Op, Table: provider.Table(f.Table), ID: f.ID}, f.Times)
		args := map[string]any{"op": f.Op, "times": f.Times}
		if f.Table != "" {
			args["table"] = f.Table
		}
		if f.ID != "" {
			args["id"] = f.ID
		}
		return TraceEvent{Step: "fail", Args: args}
	}
	return TraceEvent{Step: "unknown"}
}

// drain collects the notifications already delivered, ordered by
// generation. Settlement order between concurrent writes is not
// deterministic; generation order is.
func (h *Harness) drain() []string {
	var got []coordinator.Notification
loop:
	for {
		select {
		case n := <-h.notes:
			got = append(got, n)
		default:
			break loop
		}
	}
	slices.SortStableFunc(got, func(a, b coordinator.Notification) int {
		return cmp.Compare(a.Generation, b.Generation)
	})
	out := make([]string, len(got))
	for i, n := range got {
		out[i] = fmt.Sprintf("%s:%s:%s", n.Op, n.EntityID, n.Outcome)
	}
	return out
}

func (h *Harness) snapshot() State {
	st := State{
		Jobs:       jobIDs(h.coord.AllJobs()),
		Candidates: map[string]string{},
		Timeline:   map[string][]string{},
	}
	for _, c := range h.coord.AllCandidates() {
		st.Candidates[c.ID] = string(c.Stage)
		events, err := h.coord.Timeline(c.ID)
		if err != nil || len(events) == 0 {
			continue
		}
		lines := make([]string, len(events))
		for i, e := range events {
			lines[i] = fmt.Sprintf("%s: %s (%s)", e.Stage, e.Notes, e.ChangedBy)
		}
		st.Timeline[c.ID] = lines
	}
	return st
}

func jobIDs(jobs []domain.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

// codeOf reduces an error to its domain code. Errors outside the domain
// taxonomy are reported verbatim.
func codeOf(err error) string {
	if err == nil {
		return ""
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return string(de.Code)
	}
	return err.Error()
}
