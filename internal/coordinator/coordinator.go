package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/talentflow/internal/candidates"
	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/jobs"
	"github.com/roach88/talentflow/internal/provider"
	"github.com/roach88/talentflow/internal/query"
)

// DefaultUser is recorded as changedBy when no current user is configured.
const DefaultUser = "Current User"

// Coordinator is the OptimisticMutationCoordinator.
//
// Thread-safety model:
//   - every exported method is safe from any goroutine
//   - Run must be called from exactly one goroutine
//   - the in-memory stores are owned by the Coordinator; read them through
//     its methods
type Coordinator struct {
	provider provider.Provider
	jobs     *jobs.Store
	cands    *candidates.Store
	clock    *Clock
	ids      IDGenerator
	now      func() time.Time
	user     string
	retry    RetryPolicy
	logger   *slog.Logger
	queue    *eventQueue

	// mu serialises optimistic apply with generation assignment.
	mu             sync.Mutex
	reorderGen     int64 // newest reorder or delete
	reorderSettled int64 // newest generation whose write has settled
	moves          map[string]*moveState

	// writeMu serialises pessimistic operations.
	writeMu sync.Mutex

	// jobWrites fences background reorder writes (read side) against
	// pessimistic job writes (write side), so a stale job set is never
	// written over a create, update or delete.
	jobWrites sync.RWMutex

	// reconcileMu makes each job re-read and replace atomic with respect to
	// other re-reads.
	reconcileMu sync.Mutex

	inflight sync.WaitGroup

	subsMu  sync.Mutex
	subs    map[int]*subscriber
	nextSub int
}

// moveState tracks the outstanding stage moves of one candidate.
type moveState struct {
	latest        int64        // generation of the newest submitted move
	latestSettled bool         // the newest move's write has settled
	pending       int          // moves whose write has not settled
	durable       domain.Stage // stage written by the last write to land
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithIDGenerator sets the id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Coordinator) { c.ids = g }
}

// WithNow sets the time source for event timestamps and created dates.
func WithNow(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithUser sets the changedBy recorded on stage moves.
func WithUser(user string) Option {
	return func(c *Coordinator) {
		if user != "" {
			c.user = user
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithRetry sets the retry policy for timeline appends and reconciliation
// reads.
func WithRetry(p RetryPolicy) Option {
	return func(c *Coordinator) { c.retry = p }
}

// New creates a Coordinator over p with empty stores. Call Load to hydrate.
func New(p provider.Provider, opts ...Option) *Coordinator {
	c := &Coordinator{
		provider: p,
		jobs:     jobs.New(nil),
		cands:    candidates.New(nil, nil),
		clock:    NewClock(),
		ids:      UUIDv7Generator{},
		now:      func() time.Time { return time.Now().UTC() },
		user:     DefaultUser,
		retry:    DefaultRetryPolicy,
		logger:   slog.Default(),
		queue:    newEventQueue(),
		moves:    make(map[string]*moveState),
		subs:     make(map[int]*subscriber),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads all jobs, candidates and timeline events from the provider
// concurrently and replaces the in-memory state. Errors are returned
// directly: there is no optimistic state to protect.
func (c *Coordinator) Load(ctx context.Context) error {
	var (
		js  []domain.Job
		cs  []domain.Candidate
		evs []domain.TimelineEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		js, err = c.fetchJobs(gctx)
		return err
	})
	g.Go(func() error {
		recs, err := c.provider.All(gctx, provider.TableCandidates)
		if err != nil {
			return domain.Persistence("load candidates", err)
		}
		cs, err = provider.Candidates(recs)
		return err
	})
	g.Go(func() error {
		recs, err := c.provider.All(gctx, provider.TableTimeline)
		if err != nil {
			return domain.Persistence("load timeline", err)
		}
		evs, err = provider.TimelineEvents(recs)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs.Replace(js)
	c.cands.Replace(cs, evs)
	c.logger.Info("state loaded", "jobs", len(js), "candidates", len(cs), "events", len(evs))
	return nil
}

// Wait blocks until every background write has settled.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

// Jobs returns a page of the in-memory job collection.
func (c *Coordinator) Jobs(p query.Params) (query.Result[domain.Job], error) {
	return query.Compute(c.jobs.Snapshot(), query.Jobs, p)
}

// Candidates returns a page of the in-memory candidate collection.
func (c *Coordinator) Candidates(p query.Params) (query.Result[domain.Candidate], error) {
	return query.Compute(c.cands.Snapshot(), query.Candidates, p)
}

// AllJobs returns every job in order.
func (c *Coordinator) AllJobs() []domain.Job {
	return c.jobs.Snapshot()
}

// AllCandidates returns every candidate.
func (c *Coordinator) AllCandidates() []domain.Candidate {
	return c.cands.Snapshot()
}

// Job returns one job.
func (c *Coordinator) Job(id string) (domain.Job, error) {
	j, ok := c.jobs.Get(id)
	if !ok {
		return domain.Job{}, domain.NotFound("job", id)
	}
	return j, nil
}

// Candidate returns one candidate.
func (c *Coordinator) Candidate(id string) (domain.Candidate, error) {
	cand, ok := c.cands.Get(id)
	if !ok {
		return domain.Candidate{}, domain.NotFound("candidate", id)
	}
	return cand, nil
}

// Board returns the Kanban column for stage.
func (c *Coordinator) Board(stage domain.Stage) []domain.Candidate {
	return c.cands.Column(stage)
}

// Timeline returns a candidate's events, oldest first.
func (c *Coordinator) Timeline(candidateID string) ([]domain.TimelineEvent, error) {
	if _, ok := c.cands.Get(candidateID); !ok {
		return nil, domain.NotFound("candidate", candidateID)
	}
	return c.cands.Timeline(candidateID), nil
}

// FetchJobs reads jobs straight from the provider, optionally by status.
// Provider errors are surfaced.
func (c *Coordinator) FetchJobs(ctx context.Context, status domain.JobStatus) ([]domain.Job, error) {
	if status == "" {
		return c.fetchJobs(ctx)
	}
	recs, err := c.provider.Query(ctx, provider.TableJobs, "status", string(status))
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", domain.Persistence("query jobs", err))
	}
	return provider.Jobs(recs)
}

// FetchCandidates reads candidates straight from the provider. Empty stage
// or jobID means no constraint; both given are ANDed.
func (c *Coordinator) FetchCandidates(ctx context.Context, stage domain.Stage, jobID string) ([]domain.Candidate, error) {
	var byStage, byJob []domain.Candidate

	g, gctx := errgroup.WithContext(ctx)
	if stage != "" {
		g.Go(func() error {
			var err error
			byStage, err = c.queryCandidates(gctx, "stage", string(stage))
			return err
		})
	}
	if jobID != "" {
		g.Go(func() error {
			var err error
			byJob, err = c.queryCandidates(gctx, "job_id", jobID)
			return err
		})
	}
	if stage == "" && jobID == "" {
		g.Go(func() error {
			recs, err := c.provider.All(gctx, provider.TableCandidates)
			if err != nil {
				return domain.Persistence("read candidates", err)
			}
			byStage, err = provider.Candidates(recs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	switch {
	case stage != "" && jobID != "":
		return intersect(byStage, byJob), nil
	case jobID != "":
		return byJob, nil
	default:
		return byStage, nil
	}
}

func (c *Coordinator) queryCandidates(ctx context.Context, field, value string) ([]domain.Candidate, error) {
	recs, err := c.provider.Query(ctx, provider.TableCandidates, field, value)
	if err != nil {
		return nil, domain.Persistence("query candidates", err)
	}
	return provider.Candidates(recs)
}

func (c *Coordinator) fetchJobs(ctx context.Context) ([]domain.Job, error) {
	recs, err := c.provider.All(ctx, provider.TableJobs)
	if err != nil {
		return nil, domain.Persistence("read jobs", err)
	}
	return provider.Jobs(recs)
}

// intersect keeps the elements of a whose id also appears in b, in a's order.
func intersect(a, b []domain.Candidate) []domain.Candidate {
	keep := make(map[string]bool, len(b))
	for _, c := range b {
		keep[c.ID] = true
	}
	out := make([]domain.Candidate, 0, len(a))
	for _, c := range a {
		if keep[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// background runs fn on its own goroutine, detached from the caller's
// cancellation, and tracks it for Wait.
func (c *Coordinator) background(ctx context.Context, fn func(context.Context)) {
	ctx = context.WithoutCancel(ctx)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		fn(ctx)
	}()
}
