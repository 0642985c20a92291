package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/provider"
)

// CreateJob persists a new active job at the end of the order and then adds
// it to memory.
func (c *Coordinator) CreateJob(ctx context.Context, in domain.NewJob) (domain.Job, error) {
	if err := in.Validate(); err != nil {
		return domain.Job{}, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.jobWrites.Lock()
	defer c.jobWrites.Unlock()

	title := strings.TrimSpace(in.Title)
	job := domain.Job{
		ID:           c.ids.Generate(),
		Title:        title,
		Slug:         uniqueSlug(domain.Slugify(title), c.jobs.Snapshot()),
		Status:       domain.JobActive,
		Tags:         in.Tags,
		Order:        c.jobs.NextOrder(),
		Location:     in.Location,
		Type:         in.Type,
		Description:  in.Description,
		Requirements: in.Requirements,
		CreatedAt:    c.now(),
	}
	if err := c.provider.BulkPut(ctx, provider.TableJobs, []domain.Record{job}); err != nil {
		return domain.Job{}, fmt.Errorf("create job: %w", domain.Persistence("put job", err))
	}
	job, err := c.jobs.Insert(job)
	if err != nil {
		return domain.Job{}, fmt.Errorf("create job: %w", err)
	}
	c.logger.Info("job created", "job_id", job.ID, "order", job.Order)
	return job, nil
}

// UpdateJob applies a field update in the provider and then in memory.
func (c *Coordinator) UpdateJob(ctx context.Context, id string, u domain.JobUpdate) (domain.Job, error) {
	if err := u.Validate(); err != nil {
		return domain.Job{}, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.jobWrites.Lock()
	defer c.jobWrites.Unlock()

	if _, ok := c.jobs.Get(id); !ok {
		return domain.Job{}, domain.NotFound("job", id)
	}
	if err := c.provider.Update(ctx, provider.TableJobs, id, u); err != nil {
		return domain.Job{}, fmt.Errorf("update job: %w", domain.Persistence("update "+u.Kind(), err))
	}
	_, after, err := c.jobs.Apply(id, u)
	if err != nil {
		return domain.Job{}, fmt.Errorf("update job: %w", err)
	}
	return after, nil
}

// ToggleArchive flips a job between active and archived.
func (c *Coordinator) ToggleArchive(ctx context.Context, id string) (domain.Job, error) {
	j, ok := c.jobs.Get(id)
	if !ok {
		return domain.Job{}, domain.NotFound("job", id)
	}
	return c.UpdateJob(ctx, id, domain.JobStatusChange{Status: j.Status.Toggle()})
}

// DeleteJob deletes a job in the provider, removes it from memory, and
// persists the renumbered remainder so the order stays dense. Candidates
// referencing the job are left alone. It waits for reorder writes already
// in flight, and reorders submitted before it finishes are superseded and
// never written.
//
// If the renumbering write fails the order is re-read from the provider and
// the error is returned; the delete itself stands.
func (c *Coordinator) DeleteJob(ctx context.Context, id string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.jobWrites.Lock()
	defer c.jobWrites.Unlock()

	if _, ok := c.jobs.Get(id); !ok {
		return domain.NotFound("job", id)
	}
	if err := c.provider.Delete(ctx, provider.TableJobs, id); err != nil {
		return fmt.Errorf("delete job: %w", domain.Persistence("delete job", err))
	}

	c.mu.Lock()
	rest, err := c.jobs.Remove(id)
	gen := c.clock.Next()
	c.reorderGen, c.reorderSettled = gen, gen
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	if err := c.provider.BulkPut(ctx, provider.TableJobs, provider.AsRecords(rest)); err != nil {
		c.logger.Warn("renumbering after delete failed, re-reading job order", "job_id", id, "error", err)
		c.reconcileJobs(ctx, gen)
		return fmt.Errorf("delete job: %w", domain.Persistence("renumber jobs", err))
	}
	c.logger.Info("job deleted", "job_id", id, "remaining", len(rest))
	return nil
}

// CreateCandidate persists a new candidate in the applied stage together
// with its initial timeline event, then adds both to memory.
func (c *Coordinator) CreateCandidate(ctx context.Context, in domain.NewCandidate) (domain.Candidate, error) {
	if err := in.Validate(); err != nil {
		return domain.Candidate{}, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	now := c.now()
	cand := domain.Candidate{
		ID:          c.ids.Generate(),
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Stage:       domain.StageApplied,
		JobID:       in.JobID,
		JobTitle:    in.JobTitle,
		AppliedDate: now,
	}
	if cand.JobTitle == "" {
		if j, ok := c.jobs.Get(in.JobID); ok {
			cand.JobTitle = j.Title
		}
	}
	if err := c.provider.BulkPut(ctx, provider.TableCandidates, []domain.Record{cand}); err != nil {
		return domain.Candidate{}, fmt.Errorf("create candidate: %w", domain.Persistence("put candidate", err))
	}
	if err := c.cands.Insert(cand); err != nil {
		return domain.Candidate{}, fmt.Errorf("create candidate: %w", err)
	}

	ev, err := c.cands.AppendEvent(domain.TimelineEvent{
		ID:          c.ids.Generate(),
		CandidateID: cand.ID,
		Stage:       domain.StageApplied,
		Timestamp:   now,
		Notes:       domain.InitialEventNotes,
		ChangedBy:   domain.InitialEventAuthor,
	})
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("create candidate: %w", err)
	}
	c.persistEvent(ctx, ev)

	c.logger.Info("candidate created", "candidate_id", cand.ID, "job_id", cand.JobID)
	return cand, nil
}

// ImportCandidates persists candidates in one bulk write and adds them to
// memory. Candidates without an id get one. No timeline events are written.
// Ids already present in memory are rejected before any I/O.
func (c *Coordinator) ImportCandidates(ctx context.Context, cands []domain.Candidate) ([]domain.Candidate, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	out := make([]domain.Candidate, len(cands))
	seen := make(map[string]bool, len(cands))
	for i, cand := range cands {
		if cand.ID == "" {
			cand.ID = c.ids.Generate()
		}
		if !cand.Stage.Valid() {
			return nil, domain.Validationf("candidate %d: unknown stage %q", i+1, cand.Stage)
		}
		if _, exists := c.cands.Get(cand.ID); exists || seen[cand.ID] {
			return nil, domain.Validationf("candidate %d: id %q already exists", i+1, cand.ID)
		}
		seen[cand.ID] = true
		out[i] = cand
	}
	if len(out) == 0 {
		return out, nil
	}

	if err := c.provider.BulkPut(ctx, provider.TableCandidates, provider.AsRecords(out)); err != nil {
		return nil, fmt.Errorf("import candidates: %w", domain.Persistence("put candidates", err))
	}
	for _, cand := range out {
		if err := c.cands.Insert(cand); err != nil {
			return nil, fmt.Errorf("import candidates: %w", err)
		}
	}
	c.logger.Info("candidates imported", "count", len(out))
	return out, nil
}

// uniqueSlug returns base, or base-2, base-3, ... if base is taken.
func uniqueSlug(base string, existing []domain.Job) string {
	taken := make(map[string]bool, len(existing))
	for _, j := range existing {
		taken[j.Slug] = true
	}
	slug := base
	for n := 2; taken[slug]; n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return slug
}
