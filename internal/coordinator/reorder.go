package coordinator

import (
	"context"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/provider"
)

// Reorder moves job activeID to overID's position in the global order,
// renumbers every job, and persists the full renumbering in the background.
//
// It returns the mutation's generation, or 0 when nothing changed
// (activeID == overID). NOT_FOUND errors leave state untouched. A failed
// write is not returned: the order is re-read from the provider and the
// outcome is reported through Subscribe. A reorder overtaken by a newer
// reorder or a delete before its write starts is not written at all.
func (c *Coordinator) Reorder(ctx context.Context, activeID, overID string) (int64, error) {
	c.mu.Lock()
	_, changed, err := c.jobs.Reorder(activeID, overID)
	if err != nil || !changed {
		c.mu.Unlock()
		return 0, err
	}
	gen := c.clock.Next()
	c.reorderGen = gen
	c.mu.Unlock()

	c.logger.Debug("reorder applied", "job_id", activeID, "over_id", overID, "generation", gen)

	c.background(ctx, func(ctx context.Context) {
		c.writeReorder(ctx, gen, activeID)
	})
	return gen, nil
}

// writeReorder writes the in-memory job set as one bulk write while gen is
// still the newest reorder. The set is taken at write time, so it carries
// every create, update and delete that finished before it.
func (c *Coordinator) writeReorder(ctx context.Context, gen int64, activeID string) {
	c.jobWrites.RLock()
	defer c.jobWrites.RUnlock()

	c.mu.Lock()
	latest := c.reorderGen == gen
	current := c.jobs.Snapshot()
	c.mu.Unlock()
	if !latest {
		c.notify(Notification{Op: OpReorder, Outcome: OutcomeSuperseded, Generation: gen, EntityID: activeID})
		return
	}

	err := c.provider.BulkPut(ctx, provider.TableJobs, provider.AsRecords(current))
	c.settleReorder(ctx, gen, activeID, err)
}

func (c *Coordinator) settleReorder(ctx context.Context, gen int64, activeID string, writeErr error) {
	n := Notification{Op: OpReorder, Generation: gen, EntityID: activeID, Err: writeErr}

	c.mu.Lock()
	newest := c.reorderGen
	if gen == newest {
		c.reorderSettled = gen
	}
	// An older order that lands after the newest one settled is what the
	// provider now holds.
	landedLast := gen != newest && writeErr == nil && c.reorderSettled == newest
	c.mu.Unlock()

	switch {
	case landedLast:
		c.logger.Warn("older job order landed last, re-reading job order", "generation", gen, "newest", newest)
		n.Outcome = c.reconcileJobs(ctx, newest)
	case gen != newest:
		n.Outcome = OutcomeSuperseded
	case writeErr == nil:
		n.Outcome = OutcomeCommitted
	default:
		c.logger.Warn("reorder write failed, re-reading job order", "generation", gen, "error", writeErr)
		n.Outcome = c.reconcileJobs(ctx, gen)
	}
	c.notify(n)
}

// reconcileJobs replaces the in-memory order with the provider's canonical
// order, unless a reorder newer than gen was submitted while reading.
func (c *Coordinator) reconcileJobs(ctx context.Context, gen int64) Outcome {
	c.reconcileMu.Lock()
	defer c.reconcileMu.Unlock()

	var fetched []domain.Job
	err := c.retry.do(ctx, func(ctx context.Context) error {
		var err error
		fetched, err = c.fetchJobs(ctx)
		return err
	})
	if err != nil {
		c.logger.Error("job order reconciliation failed", "generation", gen, "error", err)
		return OutcomeUnrecovered
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reorderGen != gen {
		return OutcomeSuperseded
	}
	c.jobs.Replace(fetched)
	return OutcomeReconciled
}
