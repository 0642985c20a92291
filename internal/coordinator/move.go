package coordinator

import (
	"context"

	"github.com/roach88/talentflow/internal/candidates"
	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/provider"
)

// MoveOption configures a single MoveCandidate call.
type MoveOption func(*moveOptions)

type moveOptions struct {
	notes string
}

// WithNotes sets the timeline note for the move. Empty keeps the default
// "Moved to <stage>".
func WithNotes(notes string) MoveOption {
	return func(o *moveOptions) { o.notes = notes }
}

// MoveResult describes what MoveCandidate did.
type MoveResult struct {
	candidates.Move
	// Generation is 0 unless the move changed the stage.
	Generation int64
}

// MoveCandidate applies a Kanban drop of candidate id onto target.
//
// A stage change is applied in memory at once and persisted in the
// background. When the write succeeds one TimelineEvent is appended; when it
// fails the candidate is reverted to its last persisted stage and no event
// is appended. When an older move's write lands after the newest one has
// settled, the candidate follows the stage the provider now holds.
// Repositions within a column and no-op drops touch neither
// the provider nor the timeline.
func (c *Coordinator) MoveCandidate(ctx context.Context, id string, target candidates.Target, opts ...MoveOption) (MoveResult, error) {
	var o moveOptions
	for _, opt := range opts {
		opt(&o)
	}

	c.mu.Lock()
	mv, err := c.cands.Move(id, target)
	if err != nil || mv.Kind != candidates.StageChange {
		c.mu.Unlock()
		return MoveResult{Move: mv}, err
	}
	gen := c.clock.Next()
	st, ok := c.moves[id]
	if !ok {
		st = &moveState{durable: mv.From}
		c.moves[id] = st
	}
	st.latest = gen
	st.latestSettled = false
	st.pending++
	c.mu.Unlock()

	c.logger.Debug("stage move applied",
		"candidate_id", id, "from", mv.From, "to", mv.To, "generation", gen)

	notes := o.notes
	if notes == "" {
		notes = domain.DefaultMoveNotes(mv.To)
	}
	c.background(ctx, func(ctx context.Context) {
		err := c.provider.Update(ctx, provider.TableCandidates, id, domain.CandidateStage{Stage: mv.To})
		c.settleMove(ctx, gen, mv, notes, err)
	})
	return MoveResult{Move: mv, Generation: gen}, nil
}

func (c *Coordinator) settleMove(ctx context.Context, gen int64, mv candidates.Move, notes string, writeErr error) {
	n := Notification{Op: OpMove, Generation: gen, EntityID: mv.CandidateID, Err: writeErr}

	c.mu.Lock()
	st := c.moves[mv.CandidateID]
	latest := st.latest == gen
	if writeErr == nil {
		st.durable = mv.To
	}
	if latest {
		st.latestSettled = true
	}
	st.pending--
	if st.pending == 0 {
		delete(c.moves, mv.CandidateID)
	}

	switch {
	case latest && writeErr == nil:
		n.Outcome = OutcomeCommitted
	case latest:
		n.Outcome = OutcomeRolledBack
		c.revertStage(mv.CandidateID, st.durable)
	case writeErr == nil && st.latestSettled:
		// An older move landed after the newest one settled; the provider
		// now holds its stage.
		n.Outcome = OutcomeReconciled
		c.revertStage(mv.CandidateID, st.durable)
	default:
		n.Outcome = OutcomeSuperseded
	}
	durable := st.durable
	c.mu.Unlock()

	switch n.Outcome {
	case OutcomeRolledBack:
		c.logger.Warn("stage write failed, reverted",
			"candidate_id", mv.CandidateID, "generation", gen, "stage", durable, "error", writeErr)
	case OutcomeReconciled:
		c.logger.Warn("older stage write landed last",
			"candidate_id", mv.CandidateID, "generation", gen, "stage", durable)
	}

	if writeErr == nil {
		// The stage change is durable, superseded or not, so it is logged.
		c.appendStageEvent(ctx, mv, notes)
	}
	c.notify(n)
}

func (c *Coordinator) revertStage(id string, stage domain.Stage) {
	if err := c.cands.Revert(id, stage); err != nil {
		c.logger.Error("stage revert failed", "candidate_id", id, "error", err)
	}
}

// appendStageEvent records a persisted stage change in memory and then in
// the provider. The provider write is keyed by event id, so retries cannot
// duplicate it.
func (c *Coordinator) appendStageEvent(ctx context.Context, mv candidates.Move, notes string) {
	ev, err := c.cands.AppendEvent(domain.TimelineEvent{
		ID:          c.ids.Generate(),
		CandidateID: mv.CandidateID,
		Stage:       mv.To,
		Timestamp:   c.now(),
		Notes:       notes,
		ChangedBy:   c.user,
	})
	if err != nil {
		c.logger.Error("timeline append failed", "candidate_id", mv.CandidateID, "error", err)
		return
	}
	c.persistEvent(ctx, ev)
}

func (c *Coordinator) persistEvent(ctx context.Context, ev domain.TimelineEvent) {
	err := c.retry.do(ctx, func(ctx context.Context) error {
		return c.provider.BulkPut(ctx, provider.TableTimeline, []domain.Record{ev})
	})
	if err != nil {
		c.logger.Error("timeline event not persisted",
			"candidate_id", ev.CandidateID, "event_id", ev.ID, "error", err)
	}
}
