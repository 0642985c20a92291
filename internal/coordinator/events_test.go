package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/talentflow/internal/candidates"
	"github.com/roach88/talentflow/internal/domain"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()
	require.True(t, q.Enqueue(ReorderRequested{ActiveID: "a"}))
	require.True(t, q.Enqueue(ReorderRequested{ActiveID: "b"}))
	assert.Equal(t, 2, q.Len())

	e, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "a", e.(ReorderRequested).ActiveID)
	e, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "b", e.(ReorderRequested).ActiveID)

	_, ok = q.TryDequeue()
	assert.False(t, ok)
}

func TestEventQueue_ClosedRejectsEnqueue(t *testing.T) {
	q := newEventQueue()
	q.Close()
	q.Close()
	assert.False(t, q.Enqueue(ReorderRequested{}))
	assert.True(t, q.Closed())
}

func TestDispatch(t *testing.T) {
	f := newFixture(t)
	f.seedJobs(t, 3)
	f.seedCandidate(t, "c1", domain.StageApplied)

	require.NoError(t, f.c.Dispatch(t.Context(), ReorderRequested{ActiveID: "j3", OverID: "j1"}))
	require.NoError(t, f.c.Dispatch(t.Context(), StageMoveRequested{
		ID: "c1", Target: candidates.Column{Stage: domain.StageOffer}, Notes: "Verbal yes",
	}))
	f.c.Wait()

	assert.Equal(t, []string{"j3", "j1", "j2"}, jobIDs(f.c.AllJobs()))
	tl, _ := f.c.Timeline("c1")
	require.Len(t, tl, 1)
	assert.Equal(t, "Verbal yes", tl[0].Notes)

	err := f.c.Dispatch(t.Context(), ReorderRequested{ActiveID: "nope", OverID: "j1"})
	assert.True(t, domain.IsNotFound(err))
}

func TestRun_ProcessesQueueUntilStopped(t *testing.T) {
	f := newFixture(t)
	f.seedJobs(t, 3)

	done := make(chan error, 1)
	go func() { done <- f.c.Run(context.Background()) }()

	assert.True(t, f.c.Enqueue(ReorderRequested{ActiveID: "j1", OverID: "j3"}))
	assert.True(t, f.c.Enqueue(ReorderRequested{ActiveID: "missing", OverID: "j3"}))
	assert.True(t, f.c.Enqueue(ReorderRequested{ActiveID: "j2", OverID: "j1"}))
	f.c.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.False(t, f.c.Enqueue(ReorderRequested{}))

	f.c.Wait()
	// j1 j2 j3 -> j2 j3 j1 -> j3 j1 j2; the rejected event is skipped. The
	// two writes race, so memory ends on whichever order landed last.
	got := jobIDs(f.c.AllJobs())
	assert.Contains(t, [][]string{{"j3", "j1", "j2"}, {"j2", "j3", "j1"}}, got)
	assert.Equal(t, f.durableJobIDs(t), got)
}

func TestRun_ContextCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.c.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
