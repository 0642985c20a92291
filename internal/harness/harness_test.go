package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func threeJobs() Seed {
	return Seed{Jobs: []SeedJob{
		{ID: "j1", Title: "Backend Engineer"},
		{ID: "j2", Title: "Frontend Engineer"},
		{ID: "j3", Title: "Designer"},
	}}
}

func TestRun_ReorderCommits(t *testing.T) {
	scenario := &Scenario{
		Name: "reorder",
		Seed: threeJobs(),
		Flow: []Step{{Reorder: &ReorderStep{Active: "j3", Over: "j1"}}},
		Assertions: []Assertion{
			{Type: AssertJobOrder, IDs: []string{"j3", "j1", "j2"}},
			{Type: AssertJobOrder, IDs: []string{"j3", "j1", "j2"}, Durable: true},
			{Type: AssertDenseOrder},
			{Type: AssertOutcomeCount, Op: "reorder", Outcome: "committed", Count: intPtr(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 1)
	ev := result.Trace[0]
	assert.Equal(t, 1, ev.Seq)
	assert.Equal(t, "reorder", ev.Step)
	assert.Equal(t, []string{"j3", "j1", "j2"}, ev.Optimistic)
	assert.Equal(t, []string{"reorder:j3:committed"}, ev.Settled)
}

func TestRun_OptimisticStateIsRecordedBeforeRollback(t *testing.T) {
	scenario := &Scenario{
		Name: "rollback",
		Seed: Seed{
			Jobs:       []SeedJob{{ID: "j1", Title: "Engineer"}},
			Candidates: []SeedCandidate{{ID: "c1", Name: "Ada", Email: "ada@example.com", JobID: "j1"}},
		},
		Flow: []Step{
			{Fail: &FailStep{Op: "update", Table: "candidates", Times: 1}},
			{Move: &MoveStep{ID: "c1", Stage: "offer"}},
		},
		Assertions: []Assertion{
			{Type: AssertCandidateStage, ID: "c1", Stage: "applied"},
			{Type: AssertCandidateStage, ID: "c1", Stage: "applied", Durable: true},
			{Type: AssertTimelineCount, ID: "c1", Count: intPtr(0)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	move := result.Trace[1]
	assert.Equal(t, []string{"stage_change", "offer: c1"}, move.Optimistic)
	assert.Equal(t, []string{"move:c1:rolled_back"}, move.Settled)
}

func TestRun_ExpectErrorMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name: "mismatch",
		Seed: threeJobs(),
		Flow: []Step{
			{Reorder: &ReorderStep{Active: "j1", Over: "j2"}, ExpectError: "NOT_FOUND"},
			{Archive: "nope"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `expected error "NOT_FOUND", got ""`)
	assert.Contains(t, result.Errors[1], `expected error "", got "NOT_FOUND"`)
}

func TestRun_FailingAssertionReportsTrace(t *testing.T) {
	scenario := &Scenario{
		Name: "wrong_order",
		Seed: threeJobs(),
		Flow: []Step{{Reorder: &ReorderStep{Active: "j1", Over: "j3"}}},
		Assertions: []Assertion{
			{Type: AssertJobOrder, IDs: []string{"j1", "j2", "j3"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: job_order")
	assert.Contains(t, result.Errors[0], "[j2 j3 j1]")
	assert.Contains(t, result.Errors[0], "[1] reorder")
}

func TestRun_DeleteKeepsDurableOrderDense(t *testing.T) {
	scenario := &Scenario{
		Name: "delete",
		Seed: threeJobs(),
		Flow: []Step{{DeleteJob: "j1"}},
		Assertions: []Assertion{
			{Type: AssertJobOrder, IDs: []string{"j2", "j3"}, Durable: true},
			{Type: AssertDenseOrder},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_BadSeedIsHarnessError(t *testing.T) {
	scenario := &Scenario{
		Name: "bad_seed",
		Seed: Seed{Candidates: []SeedCandidate{{ID: "c1", Name: "Ada", Email: "ada@example.com", Stage: "interview"}}},
		Flow: []Step{{Archive: "j1"}},
	}

	_, err := Run(scenario)
	assert.Error(t, err)
}

func TestEvaluateAssertions_DurableNeedsStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertDenseOrder}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}
