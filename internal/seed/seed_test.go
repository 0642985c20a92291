package seed

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/jobs"
	"github.com/roach88/talentflow/internal/provider"
	"github.com/roach88/talentflow/internal/store"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestGenerate_Shape(t *testing.T) {
	data := Generate(Options{Jobs: 5, Candidates: 40, Seed: 7, Now: now})

	require.Len(t, data.Jobs, 5)
	require.Len(t, data.Candidates, 40)
	require.Len(t, data.Timeline, 40)
	assert.True(t, jobs.IsDense(data.Jobs))

	jobIDs := map[string]string{}
	for _, j := range data.Jobs {
		assert.True(t, j.Status.Valid())
		assert.GreaterOrEqual(t, len(j.Tags), 2)
		assert.LessOrEqual(t, len(j.Tags), 4)
		assert.True(t, j.CreatedAt.Before(now))
		jobIDs[j.ID] = j.Title
	}
	for i, c := range data.Candidates {
		assert.True(t, c.Stage.Valid())
		assert.Equal(t, jobIDs[c.JobID], c.JobTitle, "candidate job title matches its job")
		ev := data.Timeline[i]
		assert.Equal(t, c.ID, ev.CandidateID)
		assert.Equal(t, domain.StageApplied, ev.Stage)
		assert.Equal(t, c.AppliedDate, ev.Timestamp)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(Options{Jobs: 3, Candidates: 10, Seed: 42, Now: now})
	b := Generate(Options{Jobs: 3, Candidates: 10, Seed: 42, Now: now})
	assert.Equal(t, a, b)

	c := Generate(Options{Jobs: 3, Candidates: 10, Seed: 43, Now: now})
	assert.NotEqual(t, a.Candidates, c.Candidates)
}

func TestRun_WritesOnceThenSkips(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	sum, err := Run(ctx, db, Options{Jobs: 4, Candidates: 12, Seed: 1, Now: now}, logger)
	require.NoError(t, err)
	assert.Equal(t, Summary{Jobs: 4, Candidates: 12, Events: 12}, sum)

	recs, err := db.All(ctx, provider.TableJobs)
	require.NoError(t, err)
	persisted, err := provider.Jobs(recs)
	require.NoError(t, err)
	assert.True(t, jobs.IsDense(persisted))

	again, err := Run(ctx, db, Options{Jobs: 4, Candidates: 12, Seed: 2, Now: now}, logger)
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	recs, err = db.All(ctx, provider.TableCandidates)
	require.NoError(t, err)
	assert.Len(t, recs, 12)
}
