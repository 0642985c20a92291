package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/jobs"
	"github.com/roach88/talentflow/internal/provider"
	"github.com/roach88/talentflow/internal/testutil"
)

func TestCreateJob_AppendsAtEnd(t *testing.T) {
	f := newFixture(t)

	first, err := f.c.CreateJob(t.Context(), domain.NewJob{Title: "Senior  Engineer", Description: "Build things", Tags: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, "senior-engineer", first.Slug)
	assert.Equal(t, domain.JobActive, first.Status)
	assert.Equal(t, t0, first.CreatedAt)

	second, err := f.c.CreateJob(t.Context(), domain.NewJob{Title: "Senior Engineer", Description: "Again"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, "senior-engineer-2", second.Slug)

	rec, err := f.db.Get(t.Context(), provider.TableJobs, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.(domain.Job).Order)
}

func TestCreateJob_ValidationBeforeIO(t *testing.T) {
	f := newFixture(t)

	_, err := f.c.CreateJob(t.Context(), domain.NewJob{Title: "  ", Description: "x"})
	assert.True(t, domain.IsValidation(err))
	_, err = f.c.CreateJob(t.Context(), domain.NewJob{Title: "Designer"})
	assert.True(t, domain.IsValidation(err))

	assert.Empty(t, f.faults.Calls())
}

func TestCreateJob_PersistenceFailureLeavesMemoryUnchanged(t *testing.T) {
	f := newFixture(t)
	f.faults.Fail(testutil.Match{Name: "bulk_put", Table: provider.TableJobs}, 1)

	_, err := f.c.CreateJob(t.Context(), domain.NewJob{Title: "Designer", Description: "Draw"})
	assert.True(t, domain.IsPersistence(err))
	assert.ErrorIs(t, err, provider.ErrInjected)
	assert.Empty(t, f.c.AllJobs())
}

func TestUpdateJob_AndToggleArchive(t *testing.T) {
	f := newFixture(t)
	f.seedJobs(t, 2)

	j, err := f.c.UpdateJob(t.Context(), "j2", domain.JobTitle{Title: "Staff Engineer"})
	require.NoError(t, err)
	assert.Equal(t, "staff-engineer", j.Slug)
	assert.Equal(t, 1, j.Order)

	j, err = f.c.ToggleArchive(t.Context(), "j2")
	require.NoError(t, err)
	assert.Equal(t, domain.JobArchived, j.Status)

	rec, err := f.db.Get(t.Context(), provider.TableJobs, "j2")
	require.NoError(t, err)
	assert.Equal(t, domain.JobArchived, rec.(domain.Job).Status)
	assert.Equal(t, "Staff Engineer", rec.(domain.Job).Title)

	_, err = f.c.UpdateJob(t.Context(), "nope", domain.JobTags{Tags: []string{"x"}})
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdateJob_FailureKeepsOldValue(t *testing.T) {
	f := newFixture(t)
	f.seedJobs(t, 1)
	f.faults.Fail(testutil.Match{Name: "update"}, 1)

	_, err := f.c.UpdateJob(t.Context(), "j1", domain.JobStatusChange{Status: domain.JobArchived})
	assert.True(t, domain.IsPersistence(err))

	j, err := f.c.Job("j1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobActive, j.Status)
}

func TestDeleteJob_RedensifiesOrder(t *testing.T) {
	f := newFixture(t)
	f.seedJobs(t, 4)

	require.NoError(t, f.c.DeleteJob(t.Context(), "j2"))

	assert.Equal(t, []string{"j1", "j3", "j4"}, jobIDs(f.c.AllJobs()))
	assert.True(t, jobs.IsDense(f.c.AllJobs()))

	durable, err := f.c.FetchJobs(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, jobOrders(durable))

	assert.True(t, domain.IsNotFound(f.c.DeleteJob(t.Context(), "j2")))
}

func TestDeleteJob_WaitsForReorderInFlight(t *testing.T) {
	gate := testutil.NewGate(testutil.Match{Name: "bulk_put", Table: provider.TableJobs})
	f := newFixture(t, gate.Hook())
	f.seedJobs(t, 3)

	_, err := f.c.Reorder(t.Context(), "j1", "j3") // j2 j3 j1
	require.NoError(t, err)
	gate.AwaitHeld(t, 1)

	deleted := make(chan error, 1)
	go func() { deleted <- f.c.DeleteJob(context.Background(), "j2") }()

	select {
	case err := <-deleted:
		t.Fatalf("delete finished while a reorder write was in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Zero(t, f.faults.Count(testutil.Match{Name: "delete"}))

	gate.Release(0, nil)
	gate.AwaitHeld(t, 2) // renumbering after the delete
	gate.Release(1, nil)
	require.NoError(t, <-deleted)
	f.c.Wait()

	assert.Equal(t, []string{"j3", "j1"}, jobIDs(f.c.AllJobs()))
	durable := f.durableJobs(t)
	assert.Equal(t, []string{"j3", "j1"}, jobIDs(durable), "the deleted job stays deleted")
	assert.Equal(t, []int{0, 1}, jobOrders(durable))

	require.NoError(t, f.c.Load(t.Context()))
	assert.Equal(t, []string{"j3", "j1"}, jobIDs(f.c.AllJobs()))
}

func TestUpdateJob_NotOverwrittenByReorderInFlight(t *testing.T) {
	gate := testutil.NewGate(testutil.Match{Name: "bulk_put", Table: provider.TableJobs})
	f := newFixture(t, gate.Hook())
	f.seedJobs(t, 2)

	_, err := f.c.Reorder(t.Context(), "j2", "j1") // j2 j1
	require.NoError(t, err)
	gate.AwaitHeld(t, 1)

	archived := make(chan error, 1)
	go func() {
		_, err := f.c.ToggleArchive(context.Background(), "j1")
		archived <- err
	}()
	gate.Release(0, nil)
	require.NoError(t, <-archived)
	f.c.Wait()

	for _, j := range f.durableJobs(t) {
		if j.ID == "j1" {
			assert.Equal(t, domain.JobArchived, j.Status)
		}
	}
	assert.Equal(t, []string{"j2", "j1"}, f.durableJobIDs(t))
}

func TestDeleteJob_ProviderRejects(t *testing.T) {
	f := newFixture(t)
	f.seedJobs(t, 2)
	f.faults.Fail(testutil.Match{Name: "delete"}, 1)

	err := f.c.DeleteJob(t.Context(), "j1")
	assert.True(t, domain.IsPersistence(err))
	assert.Equal(t, []string{"j1", "j2"}, jobIDs(f.c.AllJobs()))
}

func TestCreateCandidate_WritesInitialEvent(t *testing.T) {
	f := newFixture(t)
	f.seedJobs(t, 1)

	c, err := f.c.CreateCandidate(t.Context(), domain.NewCandidate{Name: " Ada ", Email: "ada@example.com", JobID: "j1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Name)
	assert.Equal(t, domain.StageApplied, c.Stage)
	assert.Equal(t, "Job j1", c.JobTitle)

	tl, err := f.c.Timeline(c.ID)
	require.NoError(t, err)
	require.Len(t, tl, 1)
	assert.Equal(t, domain.StageApplied, tl[0].Stage)
	assert.Equal(t, domain.InitialEventNotes, tl[0].Notes)
	assert.Equal(t, domain.InitialEventAuthor, tl[0].ChangedBy)

	recs, err := f.db.Query(t.Context(), provider.TableTimeline, "candidate_id", c.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = f.c.CreateCandidate(t.Context(), domain.NewCandidate{Name: "Bob", Email: "bob", JobID: "j1"})
	assert.True(t, domain.IsValidation(err))
}

func TestImportCandidates_NoTimelineEvents(t *testing.T) {
	f := newFixture(t)

	out, err := f.c.ImportCandidates(t.Context(), []domain.Candidate{
		{Name: "John Doe", Email: "john@x.com", Stage: domain.StageApplied, AppliedDate: t0},
		{Name: "Jane Roe", Email: "jane@x.com", Stage: domain.StageOffer, AppliedDate: t0},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.NotEmpty(t, out[0].ID)

	assert.Equal(t, 2, len(f.c.AllCandidates()))
	for _, c := range out {
		tl, err := f.c.Timeline(c.ID)
		require.NoError(t, err)
		assert.Empty(t, tl)
	}

	durable, err := f.c.FetchCandidates(t.Context(), domain.StageOffer, "")
	require.NoError(t, err)
	require.Len(t, durable, 1)
	assert.Equal(t, "Jane Roe", durable[0].Name)
}

func TestImportCandidates_RejectsBeforeIO(t *testing.T) {
	f := newFixture(t)
	f.seedCandidate(t, "c1", domain.StageApplied)
	calls := len(f.faults.Calls())

	_, err := f.c.ImportCandidates(t.Context(), []domain.Candidate{{ID: "c1", Stage: domain.StageApplied}})
	assert.True(t, domain.IsValidation(err))
	_, err = f.c.ImportCandidates(t.Context(), []domain.Candidate{{ID: "x", Stage: "bogus"}})
	assert.True(t, domain.IsValidation(err))

	assert.Len(t, f.faults.Calls(), calls)
}

func TestFetchCandidates_StageAndJob(t *testing.T) {
	f := newFixture(t)
	seed := []domain.Candidate{
		{ID: "a", Name: "A", Email: "a@x.com", Stage: domain.StageOffer, JobID: "j1", AppliedDate: t0},
		{ID: "b", Name: "B", Email: "b@x.com", Stage: domain.StageOffer, JobID: "j2", AppliedDate: t0},
		{ID: "c", Name: "C", Email: "c@x.com", Stage: domain.StageApplied, JobID: "j1", AppliedDate: t0},
	}
	require.NoError(t, f.db.BulkPut(context.Background(), provider.TableCandidates, provider.AsRecords(seed)))

	both, err := f.c.FetchCandidates(t.Context(), domain.StageOffer, "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, candidateIDs(both))

	byJob, err := f.c.FetchCandidates(t.Context(), "", "j1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, candidateIDs(byJob))

	all, err := f.c.FetchCandidates(t.Context(), "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReadPathSurfacesProviderErrors(t *testing.T) {
	f := newFixture(t)
	f.faults.Fail(testutil.Match{Name: "all", Table: provider.TableTimeline}, 1)

	err := f.c.Load(t.Context())
	assert.True(t, domain.IsPersistence(err))

	f.faults.Fail(testutil.Match{Name: "query", Table: provider.TableJobs}, 1)
	_, err = f.c.FetchJobs(t.Context(), domain.JobArchived)
	assert.True(t, domain.IsPersistence(err))
}
