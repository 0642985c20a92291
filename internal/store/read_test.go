package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/provider"
)

func seedStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	jobs := []domain.Job{
		createTestJob("j2", 2, domain.JobArchived),
		createTestJob("j0", 0, domain.JobActive),
		createTestJob("j1", 1, domain.JobActive),
	}
	require.NoError(t, s.BulkPut(ctx, provider.TableJobs, provider.AsRecords(jobs)))

	cands := []domain.Candidate{
		createTestCandidate("c1", "j0", domain.StageApplied),
		createTestCandidate("c2", "j0", domain.StageScreening),
		createTestCandidate("c3", "j1", domain.StageApplied),
	}
	require.NoError(t, s.BulkPut(ctx, provider.TableCandidates, provider.AsRecords(cands)))

	events := []domain.TimelineEvent{
		createTestEvent("e3", "c1", domain.StageTechnical, 30),
		createTestEvent("e1", "c1", domain.StageApplied, 0),
		createTestEvent("e2", "c2", domain.StageApplied, 5),
		createTestEvent("e4", "c1", domain.StageScreening, 10),
	}
	require.NoError(t, s.BulkPut(ctx, provider.TableTimeline, provider.AsRecords(events)))
}

func TestAll_JobsSortedByOrder(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s)

	recs, err := s.All(context.Background(), provider.TableJobs)
	require.NoError(t, err)
	jobs, err := provider.Jobs(recs)
	require.NoError(t, err)

	require.Len(t, jobs, 3)
	assert.Equal(t, "j0", jobs[0].ID)
	assert.Equal(t, "j1", jobs[1].ID)
	assert.Equal(t, "j2", jobs[2].ID)
}

func TestAll_EmptyTableReturnsEmptySlice(t *testing.T) {
	s := createTestStore(t)

	recs, err := s.All(context.Background(), provider.TableCandidates)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestQuery_IndexedFields(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	recs, err := s.Query(ctx, provider.TableJobs, "status", "active")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = s.Query(ctx, provider.TableJobs, "order", "2")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "j2", recs[0].RecordID())

	recs, err = s.Query(ctx, provider.TableCandidates, "stage", "applied")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c3"}, ids(recs))

	recs, err = s.Query(ctx, provider.TableCandidates, "job_id", "j0")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, ids(recs))
}

func TestQuery_TimelineOldestFirst(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s)

	recs, err := s.Query(context.Background(), provider.TableTimeline, "candidate_id", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e4", "e3"}, ids(recs))

	events, err := provider.TimelineEvents(recs)
	require.NoError(t, err)
	assert.True(t, events[0].Timestamp.Equal(testTime))
}

func TestQuery_TimelineByTimestamp(t *testing.T) {
	s := createTestStore(t)
	seedStore(t, s)

	recs, err := s.Query(context.Background(), provider.TableTimeline, "timestamp", "2024-01-01T09:35:00Z")
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, ids(recs))
}

func TestQuery_Errors(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Query(ctx, provider.TableJobs, "title", "x")
	assert.True(t, domain.IsValidation(err), "non-indexed field")

	_, err = s.Query(ctx, provider.TableJobs, "order", "first")
	assert.True(t, domain.IsValidation(err))

	_, err = s.Query(ctx, provider.TableTimeline, "timestamp", "yesterday")
	assert.True(t, domain.IsValidation(err))
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), provider.TableCandidates, "nope")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func ids(recs []domain.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.RecordID()
	}
	return out
}
