package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/talentflow/internal/domain"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testTime = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

// createTestJob creates a job with minimal required fields.
func createTestJob(id string, order int, status domain.JobStatus) domain.Job {
	return domain.Job{
		ID:        id,
		Title:     "Job " + id,
		Slug:      "job-" + id,
		Status:    status,
		Tags:      []string{"Remote"},
		Order:     order,
		CreatedAt: testTime,
	}
}

// createTestCandidate creates a candidate with minimal required fields.
func createTestCandidate(id, jobID string, stage domain.Stage) domain.Candidate {
	return domain.Candidate{
		ID:          id,
		Name:        "Candidate " + id,
		Email:       id + "@example.com",
		Stage:       stage,
		JobID:       jobID,
		AppliedDate: testTime,
	}
}

// createTestEvent creates a timeline event offset minutes after testTime.
func createTestEvent(id, candidateID string, stage domain.Stage, minutes int) domain.TimelineEvent {
	return domain.TimelineEvent{
		ID:          id,
		CandidateID: candidateID,
		Stage:       stage,
		Timestamp:   testTime.Add(time.Duration(minutes) * time.Minute),
		Notes:       domain.DefaultMoveNotes(stage),
		ChangedBy:   "Current User",
	}
}
