package domain

import (
	"fmt"
	"time"
)

// Stage is a candidate's position in the hiring pipeline.
// The set is flat: any stage may move to any other stage.
type Stage string

const (
	StageApplied   Stage = "applied"
	StageScreening Stage = "screening"
	StageTechnical Stage = "technical"
	StageOffer     Stage = "offer"
	StageHired     Stage = "hired"
	StageRejected  Stage = "rejected"
)

// Stages returns every stage in board (column) order.
func Stages() []Stage {
	return []Stage{StageApplied, StageScreening, StageTechnical, StageOffer, StageHired, StageRejected}
}

// ParseStage converts a raw string to a Stage.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if st.Valid() {
		return st, nil
	}
	return "", Validationf("unknown stage %q", s)
}

// Valid reports whether s is one of the six stage literals.
func (s Stage) Valid() bool {
	switch s {
	case StageApplied, StageScreening, StageTechnical, StageOffer, StageHired, StageRejected:
		return true
	}
	return false
}

// JobStatus is the lifecycle status of a job posting.
type JobStatus string

const (
	JobActive   JobStatus = "active"
	JobArchived JobStatus = "archived"
)

// ParseJobStatus converts a raw string to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	if st.Valid() {
		return st, nil
	}
	return "", Validationf("unknown job status %q", s)
}

// Valid reports whether s is active or archived.
func (s JobStatus) Valid() bool {
	return s == JobActive || s == JobArchived
}

// Toggle returns the opposite status (archive/unarchive).
func (s JobStatus) Toggle() JobStatus {
	if s == JobActive {
		return JobArchived
	}
	return JobActive
}

// Job is a job posting. Order is its position in the global, unfiltered
// job ordering and is only ever assigned by the jobs store.
type Job struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Slug         string    `json:"slug" yaml:"slug"`
	Status       JobStatus `json:"status" yaml:"status"`
	Tags         []string  `json:"tags" yaml:"tags"`
	Order        int       `json:"order" yaml:"order"`
	Location     string    `json:"location,omitempty" yaml:"location,omitempty"`
	Type         string    `json:"type,omitempty" yaml:"type,omitempty"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	Requirements []string  `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	CreatedAt    time.Time `json:"createdAt" yaml:"created_at"`
}

// RecordID implements Record.
func (j Job) RecordID() string { return j.ID }

// Clone returns a deep copy so callers can never alias store-owned slices.
func (j Job) Clone() Job {
	out := j
	out.Tags = cloneStrings(j.Tags)
	out.Requirements = cloneStrings(j.Requirements)
	return out
}

// Candidate is an applicant for a job. JobID is a weak reference: the job
// may be archived or deleted without touching the candidate.
type Candidate struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Email       string    `json:"email" yaml:"email"`
	Phone       string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Stage       Stage     `json:"stage" yaml:"stage"`
	JobID       string    `json:"jobId" yaml:"job_id"`
	JobTitle    string    `json:"jobTitle,omitempty" yaml:"job_title,omitempty"`
	AppliedDate time.Time `json:"appliedDate" yaml:"applied_date"`
}

// RecordID implements Record.
func (c Candidate) RecordID() string { return c.ID }

// TimelineEvent is an immutable audit record of a stage change.
type TimelineEvent struct {
	ID          string    `json:"id" yaml:"id"`
	CandidateID string    `json:"candidateId" yaml:"candidate_id"`
	Stage       Stage     `json:"stage" yaml:"stage"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Notes       string    `json:"notes" yaml:"notes"`
	ChangedBy   string    `json:"changedBy" yaml:"changed_by"`
}

// RecordID implements Record.
func (e TimelineEvent) RecordID() string { return e.ID }

// Record is anything the persistence provider can store.
type Record interface {
	RecordID() string
}

// DefaultMoveNotes is the note recorded when a stage move carries none.
func DefaultMoveNotes(stage Stage) string {
	return fmt.Sprintf("Moved to %s", stage)
}

// Initial timeline entry written when a candidate is created.
const (
	InitialEventNotes  = "Application submitted"
	InitialEventAuthor = "System"
)

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
