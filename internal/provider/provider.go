// Package provider defines the persistence contract consumed by the data
// layer, and an Unreliable wrapper that makes any implementation latent and
// fallible.
//
// Every operation may fail. Callers decide what a failure means: the
// coordinator rolls back or reconciles optimistic state, read paths surface
// the error.
package provider

import (
	"context"
	"fmt"

	"github.com/roach88/talentflow/internal/domain"
)

// Table names a provider table.
type Table string

const (
	TableJobs       Table = "jobs"
	TableCandidates Table = "candidates"
	TableTimeline   Table = "timeline"
)

// indexedFields lists the fields each table can be queried by.
var indexedFields = map[Table][]string{
	TableJobs:       {"status", "order"},
	TableCandidates: {"stage", "job_id"},
	TableTimeline:   {"candidate_id", "timestamp"},
}

// Provider is a fallible key-value/table store.
//
// Records passed to BulkPut must match the table: domain.Job for jobs,
// domain.Candidate for candidates, domain.TimelineEvent for timeline.
// BulkPut upserts by id. All returns records in the table's canonical order
// (jobs by order, candidates in insertion order, timeline by candidate then
// timestamp).
type Provider interface {
	Get(ctx context.Context, table Table, id string) (domain.Record, error)
	BulkPut(ctx context.Context, table Table, records []domain.Record) error
	Update(ctx context.Context, table Table, id string, update domain.Update) error
	Delete(ctx context.Context, table Table, id string) error
	Query(ctx context.Context, table Table, field string, value string) ([]domain.Record, error)
	All(ctx context.Context, table Table) ([]domain.Record, error)
}

// CheckIndexed returns a VALIDATION error unless field is indexed on table.
func CheckIndexed(table Table, field string) error {
	fields, ok := indexedFields[table]
	if !ok {
		return domain.Validationf("unknown table %q", table)
	}
	for _, f := range fields {
		if f == field {
			return nil
		}
	}
	return domain.Validationf("field %q is not indexed on %s", field, table)
}

// CheckRecords returns a VALIDATION error if any record does not belong in table.
func CheckRecords(table Table, records []domain.Record) error {
	for i, r := range records {
		var ok bool
		switch table {
		case TableJobs:
			_, ok = r.(domain.Job)
		case TableCandidates:
			_, ok = r.(domain.Candidate)
		case TableTimeline:
			_, ok = r.(domain.TimelineEvent)
		default:
			return domain.Validationf("unknown table %q", table)
		}
		if !ok {
			return domain.Validationf("record %d (%T) does not belong in %s", i, r, table)
		}
	}
	return nil
}

// Jobs converts records read from the jobs table.
func Jobs(records []domain.Record) ([]domain.Job, error) {
	return convert[domain.Job](records)
}

// Candidates converts records read from the candidates table.
func Candidates(records []domain.Record) ([]domain.Candidate, error) {
	return convert[domain.Candidate](records)
}

// TimelineEvents converts records read from the timeline table.
func TimelineEvents(records []domain.Record) ([]domain.TimelineEvent, error) {
	return convert[domain.TimelineEvent](records)
}

// AsRecords widens a typed slice for BulkPut.
func AsRecords[T domain.Record](items []T) []domain.Record {
	out := make([]domain.Record, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func convert[T domain.Record](records []domain.Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, r := range records {
		v, ok := r.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("record %d: got %T, want %T", i, r, zero)
		}
		out = append(out, v)
	}
	return out, nil
}
