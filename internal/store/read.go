package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/provider"
)

const (
	selectJobs = `
		SELECT id, title, slug, status, tags, order_idx, location, type, description, requirements, created_at
		FROM jobs`
	selectCandidates = `
		SELECT id, name, email, phone, stage, job_id, job_title, applied_date
		FROM candidates`
	selectTimeline = `
		SELECT id, candidate_id, stage, timestamp, notes, changed_by
		FROM timeline`
)

// Canonical orderings. Each ends in a unique tiebreaker.
const (
	orderJobs       = ` ORDER BY order_idx ASC, id COLLATE BINARY ASC`
	orderCandidates = ` ORDER BY seq ASC`
	orderTimeline   = ` ORDER BY candidate_id COLLATE BINARY ASC, timestamp ASC, seq ASC`
)

// columns maps indexed provider fields to SQL columns.
var columns = map[provider.Table]map[string]string{
	provider.TableJobs:       {"status": "status", "order": "order_idx"},
	provider.TableCandidates: {"stage": "stage", "job_id": "job_id"},
	provider.TableTimeline:   {"candidate_id": "candidate_id", "timestamp": "timestamp"},
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Get retrieves one record by id. Returns NOT_FOUND if it does not exist.
func (s *Store) Get(ctx context.Context, table provider.Table, id string) (domain.Record, error) {
	var (
		rec domain.Record
		err error
	)
	switch table {
	case provider.TableJobs:
		rec, err = scanJob(s.db.QueryRowContext(ctx, selectJobs+` WHERE id = ?`, id))
	case provider.TableCandidates:
		rec, err = scanCandidate(s.db.QueryRowContext(ctx, selectCandidates+` WHERE id = ?`, id))
	case provider.TableTimeline:
		rec, err = scanTimelineEvent(s.db.QueryRowContext(ctx, selectTimeline+` WHERE id = ?`, id))
	default:
		return nil, domain.Validationf("unknown table %q", table)
	}
	if err != nil {
		return nil, notFoundOr(err, entityName(table), id, "get "+string(table))
	}
	return rec, nil
}

// Query returns all records whose indexed field equals value, in the
// table's canonical order (timeline rows for one candidate come back
// oldest first).
//
// Returns empty slices (not nil) if nothing matches.
func (s *Store) Query(ctx context.Context, table provider.Table, field, value string) ([]domain.Record, error) {
	if err := provider.CheckIndexed(table, field); err != nil {
		return nil, err
	}
	col := columns[table][field]

	var arg any = value
	switch field {
	case "order":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, domain.Validationf("order must be an integer, got %q", value)
		}
		arg = n
	case "timestamp":
		t, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return nil, domain.Validationf("timestamp must be RFC 3339, got %q", value)
		}
		arg = formatTime(t)
	}

	where := fmt.Sprintf(" WHERE %s = ?", col)
	return s.list(ctx, table, where, arg)
}

// All returns every record in table, in canonical order.
// Returns empty slices (not nil) if the table is empty.
func (s *Store) All(ctx context.Context, table provider.Table) ([]domain.Record, error) {
	return s.list(ctx, table, "")
}

func (s *Store) list(ctx context.Context, table provider.Table, where string, args ...any) ([]domain.Record, error) {
	var (
		query string
		scan  func(rowScanner) (domain.Record, error)
	)
	switch table {
	case provider.TableJobs:
		query = selectJobs + where + orderJobs
		scan = func(r rowScanner) (domain.Record, error) { return scanJob(r) }
	case provider.TableCandidates:
		query = selectCandidates + where + orderCandidates
		scan = func(r rowScanner) (domain.Record, error) { return scanCandidate(r) }
	case provider.TableTimeline:
		query = selectTimeline + where + orderTimeline
		scan = func(r rowScanner) (domain.Record, error) { return scanTimelineEvent(r) }
	default:
		return nil, domain.Validationf("unknown table %q", table)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return records, nil
}

// scanJob scans a row into a Job.
func scanJob(row rowScanner) (domain.Job, error) {
	var (
		j                  domain.Job
		status, tags, reqs string
		createdAt          string
	)
	if err := row.Scan(
		&j.ID, &j.Title, &j.Slug, &status, &tags, &j.Order,
		&j.Location, &j.Type, &j.Description, &reqs, &createdAt,
	); err != nil {
		return domain.Job{}, err
	}

	var err error
	j.Status = domain.JobStatus(status)
	if j.Tags, err = unmarshalStrings(tags); err != nil {
		return domain.Job{}, err
	}
	if j.Requirements, err = unmarshalStrings(reqs); err != nil {
		return domain.Job{}, err
	}
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Job{}, err
	}
	return j, nil
}

// scanCandidate scans a row into a Candidate.
func scanCandidate(row rowScanner) (domain.Candidate, error) {
	var (
		c                  domain.Candidate
		stage, appliedDate string
	)
	if err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &stage, &c.JobID, &c.JobTitle, &appliedDate,
	); err != nil {
		return domain.Candidate{}, err
	}

	var err error
	c.Stage = domain.Stage(stage)
	if c.AppliedDate, err = parseTime(appliedDate); err != nil {
		return domain.Candidate{}, err
	}
	return c, nil
}

// scanTimelineEvent scans a row into a TimelineEvent.
func scanTimelineEvent(row rowScanner) (domain.TimelineEvent, error) {
	var (
		e            domain.TimelineEvent
		stage, stamp string
	)
	if err := row.Scan(&e.ID, &e.CandidateID, &stage, &stamp, &e.Notes, &e.ChangedBy); err != nil {
		return domain.TimelineEvent{}, err
	}

	var err error
	e.Stage = domain.Stage(stage)
	if e.Timestamp, err = parseTime(stamp); err != nil {
		return domain.TimelineEvent{}, err
	}
	return e, nil
}
