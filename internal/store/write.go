package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/talentflow/internal/domain"
	"github.com/roach88/talentflow/internal/provider"
)

// BulkPut writes all records to table in one transaction.
// Jobs and candidates are upserted by id. Timeline events are inserted
// with ON CONFLICT(id) DO NOTHING: an existing event is never rewritten.
func (s *Store) BulkPut(ctx context.Context, table provider.Table, records []domain.Record) error {
	if err := provider.CheckRecords(table, records); err != nil {
		return fmt.Errorf("bulk put %s: %w", table, err)
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bulk put %s: begin tx: %w", table, err)
	}
	defer tx.Rollback() // No-op if committed

	for _, r := range records {
		switch rec := r.(type) {
		case domain.Job:
			err = putJob(ctx, tx, rec)
		case domain.Candidate:
			err = putCandidate(ctx, tx, rec)
		case domain.TimelineEvent:
			err = putTimelineEvent(ctx, tx, rec)
		}
		if err != nil {
			return fmt.Errorf("bulk put %s: %s: %w", table, r.RecordID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bulk put %s: commit: %w", table, err)
	}
	return nil
}

// Update applies a closed update variant to one record.
// The current row is read, the variant applied, and the row rewritten in a
// single transaction. Returns NOT_FOUND if the record does not exist.
func (s *Store) Update(ctx context.Context, table provider.Table, id string, update domain.Update) error {
	if err := update.Validate(); err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update %s %s: begin tx: %w", table, id, err)
	}
	defer tx.Rollback()

	switch table {
	case provider.TableJobs:
		u, ok := update.(domain.JobUpdate)
		if !ok {
			return domain.Validationf("update %q does not apply to jobs", update.Kind())
		}
		job, err := scanJob(tx.QueryRowContext(ctx, selectJobs+` WHERE id = ?`, id))
		if err != nil {
			return notFoundOr(err, "job", id, "update jobs")
		}
		u.ApplyJob(&job)
		err = putJob(ctx, tx, job)
		if err != nil {
			return fmt.Errorf("update jobs %s: %w", id, err)
		}

	case provider.TableCandidates:
		u, ok := update.(domain.CandidateUpdate)
		if !ok {
			return domain.Validationf("update %q does not apply to candidates", update.Kind())
		}
		c, err := scanCandidate(tx.QueryRowContext(ctx, selectCandidates+` WHERE id = ?`, id))
		if err != nil {
			return notFoundOr(err, "candidate", id, "update candidates")
		}
		u.ApplyCandidate(&c)
		if err := putCandidate(ctx, tx, c); err != nil {
			return fmt.Errorf("update candidates %s: %w", id, err)
		}

	case provider.TableTimeline:
		return domain.Validationf("timeline is append-only")

	default:
		return domain.Validationf("unknown table %q", table)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update %s %s: commit: %w", table, id, err)
	}
	return nil
}

// Delete removes one record. Returns NOT_FOUND if it does not exist.
func (s *Store) Delete(ctx context.Context, table provider.Table, id string) error {
	var query string
	switch table {
	case provider.TableJobs:
		query = `DELETE FROM jobs WHERE id = ?`
	case provider.TableCandidates:
		query = `DELETE FROM candidates WHERE id = ?`
	case provider.TableTimeline:
		return domain.Validationf("timeline is append-only")
	default:
		return domain.Validationf("unknown table %q", table)
	}

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: rows affected: %w", table, id, err)
	}
	if n == 0 {
		return domain.NotFound(entityName(table), id)
	}
	return nil
}

func putJob(ctx context.Context, tx *sql.Tx, j domain.Job) error {
	tags, err := marshalStrings(j.Tags)
	if err != nil {
		return err
	}
	reqs, err := marshalStrings(j.Requirements)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs
		(id, title, slug, status, tags, order_idx, location, type, description, requirements, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			slug = excluded.slug,
			status = excluded.status,
			tags = excluded.tags,
			order_idx = excluded.order_idx,
			location = excluded.location,
			type = excluded.type,
			description = excluded.description,
			requirements = excluded.requirements,
			created_at = excluded.created_at
	`,
		j.ID, j.Title, j.Slug, string(j.Status), tags, j.Order,
		j.Location, j.Type, j.Description, reqs, formatTime(j.CreatedAt),
	)
	return err
}

func putCandidate(ctx context.Context, tx *sql.Tx, c domain.Candidate) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO candidates
		(id, name, email, phone, stage, job_id, job_title, applied_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			stage = excluded.stage,
			job_id = excluded.job_id,
			job_title = excluded.job_title,
			applied_date = excluded.applied_date
	`,
		c.ID, c.Name, c.Email, c.Phone, string(c.Stage), c.JobID, c.JobTitle, formatTime(c.AppliedDate),
	)
	return err
}

func putTimelineEvent(ctx context.Context, tx *sql.Tx, e domain.TimelineEvent) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO timeline
		(id, candidate_id, stage, timestamp, notes, changed_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID, e.CandidateID, string(e.Stage), formatTime(e.Timestamp), e.Notes, e.ChangedBy,
	)
	return err
}

// notFoundOr maps sql.ErrNoRows to a NOT_FOUND error and wraps anything else.
func notFoundOr(err error, entity, id, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(entity, id)
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

func entityName(table provider.Table) string {
	switch table {
	case provider.TableJobs:
		return "job"
	case provider.TableCandidates:
		return "candidate"
	case provider.TableTimeline:
		return "timeline event"
	}
	return string(table)
}
