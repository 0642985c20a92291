// Package store is the SQLite implementation of provider.Provider.
//
// Tables:
//   - jobs: job postings; indexed by status and order
//   - candidates: applicants; indexed by stage and job_id
//   - timeline: append-only stage change log; indexed by candidate_id and timestamp
//
// # Conventions
//
// Upserts: BulkPut on jobs and candidates is INSERT ... ON CONFLICT(id) DO
// UPDATE, executed in one transaction so a bulk renumbering lands as a unit.
//
// Append-only: BulkPut on timeline is INSERT ... ON CONFLICT(id) DO NOTHING.
// Update and Delete on timeline are rejected. Re-submitting an event with
// the same id is therefore safe and is how callers retry appends.
//
// Deterministic reads: every query ends in an ORDER BY with a unique
// tiebreaker (seq or id COLLATE BINARY).
//
// Timestamps are stored as fixed-width UTC text so lexical order equals
// chronological order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
