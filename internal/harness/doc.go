// Package harness runs YAML conformance scenarios against the data layer.
//
// Each scenario runs a fresh Coordinator over an in-memory SQLite database
// behind a fault-injecting provider. Ids come from a sequence generator and
// timestamps from a fake clock, so runs are reproducible and the trace can
// be compared against a golden snapshot.
//
// # Scenario Format
//
//	name: stage_rollback
//	description: "A failed stage write reverts the candidate"
//	seed:
//	  jobs:
//	    - { id: j1, title: Engineer }
//	  candidates:
//	    - { id: c1, name: Ada, email: ada@example.com, stage: applied, job_id: j1 }
//	flow:
//	  - fail: { op: update, table: candidates, times: 1 }
//	  - move: { id: c1, stage: technical }
//	  - reorder: { active: j1, over: j3 }
//	  - move: { id: c1, onto: c2, notes: "Strong onsite" }
//	    expect_error: NOT_FOUND
//	assertions:
//	  - { type: candidate_stage, id: c1, stage: applied }
//	  - { type: timeline_count, id: c1, stage: technical, count: 0 }
//	  - { type: job_order, ids: [j1, j2, j3], durable: true }
//
// Other steps are create_job, create_candidate, archive (job id),
// delete_job (job id) and import_csv (inline CSV text).
//
// Every mutating step waits for its background writes to settle before the
// next step runs, and the settlement outcomes are recorded in the trace.
//
// # Assertion Types
//
//   - job_order: job ids in order (durable: read from the database)
//   - dense_order: job order fields are exactly 0..N-1
//   - candidate_stage: a candidate's stage (durable: read from the database)
//   - timeline_count: number of timeline events, optionally for one stage
//   - outcome_count: number of settlements with a given op and outcome
package harness
