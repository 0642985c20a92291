// Package coordinator applies job reorders and candidate stage moves to the
// in-memory stores optimistically and races the durable write in the
// background.
//
// Callers get control back as soon as the in-memory state has changed. The
// write result arrives later and is reported through Subscribe:
//
//   - committed: the write succeeded and the entity's latest mutation is durable
//   - rolled_back: a stage write failed and the candidate was reverted
//   - reconciled: a reorder write failed and the job order was re-read, or
//     an older write landed after the newest one settled and memory now
//     follows the provider
//   - superseded: a newer mutation of the same entity was submitted first
//   - unrecovered: the write failed and so did the recovery read
//
// Last-submitted-wins: every mutation takes a generation from a logical
// clock. Only the write holding an entity's latest generation may roll back
// or reconcile it. An older result changes nothing while the newest is
// still in flight. Once the newest has settled, an older write that still
// lands is what the provider holds, so memory is brought back in line with
// it.
//
// Reorder writes carry the in-memory job set at the moment they start and
// are skipped when a newer reorder or a delete got there first. Job
// creates, updates and deletes wait for reorder writes in flight, so a
// stale set never overwrites them.
//
// Recovery differs by operation. A failed reorder discards the optimistic
// order and re-reads the canonical order from the provider, because a
// renumbering of the whole collection cannot be undone element by element.
// A failed stage move reverts only that one candidate.
//
// Creates, updates, deletes and imports are pessimistic: the provider
// acknowledges before memory changes, and failures are returned.
package coordinator
