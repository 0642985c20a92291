// Package domain defines the records held by the talentflow data layer.
//
// Jobs carry a dense order over the whole collection. Candidates carry a
// stage from a flat enum and own an append-only log of TimelineEvents.
// Records are only changed through the closed update variants in update.go
// (and, for order, through jobs.Store.Reorder); there is no partial-object
// escape hatch.
//
// Errors raised anywhere in the data layer use the taxonomy in errors.go:
//
//   - NOT_FOUND: a referenced id is not in the in-memory set; no partial effect
//   - PERSISTENCE_FAILURE: the persistence provider rejected an operation
//   - VALIDATION: malformed input; no mutation was attempted
package domain
