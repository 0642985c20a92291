// Package jobs holds the in-memory, densely ordered job collection.
//
// The collection is always kept sorted by Order and, after every committed
// reorder, Order is exactly 0..N-1. Reorders work over the whole collection,
// never over a filtered or paginated view: a drag on a filtered page moves
// the job within the global order.
//
// Store does no I/O. The coordinator persists what Reorder returns and
// calls Replace with the provider's canonical ordering when a write fails.
package jobs

import (
	"sort"
	"sync"

	"github.com/roach88/talentflow/internal/domain"
)

// Store is the OrderedCollectionStore. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	jobs []domain.Job // sorted by Order
}

// New creates a store from jobs in any order. Jobs are sorted by Order
// (ties by id) but not renumbered: the caller's ordering is taken as-is.
func New(jobs []domain.Job) *Store {
	s := &Store{}
	s.Replace(jobs)
	return s
}

// Snapshot returns a copy of the full collection sorted by Order.
func (s *Store) Snapshot() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.jobs)
}

// Len returns the number of jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Get returns the job with id.
func (s *Store) Get(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.jobs[i].Clone(), true
	}
	return domain.Job{}, false
}

// Reorder moves activeID to the position currently held by overID and
// renumbers the whole collection. It returns the complete renumbered
// collection for a single bulk write, and changed=false for the explicit
// no-op activeID == overID.
//
// Returns NOT_FOUND, with no effect, if either id is absent.
func (s *Store) Reorder(activeID, overID string) (renumbered []domain.Job, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.indexOf(activeID)
	if from < 0 {
		return nil, false, domain.NotFound("job", activeID)
	}
	to := s.indexOf(overID)
	if to < 0 {
		return nil, false, domain.NotFound("job", overID)
	}
	if activeID == overID {
		return cloneAll(s.jobs), false, nil
	}

	next := renumber(domain.MoveItem(s.jobs, from, to))
	s.jobs = next
	return cloneAll(next), true, nil
}

// Replace swaps in a complete collection, typically the canonical ordering
// re-read from the provider. The swap is a single assignment under the
// lock, so readers see either the old or the new collection, never a mix.
func (s *Store) Replace(jobs []domain.Job) {
	next := cloneAll(jobs)
	sort.SliceStable(next, func(i, j int) bool {
		if next[i].Order != next[j].Order {
			return next[i].Order < next[j].Order
		}
		return next[i].ID < next[j].ID
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = next
}

// NextOrder returns the order a newly created job takes: one past the
// current maximum, or 0 for an empty collection.
func (s *Store) NextOrder() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.jobs) == 0 {
		return 0
	}
	return s.jobs[len(s.jobs)-1].Order + 1
}

// Insert appends a job at the end of the ordering. The job's Order is
// overwritten with NextOrder. Returns VALIDATION if the id already exists.
func (s *Store) Insert(job domain.Job) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(job.ID) >= 0 {
		return domain.Job{}, domain.Validationf("job %q already exists", job.ID)
	}
	job = job.Clone()
	job.Order = 0
	if n := len(s.jobs); n > 0 {
		job.Order = s.jobs[n-1].Order + 1
	}
	s.jobs = append(cloneAll(s.jobs), job)
	return job.Clone(), nil
}

// Remove deletes a job and renumbers the remainder so the order stays
// dense. It returns the renumbered remainder for persisting.
func (s *Store) Remove(id string) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, domain.NotFound("job", id)
	}
	rest := make([]domain.Job, 0, len(s.jobs)-1)
	rest = append(rest, s.jobs[:i]...)
	rest = append(rest, s.jobs[i+1:]...)
	s.jobs = renumber(rest)
	return cloneAll(s.jobs), nil
}

// Apply applies a field update to one job and returns the previous and new
// values.
func (s *Store) Apply(id string, u domain.JobUpdate) (before, after domain.Job, err error) {
	if err := u.Validate(); err != nil {
		return domain.Job{}, domain.Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Job{}, domain.Job{}, domain.NotFound("job", id)
	}
	before = s.jobs[i].Clone()
	next := cloneAll(s.jobs)
	u.ApplyJob(&next[i])
	s.jobs = next
	return before, next[i].Clone(), nil
}

// Put overwrites a job in place, keeping its position. Used to restore a
// job after a failed update.
func (s *Store) Put(job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(job.ID)
	if i < 0 {
		return domain.NotFound("job", job.ID)
	}
	next := cloneAll(s.jobs)
	job = job.Clone()
	job.Order = next[i].Order
	next[i] = job
	s.jobs = next
	return nil
}

// IsDense reports whether Order is exactly 0..N-1 in slice order.
func IsDense(jobs []domain.Job) bool {
	for i, j := range jobs {
		if j.Order != i {
			return false
		}
	}
	return true
}

func (s *Store) indexOf(id string) int {
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

// renumber assigns Order = index to every element (full renumbering, not
// a delta). items must not be shared with readers.
func renumber(items []domain.Job) []domain.Job {
	for i := range items {
		items[i].Order = i
	}
	return items
}

func cloneAll(jobs []domain.Job) []domain.Job {
	out := make([]domain.Job, len(jobs))
	for i, j := range jobs {
		out[i] = j.Clone()
	}
	return out
}
