// Package candidates holds the in-memory candidate collection: the stage of
// every candidate, the per-stage Kanban column order, and each candidate's
// append-only timeline.
//
// Store does no I/O. A StageChange returned by Move is the caller's cue to
// persist the new stage and, once that succeeds, to AppendEvent.
package candidates

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/talentflow/internal/domain"
)

// Store is the StagedEntityStore. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]domain.Candidate
	order    []string                          // insertion order
	board    map[domain.Stage][]string         // column order per stage
	timeline map[string][]domain.TimelineEvent // per candidate, timestamp order
}

// New creates a store from candidates and their timeline events.
func New(cands []domain.Candidate, events []domain.TimelineEvent) *Store {
	s := &Store{}
	s.Replace(cands, events)
	return s
}

// Replace swaps in a complete candidate set and timeline. Column order
// follows the order of cands.
func (s *Store) Replace(cands []domain.Candidate, events []domain.TimelineEvent) {
	byID := make(map[string]domain.Candidate, len(cands))
	order := make([]string, 0, len(cands))
	board := make(map[domain.Stage][]string)
	for _, c := range cands {
		if _, dup := byID[c.ID]; dup {
			continue
		}
		byID[c.ID] = c
		order = append(order, c.ID)
		board[c.Stage] = append(board[c.Stage], c.ID)
	}

	timeline := make(map[string][]domain.TimelineEvent)
	for _, e := range events {
		timeline[e.CandidateID] = append(timeline[e.CandidateID], e)
	}
	for _, evs := range timeline {
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Timestamp.Before(evs[j].Timestamp)
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID, s.order, s.board, s.timeline = byID, order, board, timeline
}

// Snapshot returns every candidate in insertion order.
func (s *Store) Snapshot() []domain.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Len returns the number of candidates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Get returns the candidate with id.
func (s *Store) Get(id string) (domain.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	return c, ok
}

// Column returns the candidates in stage, in board order.
func (s *Store) Column(stage domain.Stage) []domain.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.board[stage]
	out := make([]domain.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out
}

// Move applies a Kanban drop of candidate id onto target.
//
// Returns NOT_FOUND if id, or the card it was dropped onto, is absent, and
// VALIDATION for an unknown column stage. Errors have no effect.
func (s *Store) Move(id string, target Target) (Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return Move{}, domain.NotFound("candidate", id)
	}
	mv := Move{Kind: NoOp, CandidateID: id, From: c.Stage, To: c.Stage}

	switch t := target.(type) {
	case Column:
		if !t.Stage.Valid() {
			return Move{}, domain.Validationf("unknown stage %q", t.Stage)
		}
		if t.Stage == c.Stage {
			return mv, nil
		}
		mv.Kind, mv.To = StageChange, t.Stage
		s.setStage(id, t.Stage, -1)
	case Card:
		other, ok := s.byID[t.ID]
		if !ok {
			return Move{}, domain.NotFound("candidate", t.ID)
		}
		if t.ID == id {
			return mv, nil
		}
		pos := indexOf(s.board[other.Stage], t.ID)
		if other.Stage == c.Stage {
			col := s.board[c.Stage]
			s.board[c.Stage] = domain.MoveItem(col, indexOf(col, id), pos)
			mv.Kind = Reposition
			return mv, nil
		}
		mv.Kind, mv.To = StageChange, other.Stage
		s.setStage(id, other.Stage, pos)
	default:
		return Move{}, domain.Validationf("unsupported drop target %T", target)
	}
	return mv, nil
}

// Revert puts a candidate back in stage after a failed write. The card goes
// to the end of that column.
func (s *Store) Revert(id string, stage domain.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return domain.NotFound("candidate", id)
	}
	if c.Stage != stage {
		s.setStage(id, stage, -1)
	}
	return nil
}

// Insert adds a new candidate at the end of its column.
func (s *Store) Insert(c domain.Candidate) error {
	if !c.Stage.Valid() {
		return domain.Validationf("unknown stage %q", c.Stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[c.ID]; exists {
		return domain.Validationf("candidate %q already exists", c.ID)
	}
	s.byID[c.ID] = c
	s.order = append(s.order, c.ID)
	s.board[c.Stage] = append(s.board[c.Stage], c.ID)
	return nil
}

// Apply applies a field update and returns the previous and new values.
// A CandidateStage update moves the card to the end of the new column but
// does not touch the timeline.
func (s *Store) Apply(id string, u domain.CandidateUpdate) (before, after domain.Candidate, err error) {
	if err := u.Validate(); err != nil {
		return domain.Candidate{}, domain.Candidate{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.byID[id]
	if !ok {
		return domain.Candidate{}, domain.Candidate{}, domain.NotFound("candidate", id)
	}
	after = before
	u.ApplyCandidate(&after)
	if after.Stage != before.Stage {
		s.setStage(id, after.Stage, -1)
	}
	s.byID[id] = after
	return before, after, nil
}

// AppendEvent appends a timeline event. An event whose timestamp precedes
// the candidate's latest event is clamped to that timestamp, so each
// candidate's log is non-decreasing. Appending an event id that is already
// present returns the stored event unchanged.
func (s *Store) AppendEvent(e domain.TimelineEvent) (domain.TimelineEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[e.CandidateID]; !ok {
		return domain.TimelineEvent{}, domain.NotFound("candidate", e.CandidateID)
	}
	evs := s.timeline[e.CandidateID]
	for _, prev := range evs {
		if prev.ID == e.ID {
			return prev, nil
		}
	}
	if n := len(evs); n > 0 {
		e.Timestamp = clamp(e.Timestamp, evs[n-1].Timestamp)
	}
	s.timeline[e.CandidateID] = append(evs, e)
	return e, nil
}

// LatestEventTime returns the timestamp of the candidate's newest event, or
// the zero time.
func (s *Store) LatestEventTime(candidateID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evs := s.timeline[candidateID]
	if len(evs) == 0 {
		return time.Time{}
	}
	return evs[len(evs)-1].Timestamp
}

// Timeline returns a candidate's events, oldest first. Never nil.
func (s *Store) Timeline(candidateID string) []domain.TimelineEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evs := s.timeline[candidateID]
	out := make([]domain.TimelineEvent, len(evs))
	copy(out, evs)
	return out
}

// setStage moves id into stage's column at pos (-1 appends) and updates
// the record. Caller holds the write lock.
func (s *Store) setStage(id string, stage domain.Stage, pos int) {
	c := s.byID[id]
	s.board[c.Stage] = without(s.board[c.Stage], id)

	col := s.board[stage]
	if pos < 0 || pos > len(col) {
		pos = len(col)
	}
	next := make([]string, 0, len(col)+1)
	next = append(next, col[:pos]...)
	next = append(next, id)
	next = append(next, col[pos:]...)
	s.board[stage] = next

	c.Stage = stage
	s.byID[id] = c
}

func clamp(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
