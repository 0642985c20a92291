package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/talentflow/internal/candidates"
)

// Event is a discrete user intent. Only ReorderRequested and
// StageMoveRequested satisfy it.
type Event interface {
	isEvent()
}

// ReorderRequested is a job card dropped onto another job card.
type ReorderRequested struct {
	ActiveID string
	OverID   string
}

// StageMoveRequested is a candidate card dropped onto a column or card.
type StageMoveRequested struct {
	ID     string
	Target candidates.Target
	Notes  string // optional; defaults to "Moved to <stage>"
}

func (ReorderRequested) isEvent()   {}
func (StageMoveRequested) isEvent() {}

// Dispatch applies ev immediately on the caller's goroutine.
func (c *Coordinator) Dispatch(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case ReorderRequested:
		_, err := c.Reorder(ctx, e.ActiveID, e.OverID)
		return err
	case StageMoveRequested:
		_, err := c.MoveCandidate(ctx, e.ID, e.Target, WithNotes(e.Notes))
		return err
	default:
		return fmt.Errorf("unknown event type %T", ev)
	}
}

// Enqueue submits ev to the Run loop. Safe from any goroutine.
// Returns false once the loop has stopped.
func (c *Coordinator) Enqueue(ev Event) bool {
	return c.queue.Enqueue(ev)
}

// Run applies enqueued events in FIFO order until ctx is cancelled or Stop
// is called. It must be called from exactly one goroutine.
//
// A failing event is logged and skipped; later events still run.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("coordinator loop starting")

	for {
		if ev, ok := c.queue.TryDequeue(); ok {
			if err := c.Dispatch(ctx, ev); err != nil {
				c.logger.Warn("event rejected", "event", fmt.Sprintf("%T", ev), "error", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			c.logger.Info("coordinator loop stopping: context cancelled")
			c.queue.Close()
			return ctx.Err()
		case <-c.queue.Wait():
			// The signal channel is closed by Close, so a closed and
			// drained queue lands here repeatedly.
			if c.queue.Closed() && c.queue.Len() == 0 {
				c.logger.Info("coordinator loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the event queue. Run returns once the queued events are done.
func (c *Coordinator) Stop() {
	c.queue.Close()
}

// eventQueue is an unbounded FIFO of intents with a size-1 signal channel
// so Run can wait on it alongside ctx.Done.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends e. Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the oldest event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, false
	}
	e := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]
	return e, true
}

// Wait returns the signal channel. It receives after an Enqueue and is
// closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes the waiter. Idempotent.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
