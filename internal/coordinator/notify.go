package coordinator

import (
	"context"
)

// Outcome is how a background write settled.
type Outcome string

const (
	OutcomeCommitted  Outcome = "committed"
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomeReconciled: memory was replaced with what the provider holds,
	// after a failed reorder or an older write that landed last.
	OutcomeReconciled  Outcome = "reconciled"
	OutcomeSuperseded  Outcome = "superseded"
	OutcomeUnrecovered Outcome = "unrecovered"
)

// Op names the mutation a Notification settles.
type Op string

const (
	OpReorder Op = "reorder"
	OpMove    Op = "move"
)

// Notification reports the settlement of one optimistic mutation.
type Notification struct {
	Op         Op
	Outcome    Outcome
	Generation int64
	// EntityID is the candidate id for moves and the dragged job id for
	// reorders.
	EntityID string
	// Err is the write error, nil when the write succeeded or was skipped.
	Err error
}

// subscriberBuffer bounds how far a subscriber may fall behind before
// notifications to it are dropped.
const subscriberBuffer = 256

type subscriber struct {
	ctx context.Context
	ch  chan Notification
}

// Subscribe returns a channel of settlement notifications. The channel is
// closed when ctx is done, and nothing is delivered after that. Writes in
// flight are not affected by ctx: the stores still accept their results.
func (c *Coordinator) Subscribe(ctx context.Context) <-chan Notification {
	sub := &subscriber{ctx: ctx, ch: make(chan Notification, subscriberBuffer)}

	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = sub
	c.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub.ch)
		}
	}()
	return sub.ch
}

func (c *Coordinator) notify(n Notification) {
	c.logger.Debug("mutation settled",
		"op", n.Op, "outcome", n.Outcome, "generation", n.Generation, "entity_id", n.EntityID)

	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, sub := range c.subs {
		if sub.ctx.Err() != nil {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			c.logger.Warn("subscriber too slow, notification dropped",
				"op", n.Op, "generation", n.Generation)
		}
	}
}
