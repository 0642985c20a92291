package provider

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/roach88/talentflow/internal/domain"
)

// ErrInjected is returned by Unreliable when it decides an operation fails.
var ErrInjected = errors.New("simulated server error")

// Op identifies a provider operation for fault hooks.
type Op struct {
	Name  string // "get", "bulk_put", "update", "delete", "query", "all"
	Table Table
	ID    string
}

// FaultFunc decides whether an operation fails. Returning a non-nil error
// fails the operation with that error before it reaches the inner provider.
type FaultFunc func(op Op) error

// Unreliable wraps a Provider with random latency and random failure.
// The parameters are opaque to callers; nothing in the data layer is tuned
// against them.
type Unreliable struct {
	inner       Provider
	failureRate float64
	minLatency  time.Duration
	maxLatency  time.Duration
	fault       FaultFunc
	logger      *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// UnreliableOption configures an Unreliable provider.
type UnreliableOption func(*Unreliable)

// WithFailureRate sets the probability in [0,1] that an operation fails.
func WithFailureRate(rate float64) UnreliableOption {
	return func(u *Unreliable) { u.failureRate = rate }
}

// WithLatency sets the uniform latency range applied to every operation.
func WithLatency(min, max time.Duration) UnreliableOption {
	return func(u *Unreliable) {
		u.minLatency = min
		u.maxLatency = max
	}
}

// WithFault installs a deterministic fault hook, consulted before the
// random failure roll.
func WithFault(f FaultFunc) UnreliableOption {
	return func(u *Unreliable) { u.fault = f }
}

// WithSeed makes latency and failure rolls reproducible.
func WithSeed(seed uint64) UnreliableOption {
	return func(u *Unreliable) { u.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithLogger sets the logger used for injected failures.
func WithLogger(l *slog.Logger) UnreliableOption {
	return func(u *Unreliable) { u.logger = l }
}

// NewUnreliable wraps inner. Defaults: 8% failure, 200-1200ms latency.
func NewUnreliable(inner Provider, opts ...UnreliableOption) *Unreliable {
	u := &Unreliable{
		inner:       inner,
		failureRate: 0.08,
		minLatency:  200 * time.Millisecond,
		maxLatency:  1200 * time.Millisecond,
		logger:      slog.Default(),
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Get implements Provider.
func (u *Unreliable) Get(ctx context.Context, table Table, id string) (domain.Record, error) {
	if err := u.before(ctx, Op{Name: "get", Table: table, ID: id}); err != nil {
		return nil, err
	}
	return u.inner.Get(ctx, table, id)
}

// BulkPut implements Provider.
func (u *Unreliable) BulkPut(ctx context.Context, table Table, records []domain.Record) error {
	if err := u.before(ctx, Op{Name: "bulk_put", Table: table}); err != nil {
		return err
	}
	return u.inner.BulkPut(ctx, table, records)
}

// Update implements Provider.
func (u *Unreliable) Update(ctx context.Context, table Table, id string, update domain.Update) error {
	if err := u.before(ctx, Op{Name: "update", Table: table, ID: id}); err != nil {
		return err
	}
	return u.inner.Update(ctx, table, id, update)
}

// Delete implements Provider.
func (u *Unreliable) Delete(ctx context.Context, table Table, id string) error {
	if err := u.before(ctx, Op{Name: "delete", Table: table, ID: id}); err != nil {
		return err
	}
	return u.inner.Delete(ctx, table, id)
}

// Query implements Provider.
func (u *Unreliable) Query(ctx context.Context, table Table, field, value string) ([]domain.Record, error) {
	if err := u.before(ctx, Op{Name: "query", Table: table}); err != nil {
		return nil, err
	}
	return u.inner.Query(ctx, table, field, value)
}

// All implements Provider.
func (u *Unreliable) All(ctx context.Context, table Table) ([]domain.Record, error) {
	if err := u.before(ctx, Op{Name: "all", Table: table}); err != nil {
		return nil, err
	}
	return u.inner.All(ctx, table)
}

// before sleeps for the simulated latency, then decides whether op fails.
func (u *Unreliable) before(ctx context.Context, op Op) error {
	delay, fail := u.roll()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if u.fault != nil {
		if err := u.fault(op); err != nil {
			u.logger.Debug("injected fault", "op", op.Name, "table", op.Table, "id", op.ID, "error", err)
			return err
		}
	}
	if fail {
		u.logger.Debug("simulated failure", "op", op.Name, "table", op.Table, "id", op.ID)
		return ErrInjected
	}
	return nil
}

func (u *Unreliable) roll() (time.Duration, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	delay := u.minLatency
	if span := u.maxLatency - u.minLatency; span > 0 {
		delay += time.Duration(u.rng.Int64N(int64(span)))
	}
	return delay, u.rng.Float64() < u.failureRate
}
