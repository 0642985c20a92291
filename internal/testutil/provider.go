package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/roach88/talentflow/internal/provider"
)

// Reliable wraps inner in a provider.Unreliable with no latency and no
// random failures, so only the given fault hooks decide what fails.
func Reliable(inner provider.Provider, hooks ...provider.FaultFunc) *provider.Unreliable {
	return provider.NewUnreliable(inner,
		provider.WithFailureRate(0),
		provider.WithLatency(0, 0),
		provider.WithFault(Chain(hooks...)),
	)
}

// Chain runs fault hooks in order and returns the first error.
func Chain(hooks ...provider.FaultFunc) provider.FaultFunc {
	return func(op provider.Op) error {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if err := h(op); err != nil {
				return err
			}
		}
		return nil
	}
}

// Match selects provider operations. Empty fields match anything.
type Match struct {
	Name  string
	Table provider.Table
	ID    string
}

func (m Match) matches(op provider.Op) bool {
	return (m.Name == "" || m.Name == op.Name) &&
		(m.Table == "" || m.Table == op.Table) &&
		(m.ID == "" || m.ID == op.ID)
}

// Faults fails selected operations a fixed number of times.
// Thread-safety: safe for concurrent use.
type Faults struct {
	mu    sync.Mutex
	rules []*faultRule
	calls []provider.Op
}

type faultRule struct {
	match     Match
	remaining int // < 0 means forever
}

// NewFaults creates an empty fault plan: nothing fails.
func NewFaults() *Faults {
	return &Faults{}
}

// Fail makes the next times operations matching m fail with
// provider.ErrInjected. times < 0 fails them forever.
func (f *Faults) Fail(m Match, times int) *Faults {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &faultRule{match: m, remaining: times})
	return f
}

// Clear removes every rule.
func (f *Faults) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = nil
}

// Calls returns every operation seen so far.
func (f *Faults) Calls() []provider.Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]provider.Op, len(f.calls))
	copy(out, f.calls)
	return out
}

// Count returns how many seen operations match m.
func (f *Faults) Count(m Match) int {
	n := 0
	for _, op := range f.Calls() {
		if m.matches(op) {
			n++
		}
	}
	return n
}

// Hook returns the fault function to install on a provider.Unreliable.
func (f *Faults) Hook() provider.FaultFunc {
	return func(op provider.Op) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, op)
		for _, r := range f.rules {
			if r.remaining == 0 || !r.match.matches(op) {
				continue
			}
			if r.remaining > 0 {
				r.remaining--
			}
			return provider.ErrInjected
		}
		return nil
	}
}

// Gate holds matching operations until the test releases them, so tests can
// choose the order in which concurrent writes complete.
type Gate struct {
	match Match

	mu   sync.Mutex
	held []*heldOp
}

type heldOp struct {
	op      provider.Op
	release chan error
}

// NewGate creates a gate for operations matching m.
func NewGate(m Match) *Gate {
	return &Gate{match: m}
}

// Hook returns the fault function to install on a provider.Unreliable.
// A held operation blocks until Release is called for it.
func (g *Gate) Hook() provider.FaultFunc {
	return func(op provider.Op) error {
		if !g.match.matches(op) {
			return nil
		}
		h := &heldOp{op: op, release: make(chan error, 1)}
		g.mu.Lock()
		g.held = append(g.held, h)
		g.mu.Unlock()
		return <-h.release
	}
}

// AwaitHeld blocks until at least n operations have arrived at the gate.
func (g *Gate) AwaitHeld(t testing.TB, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		g.mu.Lock()
		got := len(g.held)
		g.mu.Unlock()
		if got >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("gate: %d operations held, want %d", got, n)
		}
		time.Sleep(time.Millisecond)
	}
}

// Release lets the i-th arrived operation (0-based) continue. A nil err
// lets it reach the inner provider; otherwise it fails with err.
func (g *Gate) Release(i int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i >= len(g.held) {
		panic(fmt.Sprintf("gate: release %d, only %d held", i, len(g.held)))
	}
	g.held[i].release <- err
}

// Held returns the operation that arrived i-th.
func (g *Gate) Held(i int) provider.Op {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held[i].op
}

// Barrier pauses every provider operation while held. Callers use it to
// observe optimistic state before any background write can settle.
type Barrier struct {
	mu   sync.Mutex
	open chan struct{}
}

// Hold makes subsequent operations block until Release.
func (b *Barrier) Hold() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open == nil {
		b.open = make(chan struct{})
	}
}

// Release lets blocked and future operations through.
func (b *Barrier) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open != nil {
		close(b.open)
		b.open = nil
	}
}

// Hook returns the fault function to install on a provider.Unreliable.
func (b *Barrier) Hook() provider.FaultFunc {
	return func(provider.Op) error {
		b.mu.Lock()
		ch := b.open
		b.mu.Unlock()
		if ch != nil {
			<-ch
		}
		return nil
	}
}
