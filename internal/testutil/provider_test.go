package testutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/talentflow/internal/provider"
)

func TestFaults_FailsFixedNumberOfTimes(t *testing.T) {
	f := NewFaults().Fail(Match{Name: "update", Table: provider.TableCandidates}, 2)
	hook := f.Hook()

	op := provider.Op{Name: "update", Table: provider.TableCandidates, ID: "c1"}
	assert.ErrorIs(t, hook(op), provider.ErrInjected)
	assert.ErrorIs(t, hook(op), provider.ErrInjected)
	assert.NoError(t, hook(op))

	assert.NoError(t, hook(provider.Op{Name: "bulk_put", Table: provider.TableJobs}))
	assert.Equal(t, 3, f.Count(Match{Name: "update"}))
	assert.Len(t, f.Calls(), 4)
}

func TestFaults_Forever(t *testing.T) {
	f := NewFaults().Fail(Match{Table: provider.TableJobs}, -1)
	hook := f.Hook()
	for i := 0; i < 5; i++ {
		assert.Error(t, hook(provider.Op{Name: "all", Table: provider.TableJobs}))
	}
	f.Clear()
	assert.NoError(t, hook(provider.Op{Name: "all", Table: provider.TableJobs}))
}

func TestChain_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	hook := Chain(
		nil,
		func(provider.Op) error { calls++; return boom },
		func(provider.Op) error { calls++; return nil },
	)
	assert.ErrorIs(t, hook(provider.Op{}), boom)
	assert.Equal(t, 1, calls)
}

func TestGate_ReleaseOrder(t *testing.T) {
	g := NewGate(Match{Name: "bulk_put"})
	hook := g.Hook()

	results := make(chan string, 2)
	for _, id := range []string{"first", "second"} {
		go func() {
			if err := hook(provider.Op{Name: "bulk_put", ID: id}); err != nil {
				results <- id + ":failed"
				return
			}
			results <- id + ":ok"
		}()
		g.AwaitHeld(t, map[string]int{"first": 1, "second": 2}[id])
	}

	assert.Equal(t, "second", g.Held(1).ID)
	g.Release(1, nil)
	assert.Equal(t, "second:ok", <-results)
	g.Release(0, provider.ErrInjected)
	assert.Equal(t, "first:failed", <-results)

	assert.NoError(t, hook(provider.Op{Name: "get"}), "unmatched ops pass straight through")
}

func TestBarrier_HoldsUntilRelease(t *testing.T) {
	var b Barrier
	hook := b.Hook()

	assert.NoError(t, hook(provider.Op{Name: "get"}), "an open barrier does not block")

	b.Hold()
	done := make(chan struct{})
	go func() {
		_ = hook(provider.Op{Name: "bulk_put"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("operation passed a held barrier")
	case <-time.After(20 * time.Millisecond):
	}

	b.Release()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("operation still blocked after release")
	}
	b.Release()
}
