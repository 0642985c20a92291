package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClock_AdvancesPerCall(t *testing.T) {
	c := NewFakeClock(start, time.Second)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Second), c.Now())
	assert.Equal(t, start.Add(2*time.Second), c.Peek())
}

func TestFakeClock_SetAndAdvance(t *testing.T) {
	c := NewFakeClock(start, 0)

	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())

	c.Set(start.Add(-time.Hour))
	assert.Equal(t, start.Add(-time.Hour), c.Now())
}

func TestFakeClock_ConcurrentCallsAreDistinct(t *testing.T) {
	c := NewFakeClock(start, time.Millisecond)

	var mu sync.Mutex
	seen := make(map[time.Time]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts := c.Now()
			mu.Lock()
			seen[ts] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGenerator("job")
	assert.Equal(t, "job-1", g.Generate())
	assert.Equal(t, "job-2", g.Generate())

	g.Reset()
	assert.Equal(t, "job-1", g.Generate())
	assert.Equal(t, "id-1", NewSequenceGenerator("").Generate())
}
