package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLoop_Ordering(t *testing.T) {
	// GIVEN events scheduled at times 3.0, 1.0, 2.0
	loop := NewEventLoop()
	var order []int

	loop.Schedule(3.0, func() { order = append(order, 3) })
	loop.Schedule(1.0, func() { order = append(order, 1) })
	loop.Schedule(2.0, func() { order = append(order, 2) })

	// WHEN the queue is drained
	loop.Advance()
	loop.Advance()
	loop.Advance()

	// THEN actions fire in time order
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEventLoop_TieBrokenByInsertionOrder(t *testing.T) {
	loop := NewEventLoop()
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		loop.Schedule(1.0, func() { order = append(order, i) })
	}

	for loop.PendingCount() > 0 {
		loop.Advance()
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestEventLoop_Cancel(t *testing.T) {
	// GIVEN two scheduled events
	loop := NewEventLoop()
	var fired []int

	id1 := loop.Schedule(1.0, func() { fired = append(fired, 1) })
	loop.Schedule(2.0, func() { fired = append(fired, 2) })

	// WHEN the first is cancelled before firing
	loop.Cancel(id1)
	loop.Advance()
	loop.Advance()

	// THEN only the second action ran
	assert.Equal(t, []int{2}, fired)
}

func TestEventLoop_CancelIsIdempotent(t *testing.T) {
	loop := NewEventLoop()
	ran := false

	id := loop.Schedule(1.0, func() { ran = true })
	loop.Cancel(id)
	loop.Cancel(id)
	loop.Advance()
	// cancelling after the (cancelled) event was popped is a no-op too
	loop.Cancel(id)

	assert.False(t, ran)
	assert.Equal(t, 0, loop.PendingCount())
}

func TestEventLoop_CancelAfterFireRetainsNoState(t *testing.T) {
	// GIVEN an event that has already been popped
	loop := NewEventLoop()
	id := loop.Schedule(1.0, func() {})
	loop.Advance()

	// WHEN stale or unknown ids are cancelled
	loop.Cancel(id)
	loop.Cancel(id + 1000)

	// THEN no per-id state accumulates
	assert.Empty(t, loop.pending)
}

func TestEventLoop_PendingCount(t *testing.T) {
	loop := NewEventLoop()

	assert.Equal(t, 0, loop.PendingCount())

	loop.Schedule(1.0, func() {})
	id := loop.Schedule(2.0, func() {})
	assert.Equal(t, 2, loop.PendingCount())

	// a cancelled-but-not-yet-popped event still counts as pending
	loop.Cancel(id)
	assert.Equal(t, 2, loop.PendingCount())

	loop.Advance()
	assert.Equal(t, 1, loop.PendingCount())
	loop.Advance()
	assert.Equal(t, 0, loop.PendingCount())
}

func TestEventLoop_EmptyAdvance(t *testing.T) {
	loop := NewEventLoop()

	// Should return immediately without error on an empty queue
	loop.Advance()

	assert.Equal(t, 0, loop.PendingCount())
}

func TestEventLoop_NowTracksPoppedTime(t *testing.T) {
	loop := NewEventLoop()

	loop.Schedule(1.5, func() {})
	loop.Schedule(4.0, func() {})

	assert.Equal(t, 0.0, loop.Now())
	loop.Advance()
	assert.Equal(t, 1.5, loop.Now())
	loop.Advance()
	assert.Equal(t, 4.0, loop.Now())
}

func TestEventLoop_ActionMayReschedule(t *testing.T) {
	// GIVEN an action that schedules a follow-up when it fires
	loop := NewEventLoop()
	var order []string

	loop.Schedule(1.0, func() {
		order = append(order, "first")
		loop.Schedule(2.0, func() { order = append(order, "second") })
	})

	for loop.PendingCount() > 0 {
		loop.Advance()
	}

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEventLoop_ConcurrentScheduleAndCancel(t *testing.T) {
	loop := NewEventLoop()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := loop.Schedule(float64(i), func() {})
				if i%2 == 0 {
					loop.Cancel(id)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 800, loop.PendingCount())
	for loop.PendingCount() > 0 {
		loop.Advance()
	}
}
