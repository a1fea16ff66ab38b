// sim/event_loop.go
package sim

import (
	"container/heap"
	"sync"
)

// scheduledEvent is one pending action in the loop, ordered by (time, id).
// The id is a monotonically increasing insertion counter, so events scheduled
// for the same instant fire in scheduling order.
type scheduledEvent struct {
	time      float64
	id        int64
	action    func()
	cancelled bool
}

// eventQueue implements heap.Interface over scheduledEvents.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventQueue []*scheduledEvent

func (eq eventQueue) Len() int { return len(eq) }
func (eq eventQueue) Less(i, j int) bool {
	if eq[i].time != eq[j].time {
		return eq[i].time < eq[j].time
	}
	return eq[i].id < eq[j].id
}
func (eq eventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *eventQueue) Push(x any) {
	*eq = append(*eq, x.(*scheduledEvent))
}

func (eq *eventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}

// EventLoop is a time-ordered, cancellable queue of deferred actions driving
// all simulated activity. It is purely a scheduling primitive: it knows
// nothing about frames or channels, and makes no wall-clock guarantee —
// Advance processes the logically earliest event regardless of real time.
//
// Schedule, Cancel, Advance and PendingCount are safe to call concurrently.
// A single mutex guards the queue and the pending index, so popping an event
// and observing its cancellation flag is one atomic step with respect to
// Cancel calls racing the same id.
type EventLoop struct {
	mu      sync.Mutex
	events  eventQueue
	pending map[int64]*scheduledEvent
	nextID  int64
	now     float64
}

// NewEventLoop creates an empty event loop at virtual time zero.
func NewEventLoop() *EventLoop {
	return &EventLoop{
		events:  make(eventQueue, 0),
		pending: make(map[int64]*scheduledEvent),
	}
}

// Schedule enqueues action to fire at virtual time t and returns its event id.
func (l *EventLoop) Schedule(t float64, action func()) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	ev := &scheduledEvent{time: t, id: id, action: action}
	heap.Push(&l.events, ev)
	l.pending[id] = ev
	return id
}

// Cancel marks an already-scheduled event void. Firing becomes a no-op if the
// event has not yet fired. Cancelling an unknown id, twice, or after the
// event fired is a harmless no-op and retains no state.
func (l *EventLoop) Cancel(eventID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ev, ok := l.pending[eventID]; ok {
		ev.cancelled = true
	}
}

// Advance pops the earliest event by (time, id) order and runs its action,
// returning once the action completes. A cancelled event is consumed without
// running. On an empty queue Advance returns immediately.
func (l *EventLoop) Advance() {
	l.mu.Lock()

	if l.events.Len() == 0 {
		l.mu.Unlock()
		return
	}

	ev := heap.Pop(&l.events).(*scheduledEvent)
	delete(l.pending, ev.id)
	if ev.time > l.now {
		l.now = ev.time
	}
	l.mu.Unlock()

	// The action runs outside the lock so it may freely schedule or cancel.
	if !ev.cancelled {
		ev.action()
	}
}

// PendingCount reports the number of not-yet-fired events, including events
// that have been cancelled but not yet popped.
func (l *EventLoop) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events.Len()
}

// Now returns the virtual time of the latest event popped by Advance.
func (l *EventLoop) Now() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}
