package event

import "sync"

// Queue is a mutex-guarded FIFO of pending upcalls, owned by exactly one
// handle. Push order is delivery order.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an event. Queue implements the engine-facing Notifier
// interface through it.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
}

// Notify is Push under the name the engine collaborator expects.
func (q *Queue) Notify(ev Event) {
	q.Push(ev)
}

// Drain removes and returns every event pending at entry. Events pushed
// while the caller is dispatching land in the next drain, which keeps FIFO
// order across polls.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Clear drops every pending event.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = nil
}
