package supervisor

import (
	"fmt"
	"sync"
	"time"
)

// EventKind classifies a NodeEvent. Closed set; Stream is only
// meaningful for EventLog.
type EventKind string

const (
	EventStatus  EventKind = "status"
	EventLog     EventKind = "log"
	EventWarning EventKind = "warning"
	EventError   EventKind = "error"
)

// NodeEvent is one item in a node's event stream: lifecycle transitions,
// monitor observations and captured output lines.
type NodeEvent struct {
	Kind      EventKind `json:"kind"`
	Message   string    `json:"message"`
	Stream    string    `json:"stream,omitempty"` // "stdout" or "stderr"; log events only
	Timestamp time.Time `json:"timestamp"`
}

// eventQueue is a bounded, thread-safe FIFO of NodeEvents.
//
// Overflow policy: the oldest event is dropped. Drops are counted and
// surfaced as a single aggregated warning at the head of the next Drain,
// so consumers always learn how many events they missed since the last
// such notice.
type eventQueue struct {
	mu      sync.Mutex
	items   []NodeEvent
	cap     int
	dropped int
}

// DefaultEventQueueCapacity bounds a node's event backlog between drains.
const DefaultEventQueueCapacity = 1024

func newEventQueue(capacity int) *eventQueue {
	if capacity <= 0 {
		capacity = DefaultEventQueueCapacity
	}
	return &eventQueue{cap: capacity}
}

// Push appends an event, stamping it with the current time.
func (q *eventQueue) Push(kind EventKind, message string) {
	q.push(NodeEvent{Kind: kind, Message: message, Timestamp: time.Now()})
}

// PushLog appends a log event tagged with its originating stream.
func (q *eventQueue) PushLog(stream, line string) {
	q.push(NodeEvent{Kind: EventLog, Message: line, Stream: stream, Timestamp: time.Now()})
}

// PushStreamError appends an error event attributed to one output stream.
func (q *eventQueue) PushStreamError(stream, message string) {
	q.push(NodeEvent{Kind: EventError, Message: message, Stream: stream, Timestamp: time.Now()})
}

func (q *eventQueue) push(ev NodeEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.cap {
		// Drop oldest; shift in place to keep backing array bounded.
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
		q.dropped++
	}
	q.items = append(q.items, ev)
}

// Drain atomically removes and returns all queued events. If events were
// dropped since the previous Drain, a single warning noting the count is
// prepended and the counter reset.
func (q *eventQueue) Drain() []NodeEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]NodeEvent, 0, len(q.items)+1)
	if q.dropped > 0 {
		out = append(out, NodeEvent{
			Kind:      EventWarning,
			Message:   fmt.Sprintf("Dropped %d event(s) due to queue overflow.", q.dropped),
			Timestamp: time.Now(),
		})
		q.dropped = 0
	}
	out = append(out, q.items...)
	q.items = q.items[:0]
	return out
}

// Len reports the number of currently queued events.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
