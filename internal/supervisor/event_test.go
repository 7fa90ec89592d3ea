package supervisor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueueFIFO(t *testing.T) {
	q := newEventQueue(8)
	q.Push(EventStatus, "first")
	q.PushLog(StreamStdout, "second")
	q.Push(EventWarning, "third")

	out := q.Drain()
	require.Len(t, out, 3)
	assert.Equal(t, "first", out[0].Message)
	assert.Equal(t, EventStatus, out[0].Kind)
	assert.Equal(t, "second", out[1].Message)
	assert.Equal(t, StreamStdout, out[1].Stream)
	assert.Equal(t, "third", out[2].Message)

	// Stream is only set on log events.
	assert.Empty(t, out[0].Stream)
	assert.False(t, out[1].Timestamp.IsZero())
}

func TestEventQueueDrainIsDestructive(t *testing.T) {
	q := newEventQueue(8)
	q.Push(EventStatus, "a")
	require.Len(t, q.Drain(), 1)
	assert.Empty(t, q.Drain())

	q.Push(EventStatus, "b")
	out := q.Drain()
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Message)
}

func TestEventQueueOverflowDropsOldest(t *testing.T) {
	q := newEventQueue(4)
	for i := 0; i < 6; i++ {
		q.Push(EventLog, fmt.Sprintf("line-%d", i))
	}

	out := q.Drain()
	require.Len(t, out, 5) // 4 survivors + 1 aggregated warning

	assert.Equal(t, EventWarning, out[0].Kind)
	assert.Equal(t, "Dropped 2 event(s) due to queue overflow.", out[0].Message)

	for i, ev := range out[1:] {
		assert.Equal(t, fmt.Sprintf("line-%d", i+2), ev.Message)
	}

	// Counter resets after the notice.
	q.Push(EventLog, "after")
	out = q.Drain()
	require.Len(t, out, 1)
	assert.Equal(t, "after", out[0].Message)
}

func TestEventQueueDefaultCapacity(t *testing.T) {
	q := newEventQueue(0)
	assert.Equal(t, DefaultEventQueueCapacity, q.cap)
}
