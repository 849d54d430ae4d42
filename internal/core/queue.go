package core

import (
	"sync"

	"github.com/dkeye/RoomChat/internal/domain"
)

// MessageQueue is an unbounded FIFO of room events. Any number of producers may
// Enqueue; a single consumer drains it with TryDequeue and parks on Ready.
// There is no size limit and no backpressure: a room whose members are slower
// than its senders grows without bound.
type MessageQueue struct {
	mu    sync.Mutex
	items []domain.Event
	ready chan struct{}
}

func NewMessageQueue() *MessageQueue {
	return &MessageQueue{ready: make(chan struct{}, 1)}
}

func (q *MessageQueue) Enqueue(ev domain.Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryDequeue removes and returns the head. ok is false when the queue is empty.
func (q *MessageQueue) TryDequeue() (ev domain.Event, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.Event{}, false
	}
	ev = q.items[0]
	q.items[0] = domain.Event{}
	q.items = q.items[1:]
	return ev, true
}

// Ready receives a token after an Enqueue. A token may be stale, so consumers
// must treat it as a hint and call TryDequeue again.
func (q *MessageQueue) Ready() <-chan struct{} { return q.ready }

func (q *MessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
