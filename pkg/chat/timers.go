package chat

import (
	"sync"
	"time"
)

// TimerQueue implements moderation.Scheduler by handing due callbacks to
// the client loop, so they run on the same goroutine as every handler.
type TimerQueue struct {
	due  chan func()
	done chan struct{}

	mu     sync.Mutex
	nextID uint64
	timers map[uint64]*time.Timer // pending only; fired timers remove themselves
	once   sync.Once
}

// NewTimerQueue creates an empty queue
func NewTimerQueue() *TimerQueue {
	return &TimerQueue{
		due:    make(chan func()),
		done:   make(chan struct{}),
		timers: make(map[uint64]*time.Timer),
	}
}

// Schedule queues fn to run on the loop after d
func (q *TimerQueue) Schedule(d time.Duration, fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case <-q.done:
		return
	default:
	}

	q.nextID++
	id := q.nextID
	q.timers[id] = time.AfterFunc(d, func() {
		q.forget(id)
		select {
		case q.due <- fn:
		case <-q.done:
		}
	})
}

func (q *TimerQueue) forget(id uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.timers, id)
}

// Pending returns the number of timers that have not fired yet
func (q *TimerQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// C delivers callbacks that are due
func (q *TimerQueue) C() <-chan func() {
	return q.due
}

// Stop cancels pending timers and releases fired ones nobody will run
func (q *TimerQueue) Stop() {
	q.once.Do(func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		close(q.done)
		for id, t := range q.timers {
			t.Stop()
			delete(q.timers, id)
		}
	})
}
