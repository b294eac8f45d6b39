package matcher

import "sync"

// Queue is a FIFO of user IDs waiting in one tier. Workers block in
// WaitPair until two users are queued.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []uint64
	closed bool
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends uid and wakes a waiting worker. A uid that is already queued
// is not added twice; Push reports whether it was added.
func (q *Queue) Push(uid uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.indexLocked(uid) >= 0 {
		return false
	}
	q.items = append(q.items, uid)
	q.cond.Signal()
	return true
}

// Remove deletes the first occurrence of uid. It reports whether uid was
// queued.
func (q *Queue) Remove(uid uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(uid)
	if i < 0 {
		return false
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
	return true
}

func (q *Queue) indexLocked(uid uint64) int {
	for i, v := range q.items {
		if v == uid {
			return i
		}
	}
	return -1
}

// Len returns the number of queued users
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Contains reports whether uid is queued
func (q *Queue) Contains(uid uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.indexLocked(uid) >= 0
}

// WaitPair blocks until at least two users are queued and pops the two
// oldest. It returns ok == false once the queue is closed.
func (q *Queue) WaitPair() (first, second uint64, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) < 2 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return 0, 0, false
	}

	first, second = q.items[0], q.items[1]
	q.items = q.items[2:]
	return first, second, true
}

// Close wakes every waiter. Pushes after Close are ignored.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
