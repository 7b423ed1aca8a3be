package stream

import "sync"

// serial runs queued tasks one at a time, in submission order, on whichever
// goroutine found the queue idle.
type serial struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func (q *serial) do(task func()) {
	q.mu.Lock()
	q.queue = append(q.queue, task)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	q.drain()
}

func (q *serial) drain() {
	completed := false
	defer func() {
		if !completed {
			// A task panicked. Release the queue so later publishes can drain it.
			q.mu.Lock()
			q.running = false
			q.mu.Unlock()
		}
	}()

	for {
		q.mu.Lock()
		if len(q.queue) == 0 {
			q.running = false
			q.mu.Unlock()
			completed = true
			return
		}
		task := q.queue[0]
		q.queue[0] = nil
		q.queue = q.queue[1:]
		q.mu.Unlock()

		task()
	}
}
