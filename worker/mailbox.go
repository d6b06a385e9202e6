package worker

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Policy decides what happens to an enqueue on a full bounded mailbox.
type Policy uint8

const (
	Block  Policy = iota // wait for the worker to take a request
	Reject               // fail with ErrQueueFull
)

func (p Policy) String() string {
	if p == Reject {
		return "reject"
	}
	return "block"
}

// envelope wraps a request in the mailbox. counted is set if the request
// holds a slot of a bounded mailbox.
type envelope struct {
	req     request
	counted bool
}

// mailbox is an unbounded FIFO of requests, optionally limited to a number
// of pending requests. It has many producers and a single consumer.
type mailbox struct {
	mu     sync.Mutex
	queue  []envelope
	signal chan struct{} // wakes the consumer, capacity 1
	closed bool
	slots  *semaphore.Weighted // nil for an unbounded mailbox
	policy Policy
}

func newMailbox(limit int, policy Policy) *mailbox {
	mb := &mailbox{
		signal: make(chan struct{}, 1),
		policy: policy,
	}
	if limit > 0 {
		mb.slots = semaphore.NewWeighted(int64(limit))
	}
	return mb
}

// push appends a request. Urgent requests bypass the limit of a bounded
// mailbox. ctx is consulted only while blocking on a full mailbox.
func (mb *mailbox) push(ctx context.Context, req request, urgent bool) error {
	counted := false
	if mb.slots != nil && !urgent {
		if mb.isClosed() {
			return ErrChannelClosed
		}
		if mb.policy == Reject {
			if !mb.slots.TryAcquire(1) {
				return ErrQueueFull
			}
		} else if err := mb.slots.Acquire(ctx, 1); err != nil {
			return err
		}
		counted = true
	}
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		if counted {
			mb.slots.Release(1)
		}
		return ErrChannelClosed
	}
	mb.queue = append(mb.queue, envelope{req: req, counted: counted})
	mb.mu.Unlock()
	select {
	case mb.signal <- struct{}{}:
	default: // consumer already signalled
	}
	return nil
}

// pop blocks until a request is available. It returns false once the
// mailbox has been closed.
func (mb *mailbox) pop() (request, bool) {
	for {
		mb.mu.Lock()
		if mb.closed {
			mb.mu.Unlock()
			return nil, false
		}
		if len(mb.queue) > 0 {
			env := mb.queue[0]
			mb.queue[0] = envelope{}
			mb.queue = mb.queue[1:]
			mb.mu.Unlock()
			if env.counted {
				mb.slots.Release(1)
			}
			return env.req, true
		}
		mb.mu.Unlock()
		<-mb.signal
	}
}

// close rejects further pushes and returns the requests still pending.
func (mb *mailbox) close() []request {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return nil
	}
	mb.closed = true
	pending := mb.queue
	mb.queue = nil
	mb.mu.Unlock()
	reqs := make([]request, len(pending))
	for i, env := range pending {
		reqs[i] = env.req
		if env.counted {
			mb.slots.Release(1) // wakes blocked producers, which will see closed
		}
	}
	select {
	case mb.signal <- struct{}{}:
	default:
	}
	return reqs
}

func (mb *mailbox) isClosed() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.closed
}

// length is the number of pending requests.
func (mb *mailbox) length() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.queue)
}
