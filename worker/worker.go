package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/npillmayer/laytree/engine"
	"github.com/npillmayer/laytree/style"
)

// Engine is the layout engine capability a worker drives. Implementations
// need not be safe for concurrent use: a worker calls them from its own
// goroutine only.
type Engine interface {
	NewLeaf(style.Style) (engine.Key, error)
	AddChild(parent, child engine.Key) error
	RemoveChild(parent, child engine.Key) error
	Remove(engine.Key) error
	SetStyle(engine.Key, style.Style) error
	ComputeLayout(root engine.Key, space style.AvailableSpace) error
	Layout(engine.Key) (engine.Box, error)
	Children(engine.Key) ([]engine.Key, error)
}

var _ Engine = (*engine.Flex)(nil)

// Config configures the mailbox of a worker. The zero value is an
// unbounded mailbox.
type Config struct {
	QueueLimit int    // maximum number of pending requests; 0 for unbounded
	Overflow   Policy // what to do when QueueLimit is reached
}

// record is the worker-side LayoutRecord of a node.
type record struct {
	key engine.Key
	box engine.Box // absolute box at the last measurement
}

// Worker owns a layout engine and serves requests for it on a dedicated
// goroutine.
type Worker struct {
	engine   Engine
	mbox     *mailbox
	records  map[NodeID]*record    // touched by the worker goroutine only
	owners   map[engine.Key]NodeID // touched by the worker goroutine only
	done     chan struct{}
	stopOnce sync.Once
}

// Start creates a worker for eng and starts its goroutine. Clients must
// call Stop to release the goroutine.
func Start(eng Engine, conf Config) *Worker {
	w := &Worker{
		engine:  eng,
		mbox:    newMailbox(conf.QueueLimit, conf.Overflow),
		records: make(map[NodeID]*record),
		owners:  make(map[engine.Key]NodeID),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	tracer().Infof("layout worker started")
	for {
		req, ok := w.mbox.pop()
		if !ok {
			break
		}
		w.serve(req)
	}
	tracer().Infof("layout worker stopped")
}

// serve applies a single request. Failures abort the request only.
func (w *Worker) serve(req request) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %s: %v", ErrEnginePanic, req, r)
			tracer().Errorf("worker: %v", err)
			req.fail(err)
		}
	}()
	tracer().Debugf("worker: %s", req)
	if err := req.apply(w); err != nil {
		tracer().Errorf("worker: %s failed: %v", req, err)
		req.fail(err)
	}
}

// Stop terminates the worker. Requests still pending are answered with
// ErrChannelClosed; later requests fail with ErrChannelClosed. Stop waits
// for the worker goroutine to exit and may be called more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		pending := w.mbox.close()
		<-w.done
		for _, req := range pending {
			req.fail(ErrChannelClosed)
		}
		if len(pending) > 0 {
			tracer().Infof("layout worker dropped %d pending requests", len(pending))
		}
	})
}

// Done is closed when the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Pending returns the number of requests waiting in the mailbox.
func (w *Worker) Pending() int {
	return w.mbox.length()
}

// --- Fire-and-forget requests ----------------------------------------------

// Insert enqueues the creation of a leaf for node id.
func (w *Worker) Insert(id NodeID, s style.Style) error {
	return w.mbox.push(context.Background(), insertRequest{id: id, style: s}, false)
}

// AddChild enqueues appending child to the children of parent.
func (w *Worker) AddChild(parent, child NodeID) error {
	return w.mbox.push(context.Background(), addChildRequest{parent: parent, child: child}, false)
}

// RemoveChild enqueues detaching child from parent.
func (w *Worker) RemoveChild(parent, child NodeID) error {
	return w.mbox.push(context.Background(), removeChildRequest{parent: parent, child: child}, false)
}

// SetStyle enqueues a style change of node id.
func (w *Worker) SetStyle(id NodeID, s style.Style) error {
	return w.mbox.push(context.Background(), setStyleRequest{id: id, style: s}, false)
}

// Remove enqueues the removal of the record and engine node of id.
// Removals bypass the limit of a bounded mailbox.
func (w *Worker) Remove(id NodeID) error {
	return w.mbox.push(context.Background(), removeRequest{id: id}, true)
}

// --- Layout ----------------------------------------------------------------

// Layout enqueues a measurement of the subtree rooted at id and returns
// the slot the answer will arrive on. ctx is consulted only while blocking
// on a full mailbox.
func (w *Worker) Layout(ctx context.Context, id NodeID, space style.AvailableSpace) (Slot, error) {
	req := newLayoutRequest(id, space)
	if err := w.mbox.push(ctx, req, false); err != nil {
		return nil, err
	}
	return req.reply, nil
}

// Await waits for the answer on slot. It returns ErrChannelClosed if the
// worker terminates first, and ctx.Err() if ctx is done first. An
// abandoned slot is harmless: the worker never blocks on it.
func (w *Worker) Await(ctx context.Context, slot Slot) (ChangeSet, error) {
	select {
	case reply, ok := <-slot:
		return answer(reply, ok)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.done:
		select { // an answer may have raced with termination
		case reply, ok := <-slot:
			return answer(reply, ok)
		default:
			return nil, ErrChannelClosed
		}
	}
}

func answer(reply Reply, ok bool) (ChangeSet, error) {
	if !ok {
		return nil, nil // closed without changes
	}
	return reply.Changes, reply.Err
}

// Measure is Layout followed by Await.
func (w *Worker) Measure(ctx context.Context, id NodeID, space style.AvailableSpace) (ChangeSet, error) {
	slot, err := w.Layout(ctx, id, space)
	if err != nil {
		return nil, err
	}
	return w.Await(ctx, slot)
}

// --- Inspection ------------------------------------------------------------

// inspect runs fn on the worker goroutine, ordered with all other requests.
func (w *Worker) inspect(ctx context.Context, fn func(w *Worker)) error {
	req := inspectRequest{fn: fn, done: make(chan error, 1)}
	if err := w.mbox.push(ctx, req, false); err != nil {
		return err
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		select {
		case err := <-req.done:
			return err
		default:
			return ErrChannelClosed
		}
	}
}

// Record returns the absolute box stored for node id at its last
// measurement, or ErrInvalidNodeID if id has no record.
func (w *Worker) Record(ctx context.Context, id NodeID) (engine.Box, error) {
	var box engine.Box
	var err error
	if e := w.inspect(ctx, func(w *Worker) {
		var rec *record
		if rec, err = w.record(id); err == nil {
			box = rec.box
		}
	}); e != nil {
		return engine.Box{}, e
	}
	return box, err
}

// RecordCount returns the number of layout records.
func (w *Worker) RecordCount(ctx context.Context) (int, error) {
	var n int
	err := w.inspect(ctx, func(w *Worker) {
		n = len(w.records)
	})
	return n, err
}

// --- Records ---------------------------------------------------------------

func (w *Worker) record(id NodeID) (*record, error) {
	rec, ok := w.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNodeID, id)
	}
	return rec, nil
}

func (w *Worker) recordPair(a, b NodeID) (*record, *record, error) {
	ra, err := w.record(a)
	if err != nil {
		return nil, nil, err
	}
	rb, err := w.record(b)
	if err != nil {
		return nil, nil, err
	}
	return ra, rb, nil
}

// engineError wraps an engine error for node id. Invalid engine keys are
// reported as invalid node ids.
func engineError(id NodeID, err error) error {
	if errors.Is(err, engine.ErrInvalidKey) {
		return fmt.Errorf("%w: %d: %w", ErrInvalidNodeID, id, err)
	}
	return fmt.Errorf("layout engine, node %d: %w", id, err)
}
