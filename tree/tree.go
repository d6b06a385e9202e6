package tree

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"weak"

	"github.com/google/uuid"

	"github.com/npillmayer/laytree/engine"
	"github.com/npillmayer/laytree/style"
	"github.com/npillmayer/laytree/worker"
)

// Tree is a layout tree. It allocates nodes, forwards their topology to a
// layout worker and caches the boxes the worker computes.
//
// A Tree is safe for concurrent use. Clients must call Close to stop the
// layout worker.
type Tree struct {
	mu       sync.Mutex // guards everything below and all node fields
	id       uuid.UUID
	engine   worker.Engine
	conf     worker.Config
	worker   *worker.Worker
	registry map[NodeID]weak.Pointer[Node]
	lastID   NodeID
	lastSeq  uint64 // sequence number of the last measurement enqueued
	closed   bool
}

// New creates a layout tree and starts its worker.
//
//     t := tree.New(QueueLimit(128))
//     defer t.Close()
//
func New(opts ...Option) *Tree {
	t := &Tree{
		id:       uuid.New(),
		registry: make(map[NodeID]weak.Pointer[Node]),
	}
	for _, option := range opts {
		option(t)
	}
	if t.engine == nil {
		t.engine = engine.NewFlex()
	}
	t.worker = worker.Start(t.engine, t.conf)
	tracer().Infof("layout tree %s created", t.id)
	return t
}

// ID returns the identity of a tree.
func (t *Tree) ID() uuid.UUID {
	return t.id
}

func (t *Tree) String() string {
	return fmt.Sprintf("(Tree %s #nodes=%d)", t.id, t.Len())
}

// Insert creates a node with style s. The node has no parent, no children
// and a zero box until it is measured.
func (t *Tree) Insert(s style.Style) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrChannelClosed
	}
	id := t.lastID + 1
	if err := t.worker.Insert(id, s); err != nil {
		return nil, err
	}
	t.lastID = id
	node := &Node{tree: t, id: id}
	t.registry[id] = weak.Make(node)
	node.cleanup = runtime.AddCleanup(node, t.collect, id)
	tracer().Debugf("tree %s: inserted node %d", t.id, id)
	return node, nil
}

// NewNode creates a node with the default style.
func (t *Tree) NewNode() (*Node, error) {
	return t.Insert(style.Default())
}

// Lookup returns the live node for id. It fails with ErrInvalidNodeID if
// the node has been dropped or garbage collected.
func (t *Tree) Lookup(id NodeID) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := t.lookup(id); n != nil {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrInvalidNodeID, id)
}

// lookup resolves id. The caller must hold t.mu.
func (t *Tree) lookup(id NodeID) *Node {
	wp, ok := t.registry[id]
	if !ok {
		return nil
	}
	return wp.Value()
}

// Len returns the number of live nodes of a tree.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for _, wp := range t.registry {
		if wp.Value() != nil {
			count++
		}
	}
	return count
}

// Close stops the layout worker. Requests still pending are answered with
// ErrChannelClosed, as is every later operation which needs the worker.
// Close may be called more than once.
func (t *Tree) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	t.worker.Stop()
	tracer().Infof("layout tree %s closed", t.id)
	return nil
}

// collect is called after the garbage collector reclaimed node id without
// the node having been dropped.
func (t *Tree) collect(id NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reap(id)
}

// reap unregisters node id and enqueues its removal if the node has been
// reclaimed by the garbage collector. It is a no-op for live or already
// unregistered nodes. The caller must hold t.mu.
func (t *Tree) reap(id NodeID) {
	wp, ok := t.registry[id]
	if !ok || wp.Value() != nil {
		return
	}
	delete(t.registry, id)
	tracer().Debugf("tree %s: node %d collected", t.id, id)
	if err := t.worker.Remove(id); err != nil && !t.closed {
		tracer().Errorf("tree %s: removing collected node %d: %v", t.id, id, err)
	}
}

// settle waits for the answer of an abandoned measurement and caches its
// boxes, as the worker has already recorded them.
func (t *Tree) settle(slot worker.Slot, seq uint64) {
	changes, err := t.worker.Await(context.Background(), slot)
	if err != nil {
		return
	}
	t.apply(changes, seq)
}

// apply writes the boxes of a change set to the nodes still registered.
// Boxes from a measurement older than the one which last wrote a node are
// skipped, as results may be collected out of order.
func (t *Tree) apply(changes ChangeSet, seq uint64) {
	if len(changes) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range changes {
		if n := t.lookup(ch.ID); n != nil && n.boxSeq < seq {
			n.box, n.boxSeq = ch.Box, seq
		}
	}
}
