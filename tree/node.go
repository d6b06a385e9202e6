package tree

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"weak"

	"github.com/npillmayer/laytree/style"
)

// Node is a handle for a node of a layout tree. A node is owned by its
// parent and by every client holding it. Its reference to the parent is
// weak.
//
// All methods are safe for concurrent use.
type Node struct {
	tree     *Tree
	id       NodeID
	parent   weak.Pointer[Node]
	parentID NodeID // id behind parent, 0 for none
	children []*Node
	box      Box
	boxSeq   uint64 // measurement which wrote box
	dropped  bool
	cleanup  runtime.Cleanup
}

// ID returns the id of a node. Ids are never reused within a tree.
func (n *Node) ID() NodeID {
	return n.id
}

func (n *Node) String() string {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.dropped {
		return fmt.Sprintf("(Node %d dropped)", n.id)
	}
	return fmt.Sprintf("(Node %d #ch=%d %s)", n.id, len(n.children), n.box)
}

// alive fails for a dropped node. The caller must hold the tree mutex.
func (n *Node) alive() error {
	if n.dropped {
		return fmt.Errorf("%w: %d", ErrInvalidNodeID, n.id)
	}
	return nil
}

// --- Topology --------------------------------------------------------------

// AddChild appends ch to the children of n.
//
// ch must not have a parent (ErrHasParent) and must not be n or one of
// its ancestors (ErrCycle). Both nodes must belong to the same tree
// (ErrForeignNode).
func (n *Node) AddChild(ch *Node) error {
	if ch == nil {
		return fmt.Errorf("%w: nil child", ErrInvalidNodeID)
	}
	if ch.tree != n.tree {
		return ErrForeignNode
	}
	t := n.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := n.alive(); err != nil {
		return err
	}
	if err := ch.alive(); err != nil {
		return err
	}
	if p := ch.parent.Value(); p != nil {
		return fmt.Errorf("%w: node %d is a child of %d", ErrHasParent, ch.id, p.id)
	}
	if ch.parentID != 0 {
		// the parent has been collected, but its cleanup may not have run yet
		t.reap(ch.parentID)
		ch.parentID = 0
	}
	for a := n; a != nil; a = a.parent.Value() {
		if a == ch {
			return fmt.Errorf("%w: node %d below %d", ErrCycle, ch.id, n.id)
		}
	}
	if err := t.worker.AddChild(n.id, ch.id); err != nil {
		return err
	}
	n.children = append(n.children, ch)
	ch.parent, ch.parentID = weak.Make(n), n.id
	return nil
}

// RemoveChild detaches the child at index i from n and returns it.
func (n *Node) RemoveChild(i int) (*Node, error) {
	t := n.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := n.alive(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(n.children) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(n.children))
	}
	ch := n.children[i]
	if err := t.worker.RemoveChild(n.id, ch.id); err != nil {
		return nil, err
	}
	n.children = append(n.children[:i], n.children[i+1:]...)
	ch.parent, ch.parentID = weak.Pointer[Node]{}, 0
	return ch, nil
}

// SetStyle changes the style of n. The change takes effect with the next
// measurement.
func (n *Node) SetStyle(s style.Style) error {
	t := n.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := n.alive(); err != nil {
		return err
	}
	return t.worker.SetStyle(n.id, s)
}

// Drop destroys n. n is detached from its parent, its children observe no
// parent, and its layout record is removed. Later operations on n fail
// with ErrInvalidNodeID. Dropping a node twice is a no-op.
//
// Children of n which no client holds are collected in due course.
func (n *Node) Drop() {
	t := n.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if n.dropped {
		return
	}
	n.dropped = true
	n.cleanup.Stop()
	if p := n.parent.Value(); p != nil {
		if i := p.indexOf(n); i >= 0 {
			p.children = append(p.children[:i], p.children[i+1:]...)
		}
	}
	n.parent, n.parentID = weak.Pointer[Node]{}, 0
	for _, ch := range n.children {
		ch.parent, ch.parentID = weak.Pointer[Node]{}, 0
	}
	n.children = nil
	delete(t.registry, n.id)
	tracer().Debugf("tree %s: node %d dropped", t.id, n.id)
	if err := t.worker.Remove(n.id); err != nil && !t.closed {
		tracer().Errorf("tree %s: removing node %d: %v", t.id, n.id, err)
	}
}

// --- Navigation ------------------------------------------------------------

// Parent returns the parent of n, or nil.
func (n *Node) Parent() *Node {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.parent.Value()
}

// Children returns a copy of the children of n.
func (n *Node) Children() []*Node {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	children := make([]*Node, len(n.children))
	copy(children, n.children)
	return children
}

// ChildCount returns the number of children of n.
func (n *Node) ChildCount() int {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return len(n.children)
}

// Child returns the child at index i.
func (n *Node) Child(i int) (*Node, bool) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if i < 0 || i >= len(n.children) {
		return nil, false
	}
	return n.children[i], true
}

// IndexOfChild returns the index of ch within the children of n, or -1.
func (n *Node) IndexOfChild(ch *Node) int {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.indexOf(ch)
}

func (n *Node) indexOf(ch *Node) int {
	for i, child := range n.children {
		if child == ch {
			return i
		}
	}
	return -1
}

// AncestorWith returns the closest proper ancestor of n for which pred
// holds, or nil. pred must not call methods of the tree.
func (n *Node) AncestorWith(pred func(*Node) bool) *Node {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	for a := n.parent.Value(); a != nil; a = a.parent.Value() {
		if pred(a) {
			return a
		}
	}
	return nil
}

// --- Layout ----------------------------------------------------------------

// Layout returns the absolute box of n as of the last measurement which
// changed it. The box is relative to the root of that measurement.
func (n *Node) Layout() Box {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.box
}

// Measure lays out the subtree rooted at n within space and waits for the
// result. It returns the nodes whose boxes changed, in pre-order, and
// updates their cached boxes. Measuring again without intermediate changes
// returns an empty change set.
//
// If ctx is done before the result arrives, Measure returns ctx.Err(). The
// layout is computed anyway, and its boxes are cached once it arrives.
func (n *Node) Measure(ctx context.Context, space style.AvailableSpace) (ChangeSet, error) {
	return n.MeasureAsync(ctx, space)()
}

// Promise is a future result of a measurement. Calling it blocks until the
// result is available; later calls return the same result.
type Promise func() (ChangeSet, error)

// MeasureAsync enqueues a measurement of the subtree rooted at n and
// returns immediately. The measurement is ordered after all changes to
// the tree made before the call.
//
//     future := root.MeasureAsync(ctx, space)
//     ...
//     changes, err := future()
//
func (n *Node) MeasureAsync(ctx context.Context, space style.AvailableSpace) Promise {
	t := n.tree
	t.mu.Lock()
	if err := n.alive(); err != nil {
		t.mu.Unlock()
		return failed(err)
	}
	s, err := t.worker.Layout(ctx, n.id, space)
	if err == nil {
		t.lastSeq++
	}
	seq := t.lastSeq
	t.mu.Unlock()
	if err != nil {
		return failed(err)
	}
	return sync.OnceValues(func() (ChangeSet, error) {
		changes, err := t.worker.Await(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				go t.settle(s, seq)
			}
			return nil, err
		}
		t.apply(changes, seq)
		tracer().Debugf("tree %s: measured node %d, %d changes", t.id, n.id, len(changes))
		return changes, nil
	})
}

func failed(err error) Promise {
	return func() (ChangeSet, error) {
		return nil, err
	}
}
