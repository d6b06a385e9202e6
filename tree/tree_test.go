package tree

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/npillmayer/laytree/engine"
	"github.com/npillmayer/laytree/style"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/tyse/core/dimen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(n int) dimen.DU {
	return dimen.DU(n) * dimen.PT
}

func newTree(t *testing.T, opts ...Option) *Tree {
	t.Helper()
	tr := New(opts...)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func insert(t *testing.T, tr *Tree, s style.Style) *Node {
	t.Helper()
	n, err := tr.Insert(s)
	require.NoError(t, err)
	return n
}

func ids(changes ChangeSet) []NodeID {
	var r []NodeID
	for _, ch := range changes {
		r = append(r, ch.ID)
	}
	return r
}

func TestSingleLeafMaxContent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	defer teardown()
	//
	tr := newTree(t)
	leaf := insert(t, tr, style.Sized(pt(100), pt(100)))
	assert.Equal(t, Box{}, leaf.Layout(), "fresh node should have a zero box")
	changes, err := leaf.Measure(context.Background(), style.Unconstrained())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	want := Box{Width: pt(100), Height: pt(100)}
	assert.Equal(t, want, changes[0].Box)
	assert.Equal(t, want, leaf.Layout())
}

func TestTwoChildrenDoNotOverlap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	ctx := context.Background()
	root, err := tr.NewNode()
	require.NoError(t, err)
	a, err := tr.NewNode()
	require.NoError(t, err)
	b, err := tr.NewNode()
	require.NoError(t, err)
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))
	changes, err := root.Measure(ctx, style.Fixed(pt(200), pt(100)))
	require.NoError(t, err)
	assert.Contains(t, ids(changes), root.ID())
	assert.LessOrEqual(t, a.Layout().Right(), b.Layout().X, "children should be laid out left to right")
	assert.Equal(t, uint32(1), b.Layout().Order)
	changes, err = root.Measure(ctx, style.Fixed(pt(200), pt(100)))
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestAddChildAfterMeasure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	ctx := context.Background()
	root := insert(t, tr, style.Default())
	a := insert(t, tr, style.Sized(pt(30), pt(20)))
	b := insert(t, tr, style.Sized(pt(50), pt(10)))
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))
	changes, err := root.Measure(ctx, style.Unconstrained())
	require.NoError(t, err)
	assert.Equal(t, []NodeID{root.ID(), a.ID(), b.ID()}, ids(changes))
	assert.Equal(t, Box{Width: pt(80), Height: pt(20)}, root.Layout())
	assert.Equal(t, Box{X: pt(30), Width: pt(50), Height: pt(10), Order: 1}, b.Layout())
	//
	c := insert(t, tr, style.Sized(pt(20), pt(40)))
	require.NoError(t, root.AddChild(c))
	changes, err = root.Measure(ctx, style.Unconstrained())
	require.NoError(t, err)
	assert.Equal(t, []NodeID{root.ID(), c.ID()}, ids(changes))
	assert.Equal(t, Box{Width: pt(100), Height: pt(40)}, root.Layout())
	assert.Equal(t, Box{X: pt(80), Width: pt(20), Height: pt(40), Order: 2}, c.Layout())
}

func TestAbsolutePositions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	padded := func(w, h, p int) style.Style {
		s := style.Sized(pt(w), pt(h))
		s.Padding = style.EdgeAll(pt(p))
		return s
	}
	root := insert(t, tr, padded(300, 300, 10))
	spacer := insert(t, tr, style.Sized(pt(40), pt(40)))
	mid := insert(t, tr, padded(100, 100, 7))
	leaf := insert(t, tr, style.Sized(pt(5), pt(5)))
	require.NoError(t, root.AddChild(spacer))
	require.NoError(t, root.AddChild(mid))
	require.NoError(t, mid.AddChild(leaf))
	_, err := root.Measure(context.Background(), style.Unconstrained())
	require.NoError(t, err)
	assert.Equal(t, Box{X: pt(50), Y: pt(10), Width: pt(100), Height: pt(100), Order: 1}, mid.Layout())
	assert.Equal(t, Box{X: pt(57), Y: pt(17), Width: pt(5), Height: pt(5)}, leaf.Layout())
}

func TestRemoveChild(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	ctx := context.Background()
	root := insert(t, tr, style.Default())
	a := insert(t, tr, style.Sized(pt(30), pt(20)))
	b := insert(t, tr, style.Sized(pt(50), pt(10)))
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))
	_, err := root.Measure(ctx, style.Unconstrained())
	require.NoError(t, err)
	_, err = root.RemoveChild(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	removed, err := root.RemoveChild(0)
	require.NoError(t, err)
	assert.Same(t, a, removed)
	assert.Nil(t, a.Parent())
	assert.Equal(t, 1, root.ChildCount())
	changes, err := root.Measure(ctx, style.Unconstrained())
	require.NoError(t, err)
	assert.NotContains(t, ids(changes), a.ID())
	assert.Equal(t, []NodeID{root.ID(), b.ID()}, ids(changes))
	assert.Equal(t, Box{Width: pt(50), Height: pt(10)}, b.Layout())
	// the detached node can be measured on its own
	changes, err = a.Measure(ctx, style.Unconstrained())
	require.NoError(t, err)
	assert.Empty(t, changes, "detached node keeps its size and lands at the origin")
}

func TestTopologyErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	root := insert(t, tr, style.Default())
	a := insert(t, tr, style.Default())
	b := insert(t, tr, style.Default())
	require.NoError(t, root.AddChild(a))
	require.NoError(t, a.AddChild(b))
	assert.ErrorIs(t, root.AddChild(b), ErrHasParent)
	assert.ErrorIs(t, b.AddChild(root), ErrCycle)
	assert.ErrorIs(t, root.AddChild(root), ErrCycle)
	other := newTree(t)
	foreign := insert(t, other, style.Default())
	assert.ErrorIs(t, root.AddChild(foreign), ErrForeignNode)
	assert.Equal(t, 1, root.ChildCount())
	assert.Equal(t, []*Node{b}, a.Children())
	assert.Same(t, root, b.AncestorWith(func(n *Node) bool { return n.id == root.id }))
	assert.Nil(t, b.AncestorWith(func(n *Node) bool { return n == b }))
	assert.Equal(t, 0, root.IndexOfChild(a))
	assert.Equal(t, -1, root.IndexOfChild(b))
}

func TestDropInvalidatesNode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	ctx := context.Background()
	root := insert(t, tr, style.Default())
	mid := insert(t, tr, style.Sized(pt(10), pt(10)))
	leaf := insert(t, tr, style.Sized(pt(5), pt(5)))
	require.NoError(t, root.AddChild(mid))
	require.NoError(t, mid.AddChild(leaf))
	_, err := root.Measure(ctx, style.Unconstrained())
	require.NoError(t, err)
	found, err := tr.Lookup(mid.ID())
	require.NoError(t, err)
	assert.Same(t, mid, found)
	//
	mid.Drop()
	mid.Drop()
	_, err = tr.Lookup(mid.ID())
	assert.ErrorIs(t, err, ErrInvalidNodeID)
	assert.Equal(t, 0, root.ChildCount())
	assert.Nil(t, leaf.Parent(), "former child should observe no parent")
	assert.ErrorIs(t, mid.AddChild(leaf), ErrInvalidNodeID)
	assert.ErrorIs(t, root.AddChild(mid), ErrInvalidNodeID)
	_, err = mid.Measure(ctx, style.Unconstrained())
	assert.ErrorIs(t, err, ErrInvalidNodeID)
	changes, err := root.Measure(ctx, style.Unconstrained())
	require.NoError(t, err)
	assert.Equal(t, []NodeID{root.ID()}, ids(changes))
	n, err := tr.worker.RecordCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	// the orphan is still alive and may be re-attached
	require.NoError(t, root.AddChild(leaf))
}

func TestCollectedNodeIsRemoved(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	func() {
		root := insert(t, tr, style.Default())
		require.NoError(t, root.AddChild(insert(t, tr, style.Default())))
	}()
	ctx := context.Background()
	require.Eventually(t, func() bool {
		runtime.GC()
		n, err := tr.worker.RecordCount(ctx)
		return err == nil && n == 0
	}, 5*time.Second, 10*time.Millisecond, "records of unreachable nodes should be removed")
	assert.Equal(t, 0, tr.Len())
}

// cleanupBlocker holds a pointer so it is never placed in a tiny-alloc block.
type cleanupBlocker struct {
	next *cleanupBlocker
}

// stallCleanups blocks the runtime's cleanup queue until the test ends.
func stallCleanups(t *testing.T) {
	t.Helper()
	started, gate := make(chan struct{}), make(chan struct{})
	t.Cleanup(func() { close(gate) })
	func() {
		b := &cleanupBlocker{}
		runtime.AddCleanup(b, func(struct{}) {
			close(started)
			<-gate
		}, struct{}{})
	}()
	require.Eventually(t, func() bool {
		runtime.GC()
		select {
		case <-started:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "cleanup queue should be stalled")
}

func TestReattachChildOfCollectedParent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	stallCleanups(t)
	var child *Node
	var parentID NodeID
	func() {
		p := insert(t, tr, style.Default())
		child = insert(t, tr, style.Sized(pt(10), pt(10)))
		require.NoError(t, p.AddChild(child))
		parentID = p.ID()
	}()
	require.Eventually(t, func() bool {
		runtime.GC()
		return child.Parent() == nil
	}, 5*time.Second, 10*time.Millisecond, "parent should be collected")
	//
	q := insert(t, tr, style.Default())
	require.NoError(t, q.AddChild(child))
	changes, err := q.Measure(context.Background(), style.Unconstrained())
	require.NoError(t, err)
	assert.Equal(t, []NodeID{q.ID(), child.ID()}, ids(changes), "child should be laid out below its new parent")
	assert.Equal(t, Box{Width: pt(10), Height: pt(10)}, q.Layout())
	_, err = tr.Lookup(parentID)
	assert.ErrorIs(t, err, ErrInvalidNodeID)
	n, err := tr.worker.RecordCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "record of the collected parent should be gone")
}

func TestMeasureAsync(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	ctx := context.Background()
	leaf := insert(t, tr, style.Sized(pt(10), pt(20)))
	first := leaf.MeasureAsync(ctx, style.Unconstrained())
	require.NoError(t, leaf.SetStyle(style.Sized(pt(30), pt(20))))
	second := leaf.MeasureAsync(ctx, style.Unconstrained())
	changes, err := second()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, pt(30), changes[0].Box.Width)
	changes, err = first()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, pt(10), changes[0].Box.Width, "first measurement precedes the style change")
	again, err := first()
	require.NoError(t, err)
	assert.Equal(t, changes, again)
	assert.Equal(t, pt(30), leaf.Layout().Width, "older result must not overwrite a newer one")
}

// gatedEngine holds every layout computation until gate is closed.
type gatedEngine struct {
	*engine.Flex
	gate chan struct{}
}

func (g gatedEngine) ComputeLayout(k engine.Key, space style.AvailableSpace) error {
	<-g.gate
	return g.Flex.ComputeLayout(k, space)
}

func TestCancelledMeasureSettles(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	gate := make(chan struct{})
	tr := newTree(t, WithEngine(gatedEngine{Flex: engine.NewFlex(), gate: gate}))
	leaf := insert(t, tr, style.Sized(pt(10), pt(20)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := leaf.Measure(ctx, style.Unconstrained())
	assert.Equal(t, Box{}, leaf.Layout())
	close(gate) // the answer can only arrive after the cancellation
	require.ErrorIs(t, err, context.Canceled)
	want := Box{Width: pt(10), Height: pt(20)}
	assert.Eventually(t, func() bool { return leaf.Layout() == want },
		time.Second, 5*time.Millisecond, "late answer should be cached")
	changes, err := leaf.Measure(context.Background(), style.Unconstrained())
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestClosedTree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := New()
	a := insert(t, tr, style.Default())
	b := insert(t, tr, style.Default())
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	_, err := tr.NewNode()
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.ErrorIs(t, a.AddChild(b), ErrChannelClosed)
	assert.ErrorIs(t, a.SetStyle(style.Default()), ErrChannelClosed)
	_, err = a.Measure(context.Background(), style.Unconstrained())
	assert.ErrorIs(t, err, ErrChannelClosed)
	a.Drop() // must not block or panic
}

func TestConcurrentClients(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "laytree.tree")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tr := newTree(t)
	root := insert(t, tr, style.Default())
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			sub, err := tr.Insert(style.Default())
			if !assert.NoError(t, err) {
				return
			}
			leaf, err := tr.Insert(style.Sized(pt(w), pt(w)))
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, sub.AddChild(leaf))
			changes, err := sub.Measure(context.Background(), style.Unconstrained())
			assert.NoError(t, err)
			assert.Equal(t, []NodeID{sub.ID(), leaf.ID()}, ids(changes))
			assert.NoError(t, root.AddChild(sub))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, root.ChildCount())
	_, err := root.Measure(context.Background(), style.Unconstrained())
	require.NoError(t, err)
	assert.Equal(t, Box{Width: pt(36), Height: pt(8)}, root.Layout())
}
