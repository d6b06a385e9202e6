/*
Package tree is the public front-end of a layout tree.

A Tree hands out Node handles. Each node carries a style and, after a
measurement, the absolute border box computed for it. All layout work
happens on a worker goroutine (see package worker) which owns the layout
engine; the front-end only records topology and caches boxes.

Typical usage:

    t := tree.New()
    defer t.Close()
    root, _ := t.Insert(style.Sized(100*dimen.PT, 100*dimen.PT))
    child, _ := t.NewNode()
    root.AddChild(child)
    changes, err := root.Measure(ctx, style.Unconstrained())
    box := child.Layout()

Measure returns the nodes whose boxes changed since the previous
measurement. Measuring again without intermediate changes yields an empty
change set.

Ownership

Children are owned by their parent; the back-reference from a child to
its parent is weak. A node is destroyed either explicitly with Drop or
when the garbage collector reclaims it. Either way its layout record is
removed from the worker, and its former children observe no parent.
Operations on a dropped node fail with ErrInvalidNodeID.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package tree

import (
	"errors"

	"github.com/npillmayer/laytree/engine"
	"github.com/npillmayer/laytree/worker"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'laytree.tree'.
func tracer() tracing.Trace {
	return tracing.Select("laytree.tree")
}

// NodeID identifies a node within its tree.
type NodeID = worker.NodeID

// Box is the absolute border box of a node.
type Box = engine.Box

// ChangeSet lists the nodes whose box changed during a measurement.
type ChangeSet = worker.ChangeSet

// Errors shared with the layout worker.
var (
	ErrInvalidNodeID = worker.ErrInvalidNodeID
	ErrChannelClosed = worker.ErrChannelClosed
	ErrQueueFull     = worker.ErrQueueFull
)

// ErrIndexOutOfRange is returned if a child index is invalid.
var ErrIndexOutOfRange = errors.New("child index out of range")

// ErrHasParent is returned if a node to be added as a child is already
// attached to a parent. Clients have to detach it first.
var ErrHasParent = errors.New("node already has a parent")

// ErrCycle is returned if a node is to be added below itself.
var ErrCycle = errors.New("node would become its own ancestor")

// ErrForeignNode is returned if nodes of different trees are linked.
var ErrForeignNode = errors.New("node belongs to another tree")
