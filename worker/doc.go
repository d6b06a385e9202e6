/*
Package worker runs the layout engine of a layout tree on a dedicated
goroutine.

All mutable engine state is owned by exactly one worker. Other goroutines
talk to it by enqueueing requests on a single FIFO mailbox: inserting
nodes, linking and unlinking them, restyling and removing them, and asking
for layout. The worker applies requests strictly in enqueue order. A layout
request therefore always observes every topology change enqueued before it.

Layout is a request/response exchange. The caller hands a single-use reply
slot to the worker and waits for it:

    slot, err := w.Layout(ctx, id, space)
    ...
    changes, err := w.Await(ctx, slot)

Besides the engine, the worker holds one LayoutRecord per node: the engine
key and the absolute box of the node at its last measurement. After each
layout run the worker walks the measured subtree, accumulates absolute
positions and reports only the nodes whose box changed.

If the worker has been stopped, every enqueue and every wait fails with
ErrChannelClosed.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package worker

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'laytree.worker'.
func tracer() tracing.Trace {
	return tracing.Select("laytree.worker")
}

// ErrInvalidNodeID is returned if a node id does not resolve to a live
// layout record, i.e. the node has never been inserted or has been removed.
var ErrInvalidNodeID = errors.New("invalid node id")

// ErrChannelClosed is returned if the worker has terminated. It is fatal
// for the layout tree served by the worker.
var ErrChannelClosed = errors.New("layout worker channel closed")

// ErrQueueFull is returned by a bounded mailbox in Reject mode.
var ErrQueueFull = errors.New("layout worker queue is full")

// ErrEnginePanic is returned to a layout request if the engine panicked
// while serving it.
var ErrEnginePanic = errors.New("layout engine panicked")
