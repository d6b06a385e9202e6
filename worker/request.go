package worker

import (
	"fmt"

	"github.com/npillmayer/laytree/engine"
	"github.com/npillmayer/laytree/style"
)

// NodeID identifies a node of a layout tree. Ids are allocated by the tree
// and stay stable for the lifetime of a node.
type NodeID uint64

// Change is an entry of a change set: a node and its new absolute box.
type Change struct {
	ID  NodeID
	Box engine.Box
}

// ChangeSet lists the nodes whose box changed during a measurement, in
// pre-order of the measured subtree.
type ChangeSet []Change

// Reply is what a layout request answers on its reply slot.
type Reply struct {
	Changes ChangeSet
	Err     error
}

// Slot is the receiving end of a single-use reply slot. The worker sends at
// most one Reply and then closes it. A slot closed without a Reply means
// the measurement changed nothing.
type Slot <-chan Reply

// request is a message to the worker. Requests are applied in the worker
// goroutine, one at a time, in mailbox order.
//
// fail is called if apply returned an error or panicked. It answers the
// caller, if the request has one.
type request interface {
	apply(w *Worker) error
	fail(err error)
	fmt.Stringer
}

// --- Topology --------------------------------------------------------------

type insertRequest struct {
	id    NodeID
	style style.Style
}

func (r insertRequest) apply(w *Worker) error {
	if _, exists := w.records[r.id]; exists {
		return fmt.Errorf("node %d inserted twice", r.id)
	}
	key, err := w.engine.NewLeaf(r.style)
	if err != nil {
		return engineError(r.id, err)
	}
	w.records[r.id] = &record{key: key}
	w.owners[key] = r.id
	return nil
}

func (r insertRequest) fail(error) {}

func (r insertRequest) String() string {
	return fmt.Sprintf("Insert{%d}", r.id)
}

type addChildRequest struct {
	parent, child NodeID
}

func (r addChildRequest) apply(w *Worker) error {
	p, c, err := w.recordPair(r.parent, r.child)
	if err != nil {
		return err
	}
	if err := w.engine.AddChild(p.key, c.key); err != nil {
		return engineError(r.child, err)
	}
	return nil
}

func (r addChildRequest) fail(error) {}

func (r addChildRequest) String() string {
	return fmt.Sprintf("AddChild{%d ← %d}", r.parent, r.child)
}

type removeChildRequest struct {
	parent, child NodeID
}

func (r removeChildRequest) apply(w *Worker) error {
	p, c, err := w.recordPair(r.parent, r.child)
	if err != nil {
		return err
	}
	if err := w.engine.RemoveChild(p.key, c.key); err != nil {
		return engineError(r.child, err)
	}
	return nil
}

func (r removeChildRequest) fail(error) {}

func (r removeChildRequest) String() string {
	return fmt.Sprintf("RemoveChild{%d → %d}", r.parent, r.child)
}

type removeRequest struct {
	id NodeID
}

func (r removeRequest) apply(w *Worker) error {
	rec, err := w.record(r.id)
	if err != nil {
		return err
	}
	delete(w.records, r.id)
	delete(w.owners, rec.key)
	if err := w.engine.Remove(rec.key); err != nil {
		return engineError(r.id, err)
	}
	return nil
}

func (r removeRequest) fail(error) {}

func (r removeRequest) String() string {
	return fmt.Sprintf("Remove{%d}", r.id)
}

type setStyleRequest struct {
	id    NodeID
	style style.Style
}

func (r setStyleRequest) apply(w *Worker) error {
	rec, err := w.record(r.id)
	if err != nil {
		return err
	}
	if err := w.engine.SetStyle(rec.key, r.style); err != nil {
		return engineError(r.id, err)
	}
	return nil
}

func (r setStyleRequest) fail(error) {}

func (r setStyleRequest) String() string {
	return fmt.Sprintf("SetStyle{%d}", r.id)
}

// --- Layout ----------------------------------------------------------------

type layoutRequest struct {
	id       NodeID
	space    style.AvailableSpace
	reply    chan Reply // capacity 1, never blocks the worker
	answered bool       // touched by the worker goroutine only
}

func newLayoutRequest(id NodeID, space style.AvailableSpace) *layoutRequest {
	return &layoutRequest{id: id, space: space, reply: make(chan Reply, 1)}
}

func (r *layoutRequest) apply(w *Worker) error {
	changes, err := w.layout(r.id, r.space)
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		r.reply <- Reply{Changes: changes}
	}
	r.answered = true
	close(r.reply)
	return nil
}

// fail answers the caller with err. If the caller has gone away, the reply
// stays in the buffered slot and is collected with it.
func (r *layoutRequest) fail(err error) {
	if r.answered {
		return
	}
	r.answered = true
	r.reply <- Reply{Err: err}
	close(r.reply)
}

func (r *layoutRequest) String() string {
	return fmt.Sprintf("Layout{%d in %s}", r.id, r.space)
}

// --- Inspection ------------------------------------------------------------

// inspectRequest runs a read-only function on the worker goroutine.
type inspectRequest struct {
	fn   func(w *Worker)
	done chan error
}

func (r inspectRequest) apply(w *Worker) error {
	r.fn(w)
	close(r.done)
	return nil
}

func (r inspectRequest) fail(err error) {
	r.done <- err
	close(r.done)
}

func (r inspectRequest) String() string {
	return "Inspect"
}
