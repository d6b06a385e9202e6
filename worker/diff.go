package worker

import (
	"github.com/npillmayer/laytree/engine"
	"github.com/npillmayer/laytree/style"
	"github.com/npillmayer/tyse/core/dimen"
)

// pending is an entry of the traversal stack: an engine node together with
// the absolute position of its parent.
type pending struct {
	key    engine.Key
	px, py dimen.DU
}

// layout computes the layout of the subtree rooted at id and diffs it
// against the stored records.
//
// The subtree is walked in pre-order with an explicit stack. A node's
// absolute box is its engine-local box shifted by the accumulated absolute
// position of its parent. Boxes differing from the record in position,
// size or order are reported. The measured root is treated like any other
// node. Records are updated only once the whole subtree has been walked,
// so a failed layout leaves them untouched.
func (w *Worker) layout(id NodeID, space style.AvailableSpace) (ChangeSet, error) {
	root, err := w.record(id)
	if err != nil {
		return nil, err
	}
	if err := w.engine.ComputeLayout(root.key, space); err != nil {
		return nil, engineError(id, err)
	}
	var changes ChangeSet
	var dirty []*record // parallel to changes
	stack := []pending{{key: root.key}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodeID, ok := w.owners[top.key]
		if !ok {
			return nil, engineError(id, engine.ErrInvalidKey)
		}
		local, err := w.engine.Layout(top.key)
		if err != nil {
			return nil, engineError(nodeID, err)
		}
		abs := local.Translate(top.px, top.py)
		if rec := w.records[nodeID]; abs != rec.box {
			dirty = append(dirty, rec)
			changes = append(changes, Change{ID: nodeID, Box: abs})
		}
		children, err := w.engine.Children(top.key)
		if err != nil {
			return nil, engineError(nodeID, err)
		}
		for i := len(children) - 1; i >= 0; i-- { // leftmost child on top
			stack = append(stack, pending{key: children[i], px: abs.X, py: abs.Y})
		}
	}
	for i, rec := range dirty {
		rec.box = changes[i].Box
	}
	tracer().Debugf("worker: layout of %d changed %d boxes", id, len(changes))
	return changes, nil
}
