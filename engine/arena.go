package engine

import (
	"errors"
	"fmt"

	"github.com/npillmayer/laytree/style"
	"github.com/npillmayer/tyse/core/dimen"
)

// ErrInvalidKey is returned for keys which do not address a live node.
var ErrInvalidKey = errors.New("invalid engine key")

// ErrHasParent is returned if a node to be added as a child is already
// attached to a parent.
var ErrHasParent = errors.New("node already has a parent")

// ErrNotAChild is returned if a node to be removed from a parent is not
// one of its children.
var ErrNotAChild = errors.New("node is not a child of parent")

// ErrCycle is returned if an operation would make a node its own ancestor.
var ErrCycle = errors.New("operation would create a cycle")

// Key addresses a node of an engine. The zero Key is never valid.
type Key struct {
	index uint32
	gen   uint32
}

// IsZero is true for the zero Key.
func (k Key) IsZero() bool {
	return k.gen == 0
}

func (k Key) String() string {
	return fmt.Sprintf("k%dv%d", k.index, k.gen)
}

type node struct {
	gen      uint32 // generation of the current occupant; odd while occupied
	style    style.Style
	parent   Key // zero for roots
	children []Key
	box      Box // relative to parent's border box
	dirty    bool
	lastW    dimen.DU // size offered at last layout
	lastH    dimen.DU
}

func (n *node) live() bool {
	return n.gen&1 == 1
}

// Flex is a flexbox layout engine.
//
// Flex is not safe for concurrent use.
type Flex struct {
	slots []node
	free  []uint32
	count int
}

// NewFlex creates an empty engine.
func NewFlex() *Flex {
	return &Flex{}
}

// Len returns the number of live nodes.
func (f *Flex) Len() int {
	return f.count
}

func (f *Flex) get(k Key) (*node, error) {
	if k.IsZero() || int(k.index) >= len(f.slots) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, k)
	}
	n := &f.slots[k.index]
	if n.gen != k.gen || !n.live() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, k)
	}
	return n, nil
}

// NewLeaf creates a node without children.
func (f *Flex) NewLeaf(s style.Style) (Key, error) {
	var index uint32
	if l := len(f.free); l > 0 {
		index = f.free[l-1]
		f.free = f.free[:l-1]
	} else {
		f.slots = append(f.slots, node{})
		index = uint32(len(f.slots) - 1)
	}
	n := &f.slots[index]
	n.gen++ // even → odd: occupied
	n.style = s
	n.parent = Key{}
	n.children = nil
	n.box = Box{}
	n.dirty = true
	f.count++
	k := Key{index: index, gen: n.gen}
	tracer().Debugf("engine: new leaf %s", k)
	return k, nil
}

// AddChild appends child to the children of parent.
func (f *Flex) AddChild(parent, child Key) error {
	p, err := f.get(parent)
	if err != nil {
		return err
	}
	c, err := f.get(child)
	if err != nil {
		return err
	}
	if !c.parent.IsZero() {
		return fmt.Errorf("%w: %s", ErrHasParent, child)
	}
	for k := parent; !k.IsZero(); k = f.slots[k.index].parent {
		if k == child {
			return fmt.Errorf("%w: %s below %s", ErrCycle, child, parent)
		}
	}
	p.children = append(p.children, child)
	c.parent = parent
	f.markDirty(parent)
	return nil
}

// RemoveChild detaches child from parent. The child stays alive as a root.
func (f *Flex) RemoveChild(parent, child Key) error {
	p, err := f.get(parent)
	if err != nil {
		return err
	}
	c, err := f.get(child)
	if err != nil {
		return err
	}
	for i, ch := range p.children {
		if ch == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			c.parent = Key{}
			c.dirty = true
			f.markDirty(parent)
			return nil
		}
	}
	return fmt.Errorf("%w: %s of %s", ErrNotAChild, child, parent)
}

// Remove deletes a node. It is detached from its parent and its children
// become roots.
func (f *Flex) Remove(k Key) error {
	n, err := f.get(k)
	if err != nil {
		return err
	}
	if !n.parent.IsZero() {
		if err := f.RemoveChild(n.parent, k); err != nil {
			return err
		}
	}
	for _, ch := range n.children {
		c := &f.slots[ch.index]
		c.parent = Key{}
		c.dirty = true
	}
	n.children = nil
	n.style = style.Style{}
	n.gen++ // odd → even: vacant
	f.free = append(f.free, k.index)
	f.count--
	tracer().Debugf("engine: removed %s", k)
	return nil
}

// SetStyle replaces the style of a node.
func (f *Flex) SetStyle(k Key, s style.Style) error {
	n, err := f.get(k)
	if err != nil {
		return err
	}
	n.style = s
	f.markDirty(k)
	return nil
}

// Style returns the style of a node.
func (f *Flex) Style(k Key) (style.Style, error) {
	n, err := f.get(k)
	if err != nil {
		return style.Style{}, err
	}
	return n.style, nil
}

// Layout returns the box computed for a node by the last call to
// ComputeLayout, relative to its parent.
func (f *Flex) Layout(k Key) (Box, error) {
	n, err := f.get(k)
	if err != nil {
		return Box{}, err
	}
	return n.box, nil
}

// Children returns the children of a node in order.
func (f *Flex) Children(k Key) ([]Key, error) {
	n, err := f.get(k)
	if err != nil {
		return nil, err
	}
	children := make([]Key, len(n.children))
	copy(children, n.children)
	return children, nil
}

// Parent returns the parent of a node, if any.
func (f *Flex) Parent(k Key) (Key, bool, error) {
	n, err := f.get(k)
	if err != nil {
		return Key{}, false, err
	}
	return n.parent, !n.parent.IsZero(), nil
}

// IsDirty is true if a node needs re-layout.
func (f *Flex) IsDirty(k Key) (bool, error) {
	n, err := f.get(k)
	if err != nil {
		return false, err
	}
	return n.dirty, nil
}

// markDirty marks a node and all its ancestors as needing re-layout.
func (f *Flex) markDirty(k Key) {
	for !k.IsZero() {
		n := &f.slots[k.index]
		n.dirty = true
		k = n.parent
	}
}
