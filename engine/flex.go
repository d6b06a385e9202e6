package engine

import (
	"github.com/npillmayer/laytree/style"
	"github.com/npillmayer/tyse/core/dimen"
)

// ComputeLayout lays out the subtree rooted at root within the available
// space. The root is placed at (0, 0). An auto-sized root fills a definite
// constraint and shrink-wraps its content under a content constraint.
func (f *Flex) ComputeLayout(root Key, space style.AvailableSpace) error {
	n, err := f.get(root)
	if err != nil {
		return err
	}
	tracer().Debugf("engine: compute layout of %s in %s", root, space)
	s := n.style
	w, h := f.intrinsic(n, space.Width, space.Height)
	if s.Width.IsAuto() && space.Width.IsDefinite() {
		w = clampLen(space.Width.Length(), s.MinWidth, s.MaxWidth, space.Width)
	}
	if s.Height.IsAuto() && space.Height.IsDefinite() {
		h = clampLen(space.Height.Length(), s.MinHeight, s.MaxHeight, space.Height)
	}
	n.box = Box{Width: w, Height: h}
	if !n.parent.IsZero() {
		// the box of a subtree root is no longer the one its parent computed
		f.markDirty(n.parent)
	}
	f.layoutNode(root, w, h)
	return nil
}

// layoutNode positions the children of a node which has been given a
// border box of w × h. Clean nodes offered an unchanged size are skipped,
// together with their subtrees.
func (f *Flex) layoutNode(k Key, w, h dimen.DU) {
	n := &f.slots[k.index]
	if !n.dirty && n.lastW == w && n.lastH == h {
		return
	}
	f.layoutChildren(n, w, h)
	n.lastW, n.lastH = w, h
	n.dirty = false
}

// intrinsic computes the border box size of a node from its style and, for
// auto dimensions, from its content. Percentages resolve against definite
// constraints only.
func (f *Flex) intrinsic(n *node, aw, ah style.Space) (w, h dimen.DU) {
	s := n.style
	w, wok := s.Width.ResolveIn(aw)
	h, hok := s.Height.ResolveIn(ah)
	if !wok || !hok {
		padH, padV := s.Padding.Horizontal(), s.Padding.Vertical()
		innerW, innerH := aw.Shrink(padH), ah.Shrink(padV)
		if wok {
			innerW = style.Definite(max(0, w-padH))
		}
		if hok {
			innerH = style.Definite(max(0, h-padV))
		}
		cw, ch := f.contentSize(n, innerW, innerH)
		if !wok {
			w = cw + padH
		}
		if !hok {
			h = ch + padV
		}
	}
	return clampLen(w, s.MinWidth, s.MaxWidth, aw), clampLen(h, s.MinHeight, s.MaxHeight, ah)
}

// contentSize is the size of the children of a node, stacked along the
// main axis, including margins and gaps.
func (f *Flex) contentSize(n *node, innerW, innerH style.Space) (w, h dimen.DU) {
	isRow := n.style.Direction == style.Row
	var main, cross dimen.DU
	for _, ck := range n.children {
		c := &f.slots[ck.index]
		m := c.style.Margin
		cw, ch := f.intrinsic(c, innerW.Shrink(m.Horizontal()), innerH.Shrink(m.Vertical()))
		cw += m.Horizontal()
		ch += m.Vertical()
		if !isRow {
			cw, ch = ch, cw
		}
		main += cw
		cross = max(cross, ch)
	}
	if l := len(n.children); l > 1 {
		main += n.style.Gap * dimen.DU(l-1)
	}
	if isRow {
		return main, cross
	}
	return cross, main
}

// flexItem holds intermediate calculation state for a child.
// Sizes exclude margins.
type flexItem struct {
	key         Key
	main        dimen.DU
	cross       dimen.DU
	mainMargin  dimen.DU
	crossMargin dimen.DU
	mainPos     dimen.DU
	crossPos    dimen.DU
	grow        float64
	shrink      float64
}

// layoutChildren arranges the children of a node with a border box of
// w × h and recurses into them.
func (f *Flex) layoutChildren(n *node, w, h dimen.DU) {
	if len(n.children) == 0 {
		return
	}
	s := n.style
	isRow := s.Direction == style.Row
	contentW := max(0, w-s.Padding.Horizontal())
	contentH := max(0, h-s.Padding.Vertical())
	mainSize, crossSize := contentW, contentH
	if !isRow {
		mainSize, crossSize = crossSize, mainSize
	}

	// Phase 1: base sizes from style or content
	items := make([]flexItem, len(n.children))
	var used dimen.DU
	var totalGrow, totalShrink float64
	for i, ck := range n.children {
		c := &f.slots[ck.index]
		m := c.style.Margin
		cw, ch := f.intrinsic(c,
			style.Definite(max(0, contentW-m.Horizontal())),
			style.Definite(max(0, contentH-m.Vertical())))
		item := &items[i]
		item.key = ck
		if isRow {
			item.main, item.cross = cw, ch
			item.mainMargin, item.crossMargin = m.Horizontal(), m.Vertical()
		} else {
			item.main, item.cross = ch, cw
			item.mainMargin, item.crossMargin = m.Vertical(), m.Horizontal()
		}
		item.grow = c.style.FlexGrow
		item.shrink = c.style.FlexShrink
		used += item.main + item.mainMargin
		totalGrow += item.grow
		totalShrink += item.shrink
	}
	totalGap := s.Gap * dimen.DU(len(items)-1)
	free := mainSize - used - totalGap

	// Phase 2: distribute free space
	if free > 0 && totalGrow > 0 {
		for i := range items {
			if items[i].grow > 0 {
				items[i].main += dimen.DU(float64(free) * items[i].grow / totalGrow)
			}
		}
	} else if free < 0 && totalShrink > 0 {
		deficit := -free
		for i := range items {
			if items[i].shrink > 0 {
				reduction := dimen.DU(float64(deficit) * items[i].shrink / totalShrink)
				items[i].main = max(0, items[i].main-reduction)
			}
		}
	}

	// Phase 3: min/max constraints on the main axis
	mainSpace := style.Definite(mainSize)
	used = 0
	for i, ck := range n.children {
		cs := f.slots[ck.index].style
		if isRow {
			items[i].main = clampLen(items[i].main, cs.MinWidth, cs.MaxWidth, mainSpace)
		} else {
			items[i].main = clampLen(items[i].main, cs.MinHeight, cs.MaxHeight, mainSpace)
		}
		used += items[i].main + items[i].mainMargin
	}
	free = mainSize - used - totalGap

	// Phase 4: justify along the main axis
	offset := justifyOffset(s.JustifyContent, free, len(items))
	spacing := justifySpacing(s.JustifyContent, free, len(items))
	for i := range items {
		items[i].mainPos = offset
		offset += items[i].main + items[i].mainMargin + s.Gap + spacing
	}

	// Phase 5: cross axis sizing and alignment
	crossSpace := style.Definite(crossSize)
	for i, ck := range n.children {
		cs := f.slots[ck.index].style
		align := s.AlignItems
		if cs.AlignSelf != nil {
			align = *cs.AlignSelf
		}
		crossStyle, minCross, maxCross := cs.Height, cs.MinHeight, cs.MaxHeight
		if !isRow {
			crossStyle, minCross, maxCross = cs.Width, cs.MinWidth, cs.MaxWidth
		}
		if align == style.AlignStretch && crossStyle.IsAuto() {
			items[i].cross = clampLen(max(0, crossSize-items[i].crossMargin), minCross, maxCross, crossSpace)
			items[i].crossPos = 0
		} else {
			items[i].crossPos = alignOffset(align, crossSize, items[i].cross+items[i].crossMargin)
		}
	}

	// Phase 6: store boxes and recurse
	pad := s.Padding
	for i, ck := range n.children {
		c := &f.slots[ck.index]
		m := c.style.Margin
		var box Box
		if isRow {
			box = Box{
				X:      pad.Left + items[i].mainPos + m.Left,
				Y:      pad.Top + items[i].crossPos + m.Top,
				Width:  items[i].main,
				Height: items[i].cross,
			}
		} else {
			box = Box{
				X:      pad.Left + items[i].crossPos + m.Left,
				Y:      pad.Top + items[i].mainPos + m.Top,
				Width:  items[i].cross,
				Height: items[i].main,
			}
		}
		box.Order = uint32(i)
		c.box = box
		f.layoutNode(ck, box.Width, box.Height)
	}
}

// justifyOffset returns the position of the first child on the main axis.
func justifyOffset(justify style.Justify, free dimen.DU, count int) dimen.DU {
	if free <= 0 || count == 0 {
		return 0
	}
	switch justify {
	case style.JustifyEnd:
		return free
	case style.JustifyCenter:
		return free / 2
	case style.JustifySpaceAround:
		return free / dimen.DU(count*2)
	case style.JustifySpaceEvenly:
		return free / dimen.DU(count+1)
	}
	return 0
}

// justifySpacing returns the extra space between neighbouring children.
func justifySpacing(justify style.Justify, free dimen.DU, count int) dimen.DU {
	if free <= 0 || count <= 1 {
		return 0
	}
	switch justify {
	case style.JustifySpaceBetween:
		return free / dimen.DU(count-1)
	case style.JustifySpaceAround:
		return free / dimen.DU(count)
	case style.JustifySpaceEvenly:
		return free / dimen.DU(count+1)
	}
	return 0
}

// alignOffset returns the position of a child on the cross axis.
func alignOffset(align style.Align, crossSize, itemSize dimen.DU) dimen.DU {
	switch align {
	case style.AlignEnd:
		return crossSize - itemSize
	case style.AlignCenter:
		return (crossSize - itemSize) / 2
	}
	return 0
}

// clampLen restricts x to the min/max constraints of a style, resolved
// against space, and to non-negative values. If min > max, min wins.
func clampLen(x dimen.DU, minD, maxD style.Dimension, space style.Space) dimen.DU {
	if mx, ok := maxD.ResolveIn(space); ok && x > mx {
		x = mx
	}
	if mn, ok := minD.ResolveIn(space); ok && x < mn {
		x = mn
	}
	return max(0, x)
}
