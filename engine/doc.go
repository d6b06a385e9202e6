/*
Package engine implements a box-layout engine for trees of styled nodes.

The engine is a single-threaded data structure: nodes live in an arena and
are addressed by generational keys. A key of a removed node never resolves
again, even after its slot has been reused. Clients must not share an
engine between goroutines; package worker owns exactly one engine per
layout tree.

Layout follows a single-line flexbox model: row or column direction, flex
grow and shrink, justify and align modes, gaps, padding, margin and min/max
constraints. Computed boxes are relative to the border box of the parent
node, and carry the paint order of a node among its siblings.

Re-layout is incremental: mutations mark a node and its ancestors dirty,
and clean subtrees which are offered the same size as before are skipped.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package engine

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'laytree.engine'.
func tracer() tracing.Trace {
	return tracing.Select("laytree.engine")
}
