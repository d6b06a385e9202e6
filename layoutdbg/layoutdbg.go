/*
Package layoutdbg implements helpers to debug a layout tree.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>


*/
package layoutdbg

import (
	"fmt"
	"io"
	"text/template"

	"github.com/npillmayer/laytree/tree"
	"github.com/npillmayer/schuko/tracing"
	tp "github.com/xlab/treeprint"
)

// tracer traces with key 'laytree.layoutdbg'.
func tracer() tracing.Trace {
	return tracing.Select("laytree.layoutdbg")
}

// Print renders the subtree under root as indented text, one line per node
// with its id and cached box.
func Print(root *tree.Node) string {
	if root == nil {
		return "<empty>\n"
	}
	p := tp.New()
	p.SetValue(label(root))
	printChildren(p, root)
	return p.String()
}

func printChildren(p tp.Tree, n *tree.Node) {
	for _, ch := range n.Children() {
		if ch.ChildCount() == 0 {
			p.AddNode(label(ch))
			continue
		}
		printChildren(p.AddBranch(label(ch)), ch)
	}
}

func label(n *tree.Node) string {
	return fmt.Sprintf("#%d %s", n.ID(), n.Layout())
}

// --- GraphViz --------------------------------------------------------------

// Parameters for GraphViz drawing.
type graphParamsType struct {
	Fontname string
	NodeTmpl *template.Template
	EdgeTmpl *template.Template
}

type dotNode struct {
	Name string
	ID   tree.NodeID
	Box  tree.Box
}

type dotEdge struct {
	N1, N2 dotNode
}

// ToGraphViz outputs a diagram for the subtree under root. The diagram is
// in GraphViz (DOT) format. Each node shows its id and its cached box.
func ToGraphViz(root *tree.Node, w io.Writer) error {
	head, err := template.New("layout").Parse(graphHeadTmpl)
	if err != nil {
		return err
	}
	gparams := graphParamsType{Fontname: "Helvetica"}
	gparams.NodeTmpl = template.Must(template.New("layoutnode").Parse(layoutNodeTmpl))
	gparams.EdgeTmpl = template.Must(template.New("layoutedge").Parse(layoutEdgeTmpl))
	if err = head.Execute(w, gparams); err != nil {
		return err
	}
	if root != nil {
		serial := 0
		if _, err = nodes(root, w, &serial, &gparams); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "}\n")
	tracer().Debugf("layout digraph written")
	return err
}

// nodes writes n and its subtree, numbering nodes in pre-order. It returns
// the DOT node for n.
func nodes(n *tree.Node, w io.Writer, serial *int, gparams *graphParamsType) (dotNode, error) {
	*serial++
	dn := dotNode{Name: fmt.Sprintf("node%05d", *serial), ID: n.ID(), Box: n.Layout()}
	if err := gparams.NodeTmpl.Execute(w, dn); err != nil {
		return dn, err
	}
	for _, ch := range n.Children() {
		dch, err := nodes(ch, w, serial, gparams)
		if err != nil {
			return dn, err
		}
		if err := gparams.EdgeTmpl.Execute(w, dotEdge{dn, dch}); err != nil {
			return dn, err
		}
	}
	return dn, nil
}

// --- Templates --------------------------------------------------------

const graphHeadTmpl = `digraph g {
  graph [labelloc="t" label="" splines=true overlap=false rankdir = "TB"];
  graph [fontname = "{{ .Fontname }}" fontsize=14] ;
   node [fontname = "{{ .Fontname }}" fontsize=14] ;
   edge [fontname = "{{ .Fontname }}" fontsize=14] ;
`

const layoutNodeTmpl = `{{ .Name }}	[ label="#{{ .ID }}\n{{ .Box }}" shape=box style=filled fillcolor=lightblue3 ] ;
`

const layoutEdgeTmpl = `{{ .N1.Name }} -> {{ .N2.Name }} [weight=1] ;
`
