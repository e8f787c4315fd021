// Package render draws computed chain layouts.
//
// # Overview
//
// [SVG] turns a [layout.Layout] into a self-contained SVG document:
//
//   - Blocks as rounded rectangles with a short hash and their ordinal
//   - Straight connectors as lines, fork connectors as cubic Bézier curves
//   - Branch labels at the anchors computed by the layout engine
//   - The selected block highlighted, with append and fork buttons
//
// The look is controlled by a [Style]; [Simple] is the default.
//
//	l := layout.Build(set)
//	svg := render.SVG(l, render.WithSelection(hash), render.WithTitle("demo"))
//
// # Interaction
//
// [WithInteractive] embeds a small script that posts clicks back to the
// explorer API: a block click selects it, the buttons append or fork.
//
// # Graphviz
//
// The [dot] subpackage emits the branch set as a Graphviz graph with one
// cluster per branch and renders it with go-graphviz.
//
// [dot]: github.com/matzehuels/forkview/pkg/render/dot
package render
