// Package dot exports a branch set as a Graphviz graph.
//
// [ToDOT] emits one cluster per branch, left to right, with edges following
// each block's previous hash. A fork point belongs to the cluster of the
// first branch that stores it, so fork edges cross cluster borders.
// [RenderSVG] lays the graph out with Graphviz (go-graphviz, no external
// binary required).
//
//	src := dot.ToDOT(set, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
package dot
