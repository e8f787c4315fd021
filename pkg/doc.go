// Package pkg holds the forkview libraries.
//
// # Overview
//
// Forkview models toy hash chains that can be forked at any block and lays
// the resulting branches out for display. The packages are layered:
//
//  1. [hashid], [chain] - digest and ID primitives, immutable blocks, branches and sets
//  2. [controller] - selection and the append, fork and reset mutations
//  3. [layout] - deterministic 2D placement with collision-avoiding fork lanes
//  4. [render], [render/dot] - SVG, JSON and Graphviz output
//  5. [pipeline], [cache] - cached layout and render runs
//  6. [server], [scenario], [config] - HTTP surface, scripted replays, TOML configuration
//
// Cross-cutting packages: [errors] (coded errors), [observability] (hooks,
// with a Prometheus implementation in observability/prom) and [buildinfo].
//
// # Data flow
//
//	controller.Controller  (select / append / fork / reset)
//	         ↓ Snapshot()
//	    chain.BranchSet
//	         ↓
//	    layout.Build  →  layout.Layout
//	         ↓
//	    render.SVG / layout.Export / dot.ToDOT
//
// # Quick Start
//
//	ctrl, err := controller.New(ctx)
//	if err != nil {
//	    return err
//	}
//	root, _ := ctrl.Snapshot().Root()
//	ctrl.Select(ctx, root.Blocks[0], 0)
//	if _, err := ctrl.AddBlock(ctx); err != nil {
//	    return err
//	}
//
//	l := layout.Build(ctrl.Snapshot())
//	svg := render.SVG(l)
package pkg
