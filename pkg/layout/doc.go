// Package layout computes 2D positions and connectors for a branch set.
//
// # Overview
//
// [Build] maps a [chain.BranchSet] to a [Layout]: one [Position] per block
// (keyed by hash), the [Connector] list between blocks, and a [Label] per
// branch. The computation is a pure function of the set; running it twice
// on the same snapshot yields identical output.
//
// # Lanes
//
// The root branch occupies lane y = 0, with the block at ordinal i placed at
// x = i * BlockSpacing. Every other branch is processed in list order. Its
// fork point (its own first block) must already be positioned; the branch
// continues to the right of the fork point on a new lane.
//
// # Collision Avoidance
//
// Candidate lanes are tried at forkY + k*BranchSpacing for k = 0, 1, 2, ...
// A candidate is accepted once no already-placed block at or to the right
// of the fork point's x lies closer than CollisionRatio*BranchSpacing (0.8
// by default) to it. Branches therefore stack densely without two lanes
// ever sharing the same horizontal extent.
//
// # Connectors
//
// Each block links back to its predecessor; the first block of a fork links
// back to the fork point. A connector whose endpoints differ in y by more
// than ForkThreshold is a [KindFork] connector (drawn curved), otherwise a
// [KindStraight] one.
//
// # Soft Skips
//
// Inconsistent input never aborts a pass. A branch whose fork point has no
// position is left out and its index recorded in [Layout.Skipped]; a
// connector with an unknown endpoint is omitted.
//
// # Options
//
//   - [WithBlockSpacing]: horizontal distance between block centers (default 200)
//   - [WithBranchSpacing]: base vertical lane distance (default 150)
//   - [WithBlockSize]: block width and height used for bounds and controls (default 120x60)
//   - [WithCollisionRatio]: minimum lane distance as a fraction of BranchSpacing (default 0.8)
//   - [WithForkThreshold]: vertical delta above which a connector is a fork (default 1)
//
// [chain.BranchSet]: github.com/matzehuels/forkview/pkg/chain.BranchSet
package layout
