// Package chain defines the multi-branch hash-chain model.
//
// # Entities
//
//   - [ProtocolRules]: descriptive metadata attached to a branch
//   - [Block]: an immutable record chained to its predecessor by hash
//   - [Branch]: an ordered chain of blocks, possibly starting at a fork point
//   - [BranchSet]: the ordered list of branches; index 0 is the root branch
//
// A non-root branch stores its fork point (the parent block it grew from) as
// its own first element. The fork point is a value copy: the relationship
// between a branch and its parent is recovered from hash equality, never
// from a stored pointer.
//
// # Immutability
//
// Blocks are never edited after creation. [Branch] and [BranchSet] methods
// that change content return new values and clone the slices they touch, so
// a snapshot handed to the layout engine or a renderer stays consistent
// while the controller builds the next one.
//
// # Creating Blocks
//
// Block creation goes through a [Factory], which bundles the digest and ID
// primitives from [hashid] with a clock:
//
//	f := chain.NewFactory()
//	main := f.NewBranch("Main Chain", chain.StandardRules, nil)
//	genesis, err := f.NewGenesisBlock(ctx, main.Rules, main.ID)
//	main = main.Extend(genesis)
//	next, err := f.NewBlock(ctx, &genesis, "hello", main.Rules, main.ID)
//
// The hash of a block is digest(timestamp ++ previousHash ++ payload), with
// the timestamp written as decimal Unix nanoseconds.
//
// [hashid]: github.com/matzehuels/forkview/pkg/hashid
package chain
