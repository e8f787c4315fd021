// Package controller owns the live [chain.BranchSet] and applies user
// actions to it.
//
// A [Controller] holds the current snapshot and an optional [Selection].
// Every action (select, append, fork, reset) runs to completion under a
// mutex before the next one is accepted. Mutations build the new block
// first and commit the new snapshot only after the digest succeeds, so a
// failed action leaves both the set and the selection untouched.
//
// # Actions
//
//   - [Controller.Select] toggles the selection: selecting the selected
//     block clears it, selecting another block replaces it.
//   - [Controller.AddBlock] truncates the branch that stores the selected
//     block right after it and appends one new block. Blocks that followed
//     the selection are discarded.
//   - [Controller.Fork] starts a new branch at the selected block using the
//     alternate protocol rules, with one new block on top.
//   - [Controller.Reset] replaces the set with a fresh main chain.
//
// Without a selection AddBlock and Fork are no-ops.
//
// # Handlers
//
// A [Handlers] value receives select, append and fork events after commit.
// Implement [ResetHandler] as well to be told about resets. Handlers run on
// the caller's goroutine once the controller lock is released, so they may
// call back into the controller.
package controller
