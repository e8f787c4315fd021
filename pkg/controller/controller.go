package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/errors"
	"github.com/matzehuels/forkview/pkg/observability"
)

// MainChainName is the display name of the root branch.
const MainChainName = "Main Chain"

// Action names reported to logs and mutation hooks.
const (
	ActionAppend = "append"
	ActionFork   = "fork"
	ActionReset  = "reset"
)

// Selection is the currently selected block and the branch it was clicked on.
// BranchIndex may be stale after a mutation; actions locate the block by hash.
type Selection struct {
	Block       chain.Block
	BranchIndex int
}

// State is a consistent view of the controller at one instant.
type State struct {
	Set       chain.BranchSet
	Selection *Selection
}

// Handlers receives events after each committed action.
type Handlers interface {
	OnSelect(sel *Selection)
	OnAppend(branch int, blk chain.Block)
	OnFork(branch int, blk chain.Block)
}

// ResetHandler is implemented by handlers that also want reset events.
type ResetHandler interface {
	OnReset(set chain.BranchSet)
}

// Controller applies select, append, fork and reset actions to a branch set.
// It is safe for concurrent use; actions are serialized.
type Controller struct {
	mu  sync.Mutex
	set chain.BranchSet
	sel *Selection

	factory   *chain.Factory
	mainRules chain.ProtocolRules
	forkRules chain.ProtocolRules
	handlers  Handlers
	logger    *log.Logger
	initial   *chain.BranchSet
}

// Option configures a Controller.
type Option func(*Controller)

// WithFactory sets the block factory (default: [chain.NewFactory]).
func WithFactory(f *chain.Factory) Option { return func(c *Controller) { c.factory = f } }

// WithRules sets the rules for the main chain and for new forks.
func WithRules(main, fork chain.ProtocolRules) Option {
	return func(c *Controller) {
		c.mainRules = main
		c.forkRules = fork
	}
}

// WithHandlers registers event handlers. Nil is allowed.
func WithHandlers(h Handlers) Option { return func(c *Controller) { c.handlers = h } }

// WithLogger sets the logger (default: [log.Default]).
func WithLogger(l *log.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithBranchSet starts the controller from an existing set instead of a
// fresh main chain.
func WithBranchSet(set chain.BranchSet) Option {
	return func(c *Controller) { c.initial = &set }
}

// New returns a controller holding a fresh main chain with one genesis
// block, or the set passed through [WithBranchSet].
func New(ctx context.Context, opts ...Option) (*Controller, error) {
	c := &Controller{
		mainRules: chain.StandardRules,
		forkRules: chain.AlternateRules,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.factory == nil {
		c.factory = chain.NewFactory()
	}
	if c.logger == nil {
		c.logger = log.Default()
	}

	if c.initial != nil {
		c.set = *c.initial
		c.initial = nil
		return c, nil
	}
	set, err := c.freshSet(ctx)
	if err != nil {
		return nil, err
	}
	c.set = set
	return c, nil
}

// =============================================================================
// Read access
// =============================================================================

// Snapshot returns the current branch set. The value is immutable.
func (c *Controller) Snapshot() chain.BranchSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}

// Selection returns the current selection.
func (c *Controller) Selection() (Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sel == nil {
		return Selection{}, false
	}
	return *c.sel, true
}

// State returns the set and selection read under one lock.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{Set: c.set}
	if c.sel != nil {
		sel := *c.sel
		st.Selection = &sel
	}
	return st
}

// =============================================================================
// Selection
// =============================================================================

// Select toggles the selection. Selecting the block that is already selected
// clears the selection; any other block replaces it. The returned pointer is
// the new selection, nil when cleared.
func (c *Controller) Select(ctx context.Context, blk chain.Block, branchIndex int) *Selection {
	c.mu.Lock()
	if c.sel != nil && c.sel.Block.Hash == blk.Hash {
		c.sel = nil
	} else {
		c.sel = &Selection{Block: blk, BranchIndex: branchIndex}
	}
	sel := c.copySelection()
	c.mu.Unlock()

	if sel != nil {
		c.logger.Debug("selected block", "hash", sel.Block.ShortHash(12), "branch", sel.BranchIndex)
		observability.Mutations().OnSelect(ctx, sel.Block.Hash, sel.BranchIndex)
	} else {
		c.logger.Debug("cleared selection")
		observability.Mutations().OnSelect(ctx, "", -1)
	}
	if c.handlers != nil {
		c.handlers.OnSelect(sel)
	}
	return sel
}

// SelectHash selects the block with the given hash, clicked on branch.
// It fails with BLOCK_NOT_FOUND when no branch stores the hash.
func (c *Controller) SelectHash(ctx context.Context, hash string, branch int) (*Selection, error) {
	blk, ok := c.Snapshot().Block(hash)
	if !ok {
		return nil, errors.New(errors.ErrCodeBlockNotFound, "no block with hash %q", hash)
	}
	return c.Select(ctx, blk, branch), nil
}

// SelectAt selects the block at ordinal within branch. It reports false,
// leaving the selection unchanged, when either coordinate is out of range.
func (c *Controller) SelectAt(ctx context.Context, branch, ordinal int) (*Selection, bool) {
	br, ok := c.Snapshot().Branch(branch)
	if !ok || ordinal < 0 || ordinal >= br.Len() {
		return nil, false
	}
	return c.Select(ctx, br.Blocks[ordinal], branch), true
}

// Deselect clears the selection without toggling.
func (c *Controller) Deselect(ctx context.Context) {
	c.mu.Lock()
	had := c.sel != nil
	c.sel = nil
	c.mu.Unlock()

	if !had {
		return
	}
	observability.Mutations().OnSelect(ctx, "", -1)
	if c.handlers != nil {
		c.handlers.OnSelect(nil)
	}
}

func (c *Controller) copySelection() *Selection {
	if c.sel == nil {
		return nil
	}
	sel := *c.sel
	return &sel
}

// =============================================================================
// Mutations
// =============================================================================

// AddBlock appends a new block after the selected block. Blocks that
// followed the selection on its branch are discarded. Without a selection
// it does nothing and returns a nil block.
//
// On a digest failure the error is returned and neither the set nor the
// selection changes. On success the selection is cleared.
func (c *Controller) AddBlock(ctx context.Context) (*chain.Block, error) {
	start := time.Now()
	c.mu.Lock()

	if c.sel == nil {
		c.mu.Unlock()
		c.logger.Debug("append ignored, nothing selected")
		return nil, nil
	}

	bi, ordinal, ok := c.set.FindBlock(c.sel.Block.Hash)
	if !ok {
		hash := c.sel.Block.ShortHash(12)
		c.mu.Unlock()
		c.logger.Debug("append ignored, selected block no longer stored", "hash", hash)
		return nil, nil
	}
	br, _ := c.set.Branch(bi)
	prev := br.Blocks[ordinal]

	payload := blockPayload(br.Name, ordinal+1)
	blk, err := c.factory.NewBlock(ctx, &prev, payload, br.Rules, br.ID)
	if err != nil {
		c.mu.Unlock()
		c.report(ctx, ActionAppend, bi, start, err)
		return nil, err
	}

	dropped := br.Len() - ordinal - 1
	c.set = c.set.WithBranch(bi, br.Truncate(ordinal).Extend(blk))
	c.sel = nil
	c.mu.Unlock()

	c.logger.Info("appended block",
		"branch", br.Name,
		"hash", blk.ShortHash(12),
		"ordinal", ordinal+1,
		"discarded", dropped)
	c.report(ctx, ActionAppend, bi, start, nil)
	if c.handlers != nil {
		c.handlers.OnAppend(bi, blk)
	}
	return &blk, nil
}

// Fork starts a new branch at the selected block and creates its first
// block. The branch is named "Fork N" where N is its index in the set.
// Without a selection, or when the selected block is no longer stored, it
// does nothing and returns a nil block.
func (c *Controller) Fork(ctx context.Context) (*chain.Block, error) {
	start := time.Now()
	c.mu.Lock()

	if c.sel == nil {
		c.mu.Unlock()
		c.logger.Debug("fork ignored, nothing selected")
		return nil, nil
	}

	bi, ordinal, ok := c.set.FindBlock(c.sel.Block.Hash)
	if !ok {
		hash := c.sel.Block.ShortHash(12)
		c.mu.Unlock()
		c.logger.Debug("fork ignored, selected block no longer stored", "hash", hash)
		return nil, nil
	}
	src, _ := c.set.Branch(bi)
	point := src.Blocks[ordinal]

	idx := c.set.Len()
	br := c.factory.NewBranch(fmt.Sprintf("Fork %d", idx), c.forkRules, &point)

	blk, err := c.factory.NewBlock(ctx, &point, blockPayload(br.Name, 1), br.Rules, br.ID)
	if err != nil {
		c.mu.Unlock()
		c.report(ctx, ActionFork, idx, start, err)
		return nil, err
	}

	c.set = c.set.Append(br.Extend(blk))
	c.sel = nil
	c.mu.Unlock()

	c.logger.Info("created fork",
		"branch", br.Name,
		"from", point.ShortHash(12),
		"hash", blk.ShortHash(12))
	c.report(ctx, ActionFork, idx, start, nil)
	if c.handlers != nil {
		c.handlers.OnFork(idx, blk)
	}
	return &blk, nil
}

// Reset replaces the set with a fresh main chain holding one genesis block
// and clears the selection.
func (c *Controller) Reset(ctx context.Context) error {
	start := time.Now()
	c.mu.Lock()

	set, err := c.freshSet(ctx)
	if err != nil {
		c.mu.Unlock()
		c.report(ctx, ActionReset, 0, start, err)
		return err
	}
	c.set = set
	c.sel = nil
	c.mu.Unlock()

	c.logger.Info("reset chain")
	c.report(ctx, ActionReset, 0, start, nil)
	if rh, ok := c.handlers.(ResetHandler); ok {
		rh.OnReset(set)
	}
	return nil
}

func (c *Controller) freshSet(ctx context.Context) (chain.BranchSet, error) {
	main := c.factory.NewBranch(MainChainName, c.mainRules, nil)
	g, err := c.factory.NewGenesisBlock(ctx, main.Rules, main.ID)
	if err != nil {
		return chain.BranchSet{}, err
	}
	return chain.NewBranchSet(main.Extend(g)), nil
}

func (c *Controller) report(ctx context.Context, action string, branch int, start time.Time, err error) {
	d := time.Since(start)
	if err != nil {
		c.logger.Error("mutation failed", "action", action, "branch", branch, "error", err)
	}
	observability.Mutations().OnMutation(ctx, action, branch, d, err)
}

func blockPayload(branchName string, ordinal int) string {
	return fmt.Sprintf("%s block %d", branchName, ordinal)
}
