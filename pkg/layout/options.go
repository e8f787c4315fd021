package layout

import (
	"math"

	"github.com/matzehuels/forkview/pkg/errors"
)

// Default geometry.
const (
	DefaultBlockSpacing   = 200.0
	DefaultBranchSpacing  = 150.0
	DefaultBlockWidth     = 120.0
	DefaultBlockHeight    = 60.0
	DefaultCollisionRatio = 0.8
	DefaultForkThreshold  = 1.0
)

// Options holds the geometry used by [Build].
type Options struct {
	BlockSpacing   float64 `json:"block_spacing" toml:"block_spacing"`
	BranchSpacing  float64 `json:"branch_spacing" toml:"branch_spacing"`
	BlockWidth     float64 `json:"block_width" toml:"block_width"`
	BlockHeight    float64 `json:"block_height" toml:"block_height"`
	CollisionRatio float64 `json:"collision_ratio" toml:"collision_ratio"`
	ForkThreshold  float64 `json:"fork_threshold" toml:"fork_threshold"`
}

// DefaultOptions returns the default geometry.
func DefaultOptions() Options {
	return Options{
		BlockSpacing:   DefaultBlockSpacing,
		BranchSpacing:  DefaultBranchSpacing,
		BlockWidth:     DefaultBlockWidth,
		BlockHeight:    DefaultBlockHeight,
		CollisionRatio: DefaultCollisionRatio,
		ForkThreshold:  DefaultForkThreshold,
	}
}

// Normalized returns o with zero or negative fields taken from DefaultOptions.
func (o Options) Normalized() Options {
	d := DefaultOptions()
	if o.BlockSpacing <= 0 {
		o.BlockSpacing = d.BlockSpacing
	}
	if o.BranchSpacing <= 0 {
		o.BranchSpacing = d.BranchSpacing
	}
	if o.BlockWidth <= 0 {
		o.BlockWidth = d.BlockWidth
	}
	if o.BlockHeight <= 0 {
		o.BlockHeight = d.BlockHeight
	}
	if o.CollisionRatio <= 0 {
		o.CollisionRatio = d.CollisionRatio
	}
	if o.ForkThreshold <= 0 {
		o.ForkThreshold = d.ForkThreshold
	}
	return o
}

// Validate reports geometry that would draw overlapping blocks. Zero fields
// are valid and mean the default.
func (o Options) Validate() error {
	for name, v := range map[string]float64{
		"block_spacing":   o.BlockSpacing,
		"branch_spacing":  o.BranchSpacing,
		"block_width":     o.BlockWidth,
		"block_height":    o.BlockHeight,
		"collision_ratio": o.CollisionRatio,
		"fork_threshold":  o.ForkThreshold,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be a finite non-negative number", name)
		}
	}
	n := o.Normalized()
	if n.BlockWidth >= n.BlockSpacing {
		return errors.New(errors.ErrCodeInvalidConfig,
			"block_width %.0f must be smaller than block_spacing %.0f", n.BlockWidth, n.BlockSpacing)
	}
	if n.BlockHeight >= n.CollisionRatio*n.BranchSpacing {
		return errors.New(errors.ErrCodeInvalidConfig,
			"block_height %.0f must be smaller than collision_ratio*branch_spacing %.0f",
			n.BlockHeight, n.CollisionRatio*n.BranchSpacing)
	}
	return nil
}

// Option configures a layout pass.
type Option func(*Options)

// WithOptions replaces the whole geometry.
func WithOptions(o Options) Option { return func(opts *Options) { *opts = o } }

// WithBlockSpacing sets the horizontal distance between block centers.
func WithBlockSpacing(v float64) Option { return func(o *Options) { o.BlockSpacing = v } }

// WithBranchSpacing sets the base vertical distance between lanes.
func WithBranchSpacing(v float64) Option { return func(o *Options) { o.BranchSpacing = v } }

// WithBlockSize sets the drawn block size.
func WithBlockSize(w, h float64) Option {
	return func(o *Options) { o.BlockWidth, o.BlockHeight = w, h }
}

// WithCollisionRatio sets the minimum lane distance as a fraction of BranchSpacing.
func WithCollisionRatio(v float64) Option { return func(o *Options) { o.CollisionRatio = v } }

// WithForkThreshold sets the vertical delta above which a connector is a fork.
func WithForkThreshold(v float64) Option { return func(o *Options) { o.ForkThreshold = v } }
