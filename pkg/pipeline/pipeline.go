// Package pipeline turns branch-set snapshots into layouts and rendered
// artifacts, with caching.
//
// The CLI, the HTTP server and the terminal explorer all go through a
// [Runner] so output is identical regardless of entry point.
//
// # Stages
//
//  1. Layout: compute block positions with [layout.Build]
//  2. Render: produce artifacts (SVG, JSON, DOT, Graphviz SVG)
//
// Both stages are cached under the snapshot fingerprint
// ([chain.Fingerprint]) so an unchanged chain is never laid out twice.
// Cache failures are logged and never fail a run.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, set, pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG, pipeline.FormatJSON},
//	})
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkview/pkg/cache"
	"github.com/matzehuels/forkview/pkg/errors"
	"github.com/matzehuels/forkview/pkg/layout"
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"      // native diagram
	FormatJSON     = "json"     // layout document
	FormatDOT      = "dot"      // Graphviz source
	FormatGraphviz = "graphviz" // Graphviz-rendered SVG
)

// StyleSimple is the only built-in visual style.
const StyleSimple = "simple"

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatJSON:     true,
	FormatDOT:      true,
	FormatGraphviz: true,
}

// ValidStyles is the set of supported visual styles.
var ValidStyles = map[string]bool{
	StyleSimple: true,
}

// FileExtension returns the file extension used when writing format.
func FileExtension(format string) string {
	switch format {
	case FormatGraphviz:
		return "gv.svg"
	default:
		return format
	}
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Layout options
	Layout layout.Options `json:"layout"`

	// Render options
	Formats        []string `json:"formats,omitempty"`
	Style          string   `json:"style,omitempty"`
	Title          string   `json:"title,omitempty"`
	Selected       string   `json:"selected,omitempty"`        // hash of the selected block
	SelectedBranch int      `json:"selected_branch,omitempty"` // branch the selection was made on
	Detailed       bool     `json:"detailed,omitempty"`        // verbose DOT labels
	Interactive    bool     `json:"interactive,omitempty"`     // embed click handlers in SVG
	APIBase        string   `json:"api_base,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Fingerprint identifies the snapshot the run was computed from.
	Fingerprint string

	// Layout is the computed layout.
	Layout layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	BranchCount int
	BlockCount  int
	Skipped     int
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, json, dot, graphviz)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if !ValidStyles[style] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid style: %q (must be: simple)", style)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	o.Layout = o.Layout.Normalized()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = StyleSimple
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks every field.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if err := o.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		BlockSpacing:   o.Layout.BlockSpacing,
		BranchSpacing:  o.Layout.BranchSpacing,
		BlockWidth:     o.Layout.BlockWidth,
		BlockHeight:    o.Layout.BlockHeight,
		CollisionRatio: o.Layout.CollisionRatio,
		ForkThreshold:  o.Layout.ForkThreshold,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	title := o.Title
	if o.Interactive {
		title += "\x00interactive:" + o.APIBase
	}
	if o.Detailed {
		title += "\x00detailed"
	}
	return cache.ArtifactKeyOpts{
		Format:   format,
		Style:    o.Style,
		Title:    title,
		Selected: o.Selected,
		Layout:   o.LayoutKeyOpts(),
	}
}
