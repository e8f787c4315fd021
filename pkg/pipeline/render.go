package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/layout"
	"github.com/matzehuels/forkview/pkg/render"
	"github.com/matzehuels/forkview/pkg/render/dot"
)

// Render generates output artifacts in the requested formats without
// touching any cache.
func Render(ctx context.Context, set chain.BranchSet, l layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = render.SVG(l, buildSVGOptions(opts)...)
		case FormatJSON:
			data, err = layout.Marshal(l.Export(opts.Selected, opts.SelectedBranch))
		case FormatDOT:
			data = []byte(dot.ToDOT(set, dotOptions(opts)))
		case FormatGraphviz:
			data, err = dot.RenderSVG(ctx, dot.ToDOT(set, dotOptions(opts)))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func buildSVGOptions(opts Options) []render.SVGOption {
	svgOpts := []render.SVGOption{render.WithStyle(styleFor(opts.Style))}
	if opts.Selected != "" {
		svgOpts = append(svgOpts, render.WithSelection(opts.Selected))
	}
	if opts.Title != "" {
		svgOpts = append(svgOpts, render.WithTitle(opts.Title))
	}
	if opts.Interactive {
		svgOpts = append(svgOpts, render.WithInteractive(opts.APIBase))
	}
	return svgOpts
}

func styleFor(string) render.Style {
	return render.Simple{}
}

func dotOptions(opts Options) dot.Options {
	return dot.Options{Detailed: opts.Detailed, Selected: opts.Selected}
}
