package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/forkview/pkg/chain"
)

// Options configures DOT output.
type Options struct {
	// Detailed adds payload and consensus lines to node labels.
	// When false, only the short hash and ordinal are shown.
	Detailed bool
	// Selected highlights the block with this hash.
	Selected string
}

// ToDOT converts a branch set to Graphviz DOT.
func ToDOT(set chain.BranchSet, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph chain {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=12];\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	declared := make(map[string]bool)
	for bi, br := range set.Branches() {
		fmt.Fprintf(&buf, "  subgraph \"cluster_%d\" {\n", bi)
		fmt.Fprintf(&buf, "    label=%q;\n", br.Name)
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for j, blk := range br.Blocks {
			if declared[blk.Hash] {
				continue
			}
			declared[blk.Hash] = true
			attrs := fmtAttrs(blk, j, opts)
			fmt.Fprintf(&buf, "    %q [%s];\n", blk.Hash, strings.Join(attrs, ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	seen := make(map[[2]string]bool)
	for _, br := range set.Branches() {
		for j := 1; j < len(br.Blocks); j++ {
			e := [2]string{br.Blocks[j].PreviousHash, br.Blocks[j].Hash}
			if seen[e] || !declared[e[0]] {
				continue
			}
			seen[e] = true
			fmt.Fprintf(&buf, "  %q -> %q;\n", e[0], e[1])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(blk chain.Block, ordinal int, detailed bool) string {
	label := fmt.Sprintf("%s\n#%d", blk.ShortHash(8), ordinal)
	if !detailed {
		return label
	}
	return label + "\n" + blk.Payload + "\n" + blk.Rules.Consensus
}

func fmtAttrs(blk chain.Block, ordinal int, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(blk, ordinal, opts.Detailed))}
	if blk.IsGenesis() {
		attrs = append(attrs, "penwidth=2")
	}
	if opts.Selected != "" && blk.Hash == opts.Selected {
		attrs = append(attrs, "fillcolor=\"#fff4d6\"", "color=\"#e0a100\"", "penwidth=3")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with a
// unitless one so the diagram scales like the native SVG output.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
