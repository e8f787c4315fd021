package render

import (
	"bytes"
	"fmt"
)

// controlRadius is the radius of the append and fork buttons.
const controlRadius = 12.0

// Simple is a flat style with rounded blocks and muted colors.
type Simple struct{}

func (Simple) RenderDefs(buf *bytes.Buffer) {
	buf.WriteString(`  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="#555"/>
    </marker>
  </defs>
`)
}

func (Simple) RenderConnector(buf *bytes.Buffer, c Connector) {
	if !c.Fork {
		fmt.Fprintf(buf, `  <line class="connector" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#555" stroke-width="2" marker-end="url(#arrow)"/>`+"\n",
			c.X1, c.Y1, c.X2, c.Y2)
		return
	}
	mx := (c.X1 + c.X2) / 2
	fmt.Fprintf(buf, `  <path class="connector fork" d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="#b5651d" stroke-width="2" stroke-dasharray="6 4" marker-end="url(#arrow)"/>`+"\n",
		c.X1, c.Y1, mx, c.Y1, mx, c.Y2, c.X2, c.Y2)
}

func (Simple) RenderBlock(buf *bytes.Buffer, b Block) {
	fill, stroke, width := "#ffffff", "#333333", 2
	if b.Selected {
		fill, stroke, width = "#fff4d6", "#e0a100", 4
	}
	fmt.Fprintf(buf, `  <g class="block" id="block-%s" data-hash="%s" data-branch="%d">`+"\n",
		EscapeXML(b.Hash), EscapeXML(b.Hash), b.Branch)
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" ry="8" fill="%s" stroke="%s" stroke-width="%d"/>`+"\n",
		b.X, b.Y, b.W, b.H, fill, stroke, width)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" font-family="monospace" font-size="14">%s</text>`+"\n",
		b.CX, b.CY-2, EscapeXML(b.Text))
	if b.Sub != "" {
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="11" fill="#777">%s</text>`+"\n",
			b.CX, b.CY+14, EscapeXML(b.Sub))
	}
	buf.WriteString("  </g>\n")
}

func (Simple) RenderLabel(buf *bytes.Buffer, l Label) {
	fmt.Fprintf(buf, `  <text class="branch-label" x="%.1f" y="%.1f" font-family="sans-serif" font-size="14" font-weight="bold" fill="#333">%s</text>`+"\n",
		l.X, l.Y, EscapeXML(l.Text))
}

func (Simple) RenderControl(buf *bytes.Buffer, c Control) {
	glyph, fill := "+", "#2e7d32"
	if c.Kind == ControlFork {
		glyph, fill = "⑂", "#b5651d"
	}
	fmt.Fprintf(buf, `  <g class="control" data-action="%s" data-hash="%s">`+"\n", c.Kind, EscapeXML(c.Hash))
	fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n", c.X, c.Y, controlRadius, fill)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#fff">%s</text>`+"\n",
		c.X, c.Y+5, glyph)
	buf.WriteString("  </g>\n")
}
