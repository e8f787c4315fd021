package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/forkview/pkg/layout"
)

// framePadding surrounds the layout bounds; it leaves room for the
// affordance buttons above and below the outer lanes.
const framePadding = 48.0

// shortHashLen is the number of hash characters printed in a block.
const shortHashLen = 8

const interactionJS = `
    const api = %q;
    function post(path, body) {
      return fetch(api + path, {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(body || {})})
        .then(() => location.reload());
    }
    document.querySelectorAll('.block').forEach(el => {
      el.addEventListener('click', () => post('/api/select', {hash: el.dataset.hash, branch: Number(el.dataset.branch)}));
    });
    document.querySelectorAll('.control').forEach(el => {
      el.addEventListener('click', e => { e.stopPropagation(); post('/api/' + el.dataset.action); });
    });`

const interactionCSS = `
    .block, .control { cursor: pointer; }
    .block:hover rect { stroke-width: 3; }`

// SVGOption configures [SVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style       Style
	selected    string
	title       string
	interactive bool
	apiBase     string
}

// WithSelection highlights the block with the given hash and draws its
// append and fork buttons. An unknown hash is ignored.
func WithSelection(hash string) SVGOption { return func(r *svgRenderer) { r.selected = hash } }

// WithStyle sets the drawing style (default: [Simple]).
func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithTitle sets the document title.
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// WithInteractive embeds click handlers that call the explorer API rooted
// at apiBase ("" for same origin).
func WithInteractive(apiBase string) SVGOption {
	return func(r *svgRenderer) {
		r.interactive = true
		r.apiBase = apiBase
	}
}

// SVG renders l as an SVG document.
func SVG(l layout.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{style: Simple{}}
	for _, opt := range opts {
		opt(&r)
	}

	b := l.Bounds
	x, y := b.MinX-framePadding, b.MinY-framePadding
	w, h := b.Width()+2*framePadding, b.Height()+2*framePadding

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		x, y, w, h, w, h)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", EscapeXML(r.title))
	}
	r.style.RenderDefs(&buf)

	for _, c := range buildConnectors(l) {
		r.style.RenderConnector(&buf, c)
	}
	for _, blk := range buildBlocks(l, r.selected) {
		r.style.RenderBlock(&buf, blk)
	}
	for _, lb := range l.Labels {
		r.style.RenderLabel(&buf, Label{Branch: lb.Branch, Text: lb.Text, X: lb.X, Y: lb.Y})
	}
	if ctl, ok := layout.ControlsFor(l, r.selected); ok && r.selected != "" {
		r.style.RenderControl(&buf, Control{Kind: ControlAppend, Hash: ctl.Hash, X: ctl.Append.X, Y: ctl.Append.Y})
		r.style.RenderControl(&buf, Control{Kind: ControlFork, Hash: ctl.Hash, X: ctl.Fork.X, Y: ctl.Fork.Y})
	}

	if r.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", interactionCSS)
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA["+interactionJS+"\n  ]]></script>\n", r.apiBase)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func buildBlocks(l layout.Layout, selected string) []Block {
	w, h := l.Options.BlockWidth, l.Options.BlockHeight
	blocks := make([]Block, 0, len(l.Order))
	for _, hash := range l.Order {
		p := l.Positions[hash]
		text := hash
		if len(text) > shortHashLen {
			text = text[:shortHashLen]
		}
		blocks = append(blocks, Block{
			Hash:     hash,
			Text:     text,
			Sub:      "#" + strconv.Itoa(p.Ordinal),
			Branch:   p.Branch,
			X:        p.X - w/2,
			Y:        p.Y - h/2,
			W:        w,
			H:        h,
			CX:       p.X,
			CY:       p.Y,
			Selected: hash == selected,
		})
	}
	return blocks
}

// buildConnectors clips each connector to the right edge of its source
// and the left edge of its target.
func buildConnectors(l layout.Layout) []Connector {
	hw := l.Options.BlockWidth / 2
	out := make([]Connector, 0, len(l.Connectors))
	for _, c := range l.Connectors {
		out = append(out, Connector{
			From: c.From, To: c.To,
			X1: c.X1 + hw, Y1: c.Y1,
			X2: c.X2 - hw, Y2: c.Y2,
			Fork: c.IsFork(),
		})
	}
	return out
}
