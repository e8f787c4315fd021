package render

import (
	"bytes"
	"encoding/xml"
)

// Style defines the visual appearance of a chain diagram.
type Style interface {
	// RenderDefs writes SVG <defs> content (markers, filters).
	RenderDefs(buf *bytes.Buffer)
	// RenderConnector writes one connector.
	RenderConnector(buf *bytes.Buffer, c Connector)
	// RenderBlock writes a block shape and its text.
	RenderBlock(buf *bytes.Buffer, b Block)
	// RenderLabel writes a branch caption.
	RenderLabel(buf *bytes.Buffer, l Label)
	// RenderControl writes an affordance button for the selected block.
	RenderControl(buf *bytes.Buffer, c Control)
}

// Block contains all data needed to draw one block.
type Block struct {
	Hash       string  // full block hash
	Text       string  // short hash shown in the block
	Sub        string  // secondary line (ordinal)
	Branch     int     // index of the branch that placed the block
	X, Y, W, H float64 // top-left corner and size
	CX, CY     float64 // center
	Selected   bool
}

// Connector contains the endpoints of a link between two blocks, already
// clipped to the block edges.
type Connector struct {
	From, To       string
	X1, Y1, X2, Y2 float64
	Fork           bool
}

// Label is a branch caption anchored at its left baseline.
type Label struct {
	Branch int
	Text   string
	X, Y   float64
}

// ControlKind names an affordance button.
type ControlKind string

const (
	ControlAppend ControlKind = "append"
	ControlFork   ControlKind = "fork"
)

// Control is an affordance button centered at X, Y.
type Control struct {
	Kind ControlKind
	Hash string // block the action applies to
	X, Y float64
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
