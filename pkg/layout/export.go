package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Document - Serialized Layout
// =============================================================================

// Document is the JSON wire format of a [Layout].
// Blocks are listed in placement order so the output is deterministic.
type Document struct {
	Options    Options         `json:"options"`
	Bounds     DocBounds       `json:"bounds"`
	Blocks     []DocBlock      `json:"blocks"`
	Connectors []DocConnector  `json:"connectors"`
	Labels     []DocLabel      `json:"labels"`
	Skipped    []int           `json:"skipped,omitempty"`
	Selection  *DocSelection   `json:"selection,omitempty"`
	Lanes      map[int]float64 `json:"lanes,omitempty"`
}

// DocBounds is the serialized [Bounds].
type DocBounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocBlock is a positioned block.
type DocBlock struct {
	Hash    string  `json:"hash"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Branch  int     `json:"branch"`
	Ordinal int     `json:"ordinal"`
}

// DocConnector is a serialized [Connector].
type DocConnector struct {
	From string        `json:"from"`
	To   string        `json:"to"`
	X1   float64       `json:"x1"`
	Y1   float64       `json:"y1"`
	X2   float64       `json:"x2"`
	Y2   float64       `json:"y2"`
	Kind ConnectorKind `json:"kind"`
}

// DocLabel is a serialized [Label].
type DocLabel struct {
	Branch int     `json:"branch"`
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// DocSelection carries the selected block and its affordance anchors.
type DocSelection struct {
	Hash   string `json:"hash"`
	Branch int    `json:"branch"`
	Append Point  `json:"append"`
	Fork   Point  `json:"fork"`
}

// Export converts l to its wire format. When selected is non-empty and
// positioned, the selection and its control anchors are included.
func (l Layout) Export(selected string, selectedBranch int) Document {
	doc := Document{
		Options: l.Options,
		Bounds: DocBounds{
			X: l.Bounds.MinX, Y: l.Bounds.MinY,
			Width: l.Bounds.Width(), Height: l.Bounds.Height(),
		},
		Blocks:     make([]DocBlock, 0, len(l.Order)),
		Connectors: make([]DocConnector, 0, len(l.Connectors)),
		Labels:     make([]DocLabel, 0, len(l.Labels)),
		Skipped:    l.Skipped,
		Lanes:      l.Lanes,
	}
	for _, h := range l.Order {
		p := l.Positions[h]
		doc.Blocks = append(doc.Blocks, DocBlock{Hash: h, X: p.X, Y: p.Y, Branch: p.Branch, Ordinal: p.Ordinal})
	}
	for _, c := range l.Connectors {
		doc.Connectors = append(doc.Connectors, DocConnector{
			From: c.From, To: c.To,
			X1: c.X1, Y1: c.Y1, X2: c.X2, Y2: c.Y2,
			Kind: c.Kind,
		})
	}
	for _, lb := range l.Labels {
		doc.Labels = append(doc.Labels, DocLabel{Branch: lb.Branch, Text: lb.Text, X: lb.X, Y: lb.Y})
	}
	if selected != "" {
		if ctl, ok := ControlsFor(l, selected); ok {
			doc.Selection = &DocSelection{
				Hash: selected, Branch: selectedBranch,
				Append: ctl.Append, Fork: ctl.Fork,
			}
		}
	}
	return doc
}

// Marshal serializes a Document to pretty-printed JSON bytes.
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal decodes JSON produced by Marshal.
func Unmarshal(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	return doc, nil
}

// WriteFile writes a Document to a JSON file.
func WriteFile(doc Document, path string) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
