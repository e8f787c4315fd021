package layout

// controlGap separates affordance buttons from the selected block.
const controlGap = 24.0

// Point is a 2D coordinate.
type Point struct{ X, Y float64 }

// Controls holds the anchors of the affordances shown for a selected block:
// append above the block, fork below it.
type Controls struct {
	Hash   string
	Append Point
	Fork   Point
}

// ControlsFor returns the affordance anchors for the selected block.
// It reports false when the block has no position in l.
func ControlsFor(l Layout, hash string) (Controls, bool) {
	p, ok := l.Positions[hash]
	if !ok {
		return Controls{}, false
	}
	hh := l.Options.BlockHeight / 2
	return Controls{
		Hash:   hash,
		Append: Point{X: p.X, Y: p.Y - hh - controlGap},
		Fork:   Point{X: p.X, Y: p.Y + hh + controlGap},
	}, true
}
