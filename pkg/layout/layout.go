package layout

import (
	"math"

	"github.com/matzehuels/forkview/pkg/chain"
)

// ConnectorKind distinguishes same-lane links from cross-lane links.
type ConnectorKind string

const (
	KindStraight ConnectorKind = "straight"
	KindFork     ConnectorKind = "fork"
)

// labelGap is the distance between a lane's block tops and its label baseline.
const labelGap = 12.0

// Position is the computed placement of one block. X and Y are the block center.
type Position struct {
	Hash    string
	X, Y    float64
	Branch  int // index of the branch that placed the block
	Ordinal int // index within that branch
}

// Connector links a source block to a target block.
type Connector struct {
	From, To       string // block hashes
	X1, Y1, X2, Y2 float64
	Kind           ConnectorKind
}

// IsFork reports whether the connector crosses lanes.
func (c Connector) IsFork() bool { return c.Kind == KindFork }

// Label is a branch caption anchored at its left baseline.
type Label struct {
	Branch int
	Text   string
	X, Y   float64
}

// Bounds is the axis-aligned box around all drawn content.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Layout is the complete result of one layout pass.
type Layout struct {
	Options    Options
	Positions  map[string]Position
	Order      []string // hashes in placement order
	Connectors []Connector
	Labels     []Label
	Lanes      map[int]float64 // lane y per placed branch
	Skipped    []int           // branches left out because their fork point had no position
	Bounds     Bounds
}

// Position returns the placement of the block with the given hash.
func (l Layout) Position(hash string) (Position, bool) {
	p, ok := l.Positions[hash]
	return p, ok
}

// Build computes the layout of set. It never fails: inconsistent input is
// skipped and reported through Layout.Skipped.
func Build(set chain.BranchSet, opts ...Option) Layout {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o = o.Normalized()

	b := &builder{
		opts: o,
		out: Layout{
			Options:   o,
			Positions: make(map[string]Position),
			Lanes:     make(map[int]float64, set.Len()),
		},
	}

	for i, br := range set.Branches() {
		if i == 0 {
			b.placeRoot(br)
			continue
		}
		b.placeFork(i, br)
	}

	b.out.Bounds = b.bounds()
	return b.out
}

type builder struct {
	opts Options
	out  Layout
}

func (b *builder) place(p Position) {
	if _, exists := b.out.Positions[p.Hash]; exists {
		return
	}
	b.out.Positions[p.Hash] = p
	b.out.Order = append(b.out.Order, p.Hash)
}

func (b *builder) placeRoot(br chain.Branch) {
	b.out.Lanes[0] = 0
	for i, blk := range br.Blocks {
		b.place(Position{Hash: blk.Hash, X: float64(i) * b.opts.BlockSpacing, Y: 0, Branch: 0, Ordinal: i})
	}
	for i := 1; i < len(br.Blocks); i++ {
		b.connect(br.Blocks[i].PreviousHash, br.Blocks[i].Hash)
	}
	b.out.Labels = append(b.out.Labels, Label{
		Branch: 0,
		Text:   br.Name,
		X:      -b.opts.BlockWidth / 2,
		Y:      -b.opts.BlockHeight/2 - labelGap,
	})
}

func (b *builder) placeFork(idx int, br chain.Branch) {
	if len(br.Blocks) == 0 {
		b.skip(idx)
		return
	}
	fork, ok := b.out.Positions[br.Blocks[0].Hash]
	if !ok {
		b.skip(idx)
		return
	}

	y := b.findLane(fork.X, fork.Y)
	b.out.Lanes[idx] = y

	for j := 1; j < len(br.Blocks); j++ {
		b.place(Position{
			Hash:    br.Blocks[j].Hash,
			X:       fork.X + float64(j)*b.opts.BlockSpacing,
			Y:       y,
			Branch:  idx,
			Ordinal: j,
		})
	}
	for j := 1; j < len(br.Blocks); j++ {
		b.connect(br.Blocks[j-1].Hash, br.Blocks[j].Hash)
	}

	b.out.Labels = append(b.out.Labels, Label{
		Branch: idx,
		Text:   br.Name,
		X:      fork.X + b.opts.BlockSpacing - b.opts.BlockWidth/2,
		Y:      y - b.opts.BlockHeight/2 - labelGap,
	})
}

func (b *builder) skip(idx int) {
	b.out.Skipped = append(b.out.Skipped, idx)
}

// findLane returns the first candidate forkY + k*BranchSpacing that keeps
// CollisionRatio*BranchSpacing away from every placed block at x >= forkX.
func (b *builder) findLane(forkX, forkY float64) float64 {
	minGap := b.opts.CollisionRatio * b.opts.BranchSpacing
	const eps = 1e-9

	var occupied []float64
	for _, h := range b.out.Order {
		p := b.out.Positions[h]
		if p.X >= forkX-eps {
			occupied = append(occupied, p.Y)
		}
	}

	// Each occupied y can reject at most a bounded number of candidates, so
	// the loop always terminates within len(occupied)*steps+1 iterations.
	steps := int(math.Ceil(2*minGap/b.opts.BranchSpacing)) + 1
	limit := len(occupied)*steps + 1
	for k := 0; k <= limit; k++ {
		cand := forkY + float64(k)*b.opts.BranchSpacing
		clear := true
		for _, y := range occupied {
			if math.Abs(y-cand) < minGap {
				clear = false
				break
			}
		}
		if clear {
			return cand
		}
	}
	return forkY + float64(limit+1)*b.opts.BranchSpacing
}

func (b *builder) connect(from, to string) {
	src, okS := b.out.Positions[from]
	dst, okD := b.out.Positions[to]
	if !okS || !okD {
		return
	}
	kind := KindStraight
	if math.Abs(dst.Y-src.Y) > b.opts.ForkThreshold {
		kind = KindFork
	}
	b.out.Connectors = append(b.out.Connectors, Connector{
		From: from, To: to,
		X1: src.X, Y1: src.Y,
		X2: dst.X, Y2: dst.Y,
		Kind: kind,
	})
}

func (b *builder) bounds() Bounds {
	if len(b.out.Order) == 0 {
		return Bounds{}
	}
	hw, hh := b.opts.BlockWidth/2, b.opts.BlockHeight/2
	bb := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, h := range b.out.Order {
		p := b.out.Positions[h]
		bb.MinX = math.Min(bb.MinX, p.X-hw)
		bb.MaxX = math.Max(bb.MaxX, p.X+hw)
		bb.MinY = math.Min(bb.MinY, p.Y-hh)
		bb.MaxY = math.Max(bb.MaxY, p.Y+hh)
	}
	for _, lb := range b.out.Labels {
		bb.MinX = math.Min(bb.MinX, lb.X)
		bb.MinY = math.Min(bb.MinY, lb.Y-labelGap)
	}
	return bb
}
