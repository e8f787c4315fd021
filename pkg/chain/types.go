package chain

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// =============================================================================
// Constants
// =============================================================================

// RootHash is the previous-hash sentinel carried by genesis blocks.
var RootHash = strings.Repeat("0", 64)

// GenesisPayload is the fixed payload of every genesis block.
const GenesisPayload = "Genesis Block"

// =============================================================================
// ProtocolRules
// =============================================================================

// ProtocolRules describes the protocol a branch claims to follow.
// It is metadata only; nothing in this package enforces it.
type ProtocolRules struct {
	Name            string   `json:"name" toml:"name"`
	BlockSize       int      `json:"block_size" toml:"block_size"` // nominal, in MB
	Consensus       string   `json:"consensus" toml:"consensus"`
	ValidationRules []string `json:"validation_rules" toml:"validation_rules"`
}

// Preset rule sets. The root branch uses StandardRules; forks use
// AlternateRules so they are visibly distinct from their parent.
var (
	StandardRules = ProtocolRules{
		Name:            "Standard",
		BlockSize:       1,
		Consensus:       "Proof of Work",
		ValidationRules: []string{"Standard validation"},
	}
	AlternateRules = ProtocolRules{
		Name:            "Modified",
		BlockSize:       2,
		Consensus:       "Proof of Stake",
		ValidationRules: []string{"Modified validation", "Extended block size"},
	}
)

// Equal reports whether two rule sets are identical.
func (r ProtocolRules) Equal(o ProtocolRules) bool {
	return r.Name == o.Name && r.BlockSize == o.BlockSize &&
		r.Consensus == o.Consensus && slices.Equal(r.ValidationRules, o.ValidationRules)
}

// =============================================================================
// Block
// =============================================================================

// Block is an immutable record in a branch.
type Block struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	PreviousHash string        `json:"previous_hash"`
	Hash         string        `json:"hash"`
	Payload      string        `json:"payload"`
	Rules        ProtocolRules `json:"rules"`
	BranchID     string        `json:"branch_id"`
}

// IsGenesis reports whether b starts a chain.
func (b Block) IsGenesis() bool { return b.PreviousHash == RootHash }

// ShortHash returns the first n characters of the hash.
func (b Block) ShortHash(n int) string {
	if n >= len(b.Hash) {
		return b.Hash
	}
	return b.Hash[:n]
}

// =============================================================================
// Branch
// =============================================================================

// Branch is an ordered chain of blocks. Insertion order is chain order.
type Branch struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Blocks []Block       `json:"blocks"`
	Rules  ProtocolRules `json:"rules"`
}

// Len returns the number of stored blocks, fork point included.
func (b Branch) Len() int { return len(b.Blocks) }

// Head returns the last block of the branch.
func (b Branch) Head() (Block, bool) {
	if len(b.Blocks) == 0 {
		return Block{}, false
	}
	return b.Blocks[len(b.Blocks)-1], true
}

// IndexOf returns the position of the block with the given hash, or -1.
func (b Branch) IndexOf(hash string) int {
	return slices.IndexFunc(b.Blocks, func(blk Block) bool { return blk.Hash == hash })
}

// Contains reports whether the branch stores a block with the given hash.
func (b Branch) Contains(hash string) bool { return b.IndexOf(hash) >= 0 }

// Truncate returns a copy holding blocks[0..ordinal] inclusive.
// An ordinal past the end keeps every block.
func (b Branch) Truncate(ordinal int) Branch {
	end := min(ordinal+1, len(b.Blocks))
	end = max(end, 0)
	b.Blocks = slices.Clone(b.Blocks[:end])
	return b
}

// Extend returns a copy with blk appended.
func (b Branch) Extend(blk Block) Branch {
	blocks := make([]Block, len(b.Blocks), len(b.Blocks)+1)
	copy(blocks, b.Blocks)
	b.Blocks = append(blocks, blk)
	return b
}

// =============================================================================
// BranchSet
// =============================================================================

// BranchSet is an immutable, ordered list of branches.
// Index 0 is always the root branch.
type BranchSet struct {
	branches []Branch
}

// NewBranchSet builds a set from branches in the given order.
func NewBranchSet(branches ...Branch) BranchSet {
	return BranchSet{branches: slices.Clone(branches)}
}

// Len returns the number of branches.
func (s BranchSet) Len() int { return len(s.branches) }

// Branch returns the branch at index i.
func (s BranchSet) Branch(i int) (Branch, bool) {
	if i < 0 || i >= len(s.branches) {
		return Branch{}, false
	}
	return s.branches[i], true
}

// Root returns the root branch.
func (s BranchSet) Root() (Branch, bool) { return s.Branch(0) }

// Branches returns a copy of the branch list.
func (s BranchSet) Branches() []Branch { return slices.Clone(s.branches) }

// FindBlock locates the first branch, in list order, storing a block with
// the given hash and returns the branch index and the block's ordinal in it.
func (s BranchSet) FindBlock(hash string) (branch, ordinal int, ok bool) {
	for i, br := range s.branches {
		if idx := br.IndexOf(hash); idx >= 0 {
			return i, idx, true
		}
	}
	return 0, 0, false
}

// Block returns the block with the given hash.
func (s BranchSet) Block(hash string) (Block, bool) {
	bi, idx, ok := s.FindBlock(hash)
	if !ok {
		return Block{}, false
	}
	return s.branches[bi].Blocks[idx], true
}

// WithBranch returns a new set with the branch at index i replaced.
// An out-of-range index returns s unchanged.
func (s BranchSet) WithBranch(i int, b Branch) BranchSet {
	if i < 0 || i >= len(s.branches) {
		return s
	}
	out := slices.Clone(s.branches)
	out[i] = b
	return BranchSet{branches: out}
}

// Append returns a new set with b added at the end.
func (s BranchSet) Append(b Branch) BranchSet {
	out := make([]Branch, len(s.branches), len(s.branches)+1)
	copy(out, s.branches)
	return BranchSet{branches: append(out, b)}
}

// BlockCount returns the number of distinct blocks (fork points counted once).
func (s BranchSet) BlockCount() int {
	seen := make(map[string]struct{})
	for _, br := range s.branches {
		for _, blk := range br.Blocks {
			seen[blk.Hash] = struct{}{}
		}
	}
	return len(seen)
}

type branchSetJSON struct {
	Branches []Branch `json:"branches"`
}

// MarshalJSON encodes the set as {"branches": [...]}.
func (s BranchSet) MarshalJSON() ([]byte, error) {
	branches := s.branches
	if branches == nil {
		branches = []Branch{}
	}
	return json.Marshal(branchSetJSON{Branches: branches})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (s *BranchSet) UnmarshalJSON(data []byte) error {
	var v branchSetJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.branches = v.Branches
	return nil
}
