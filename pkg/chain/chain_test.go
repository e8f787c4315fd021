package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	fverrors "github.com/matzehuels/forkview/pkg/errors"
	"github.com/matzehuels/forkview/pkg/hashid"
)

// tickingClock returns a clock that advances one millisecond per call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func newTestFactory() *Factory {
	return NewFactory(WithClock(tickingClock()), WithIDs(&hashid.Sequential{Prefix: "t"}))
}

// buildMain returns a root branch with n blocks (genesis included).
func buildMain(t *testing.T, f *Factory, n int) Branch {
	t.Helper()
	ctx := context.Background()
	main := f.NewBranch("Main Chain", StandardRules, nil)
	g, err := f.NewGenesisBlock(ctx, main.Rules, main.ID)
	if err != nil {
		t.Fatalf("NewGenesisBlock: %v", err)
	}
	main = main.Extend(g)
	for i := 1; i < n; i++ {
		head, _ := main.Head()
		blk, err := f.NewBlock(ctx, &head, "payload", main.Rules, main.ID)
		if err != nil {
			t.Fatalf("NewBlock: %v", err)
		}
		main = main.Extend(blk)
	}
	return main
}

func TestNewGenesisBlock(t *testing.T) {
	f := newTestFactory()
	g, err := f.NewGenesisBlock(context.Background(), StandardRules, "main")
	if err != nil {
		t.Fatalf("NewGenesisBlock error: %v", err)
	}
	if g.BranchID != "main" {
		t.Errorf("BranchID = %q, want %q", g.BranchID, "main")
	}
	if g.PreviousHash != RootHash {
		t.Errorf("PreviousHash = %q, want RootHash", g.PreviousHash)
	}
	if !g.IsGenesis() {
		t.Error("IsGenesis() = false, want true")
	}
	if g.Payload != GenesisPayload {
		t.Errorf("Payload = %q, want %q", g.Payload, GenesisPayload)
	}
	if len(g.Hash) != 64 {
		t.Errorf("Hash length = %d, want 64", len(g.Hash))
	}
}

func TestHashDeterminism(t *testing.T) {
	ctx := context.Background()
	d := hashid.SHA256{}
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	h1, _ := HashBlock(ctx, d, ts, RootHash, "payload")
	h2, _ := HashBlock(ctx, d, ts, RootHash, "payload")
	if h1 != h2 {
		t.Fatal("HashBlock should be deterministic")
	}

	variants := map[string]func() (string, error){
		"timestamp": func() (string, error) { return HashBlock(ctx, d, ts.Add(time.Nanosecond), RootHash, "payload") },
		"previous":  func() (string, error) { return HashBlock(ctx, d, ts, h1, "payload") },
		"payload":   func() (string, error) { return HashBlock(ctx, d, ts, RootHash, "payload!") },
	}
	for name, fn := range variants {
		t.Run(name, func(t *testing.T) {
			h, err := fn()
			if err != nil {
				t.Fatalf("HashBlock: %v", err)
			}
			if h == h1 {
				t.Errorf("changing %s did not change the hash", name)
			}
		})
	}
}

func TestNewBlockUsesFactoryHash(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := NewFactory(WithClock(func() time.Time { return ts }))
	ctx := context.Background()

	a, _ := f.NewBlock(ctx, nil, "x", StandardRules, "b1")
	b, _ := f.NewBlock(ctx, nil, "x", StandardRules, "b2")
	if a.Hash != b.Hash {
		t.Error("identical (timestamp, previous, payload) should yield identical hashes")
	}
	if a.ID == b.ID {
		t.Error("ids should differ even when hashes match")
	}

	want, _ := HashBlock(ctx, hashid.SHA256{}, ts, RootHash, "x")
	if a.Hash != want {
		t.Errorf("Hash = %s, want %s", a.Hash, want)
	}
}

func TestNewBlockDigestFailure(t *testing.T) {
	boom := errors.New("digest offline")
	f := NewFactory(WithDigester(hashid.Failing(boom)))

	blk, err := f.NewBlock(context.Background(), nil, "x", StandardRules, "")
	if err == nil {
		t.Fatal("NewBlock should fail when the digest fails")
	}
	if !fverrors.Is(err, fverrors.ErrCodeDigest) {
		t.Errorf("error code = %v, want %v", fverrors.GetCode(err), fverrors.ErrCodeDigest)
	}
	if !errors.Is(err, boom) {
		t.Error("error should wrap the digest failure")
	}
	if blk.Hash != "" {
		t.Error("failed NewBlock should return the zero Block")
	}
}

func TestNewBranch(t *testing.T) {
	f := newTestFactory()
	empty := f.NewBranch("Main Chain", StandardRules, nil)
	if empty.Len() != 0 {
		t.Errorf("Len() = %d, want 0", empty.Len())
	}

	fork := Block{Hash: "abc"}
	br := f.NewBranch("Fork 1", AlternateRules, &fork)
	if br.Len() != 1 || br.Blocks[0].Hash != "abc" {
		t.Errorf("fork branch blocks = %+v, want [fork]", br.Blocks)
	}
	if br.ID == empty.ID {
		t.Error("branches should get distinct ids")
	}
}

func TestChainIntegrity(t *testing.T) {
	main := buildMain(t, newTestFactory(), 5)
	for i := 1; i < main.Len(); i++ {
		if main.Blocks[i].PreviousHash != main.Blocks[i-1].Hash {
			t.Errorf("blocks[%d].PreviousHash does not match blocks[%d].Hash", i, i-1)
		}
	}
}

func TestBranchTruncateAndExtend(t *testing.T) {
	main := buildMain(t, newTestFactory(), 4)

	trunc := main.Truncate(1)
	if trunc.Len() != 2 {
		t.Fatalf("Truncate(1).Len() = %d, want 2", trunc.Len())
	}
	if main.Len() != 4 {
		t.Errorf("Truncate mutated the original: Len() = %d", main.Len())
	}

	ext := trunc.Extend(Block{Hash: "new"})
	if ext.Len() != 3 || trunc.Len() != 2 {
		t.Errorf("Extend lengths = %d/%d, want 3/2", ext.Len(), trunc.Len())
	}

	if got := main.Truncate(99).Len(); got != 4 {
		t.Errorf("Truncate past end Len() = %d, want 4", got)
	}
}

func TestExtendDoesNotAlias(t *testing.T) {
	main := buildMain(t, newTestFactory(), 3)
	base := main.Truncate(1)
	a := base.Extend(Block{Hash: "a"})
	b := base.Extend(Block{Hash: "b"})
	if a.Blocks[2].Hash != "a" || b.Blocks[2].Hash != "b" {
		t.Error("extending the same base twice should not share storage")
	}
}

func TestBranchSetCopyOnWrite(t *testing.T) {
	f := newTestFactory()
	main := buildMain(t, f, 3)
	set := NewBranchSet(main)

	fork := f.NewBranch("Fork 1", AlternateRules, &main.Blocks[1])
	next := set.Append(fork)
	if set.Len() != 1 || next.Len() != 2 {
		t.Errorf("Append lengths = %d/%d, want 1/2", set.Len(), next.Len())
	}

	replaced := next.WithBranch(0, main.Truncate(0))
	if r, _ := next.Root(); r.Len() != 3 {
		t.Error("WithBranch mutated the original set")
	}
	if r, _ := replaced.Root(); r.Len() != 1 {
		t.Errorf("replaced root Len() = %d, want 1", r.Len())
	}
	if got := next.WithBranch(7, main); got.Len() != next.Len() {
		t.Error("WithBranch out of range should return the set unchanged")
	}
}

func TestBlockOrdinal(t *testing.T) {
	f := newTestFactory()
	ctx := context.Background()
	main := buildMain(t, f, 3)
	fork := f.NewBranch("Fork 1", AlternateRules, &main.Blocks[1])
	f0, _ := f.NewBlock(ctx, &main.Blocks[1], "fork", fork.Rules, fork.ID)
	fork = fork.Extend(f0)
	set := NewBranchSet(main, fork)

	tests := []struct {
		name  string
		block Block
		want  int
	}{
		{"genesis", main.Blocks[0], 0},
		{"root height 2", main.Blocks[2], 2},
		{"fork point resolves to parent", main.Blocks[1], 1},
		{"first fork block", f0, 1},
		{"unknown block", Block{Hash: "missing"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BlockOrdinal(tt.block, set); got != tt.want {
				t.Errorf("BlockOrdinal() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBlockCountDedupesForkPoints(t *testing.T) {
	f := newTestFactory()
	main := buildMain(t, f, 3)
	fork := f.NewBranch("Fork 1", AlternateRules, &main.Blocks[1])
	set := NewBranchSet(main, fork)
	if got := set.BlockCount(); got != 3 {
		t.Errorf("BlockCount() = %d, want 3", got)
	}
}

func TestFingerprint(t *testing.T) {
	main := buildMain(t, newTestFactory(), 3)
	a := NewBranchSet(main)
	b := NewBranchSet(main)
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("equal sets should have equal fingerprints")
	}
	c := NewBranchSet(main.Truncate(1))
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("different sets should have different fingerprints")
	}
}
