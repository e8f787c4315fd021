package chain

import (
	"context"
	"strconv"
	"time"

	"github.com/matzehuels/forkview/pkg/errors"
	"github.com/matzehuels/forkview/pkg/hashid"
)

// Factory creates blocks and branches.
// A zero Factory is not usable; construct one with [NewFactory].
type Factory struct {
	digester hashid.Digester
	ids      hashid.IDSource
	now      func() time.Time
}

// Option configures a Factory.
type Option func(*Factory)

// WithDigester sets the digest primitive (default: [hashid.SHA256]).
func WithDigester(d hashid.Digester) Option { return func(f *Factory) { f.digester = d } }

// WithIDs sets the identifier source (default: [hashid.UUIDs]).
func WithIDs(ids hashid.IDSource) Option { return func(f *Factory) { f.ids = ids } }

// WithClock sets the time source used for block timestamps.
func WithClock(now func() time.Time) Option { return func(f *Factory) { f.now = now } }

// NewFactory returns a Factory using SHA-256, random UUIDs and wall-clock time
// unless overridden by opts.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		digester: hashid.SHA256{},
		ids:      hashid.UUIDs{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Digester returns the digest primitive the factory hashes with.
func (f *Factory) Digester() hashid.Digester { return f.digester }

// NewGenesisBlock creates the root block of the branch identified by
// branchID, with the sentinel previous hash.
func (f *Factory) NewGenesisBlock(ctx context.Context, rules ProtocolRules, branchID string) (Block, error) {
	return f.NewBlock(ctx, nil, GenesisPayload, rules, branchID)
}

// NewBlock creates a block on top of prev, or a root block when prev is nil.
// The block does not exist until the digest completes; on failure the
// zero Block is returned together with a DIGEST_FAILED error.
func (f *Factory) NewBlock(ctx context.Context, prev *Block, payload string, rules ProtocolRules, branchID string) (Block, error) {
	prevHash := RootHash
	if prev != nil {
		prevHash = prev.Hash
	}
	ts := f.now()

	hash, err := HashBlock(ctx, f.digester, ts, prevHash, payload)
	if err != nil {
		return Block{}, err
	}

	return Block{
		ID:           f.ids.NewID(),
		Timestamp:    ts,
		PreviousHash: prevHash,
		Hash:         hash,
		Payload:      payload,
		Rules:        rules,
		BranchID:     branchID,
	}, nil
}

// NewBranch allocates an empty branch, or one starting at fork when given.
func (f *Factory) NewBranch(name string, rules ProtocolRules, fork *Block) Branch {
	b := Branch{
		ID:    f.ids.NewID(),
		Name:  name,
		Rules: rules,
	}
	if fork != nil {
		b.Blocks = []Block{*fork}
	}
	return b
}

// HashBlock computes digest(timestamp ++ previousHash ++ payload).
func HashBlock(ctx context.Context, d hashid.Digester, ts time.Time, prevHash, payload string) (string, error) {
	hash, err := d.Digest(ctx, hashInput(ts, prevHash, payload))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDigest, err, "hash block on %.12s", prevHash)
	}
	return hash, nil
}

func hashInput(ts time.Time, prevHash, payload string) string {
	return strconv.FormatInt(ts.UnixNano(), 10) + prevHash + payload
}
