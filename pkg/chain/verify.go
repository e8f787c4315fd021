package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	sha256 "github.com/minio/sha256-simd"

	"github.com/matzehuels/forkview/pkg/hashid"
)

// IssueKind classifies a structural problem found by [Verify].
type IssueKind string

const (
	// IssueBrokenLink: blocks[i].PreviousHash != blocks[i-1].Hash.
	IssueBrokenLink IssueKind = "broken_link"
	// IssueBadGenesis: the root branch does not start with a genesis block.
	IssueBadGenesis IssueKind = "bad_genesis"
	// IssueOrphanedFork: a fork point is not stored by any earlier branch.
	// Truncating a parent past a fork point produces this legitimately.
	IssueOrphanedFork IssueKind = "orphaned_fork"
	// IssueHashMismatch: a stored hash differs from the recomputed digest.
	IssueHashMismatch IssueKind = "hash_mismatch"
	// IssueEmptyBranch: a branch stores no blocks.
	IssueEmptyBranch IssueKind = "empty_branch"
)

// Issue is one problem found by [Verify].
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Branch  int       `json:"branch"`
	Ordinal int       `json:"ordinal"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("branch %d ordinal %d: %s: %s", i.Branch, i.Ordinal, i.Kind, i.Message)
}

// Verify checks chain integrity and the fork invariant of every branch.
// When d is non-nil each block hash is recomputed as well. Verify never
// modifies s; an error is returned only if the digest primitive fails.
func Verify(ctx context.Context, s BranchSet, d hashid.Digester) ([]Issue, error) {
	var issues []Issue

	for bi, br := range s.branches {
		if len(br.Blocks) == 0 {
			issues = append(issues, Issue{Kind: IssueEmptyBranch, Branch: bi, Message: br.Name})
			continue
		}

		first := br.Blocks[0]
		if bi == 0 {
			if !first.IsGenesis() {
				issues = append(issues, Issue{
					Kind: IssueBadGenesis, Branch: bi,
					Message: fmt.Sprintf("previous hash %.12s is not the root sentinel", first.PreviousHash),
				})
			}
		} else if !storedBefore(s.branches[:bi], first.Hash) {
			issues = append(issues, Issue{
				Kind: IssueOrphanedFork, Branch: bi,
				Message: fmt.Sprintf("fork point %.12s not found in an earlier branch", first.Hash),
			})
		}

		for i := 1; i < len(br.Blocks); i++ {
			if br.Blocks[i].PreviousHash != br.Blocks[i-1].Hash {
				issues = append(issues, Issue{
					Kind: IssueBrokenLink, Branch: bi, Ordinal: i,
					Message: fmt.Sprintf("previous hash %.12s, predecessor hash %.12s",
						br.Blocks[i].PreviousHash, br.Blocks[i-1].Hash),
				})
			}
		}

		if d == nil {
			continue
		}
		for i, blk := range br.Blocks {
			want, err := HashBlock(ctx, d, blk.Timestamp, blk.PreviousHash, blk.Payload)
			if err != nil {
				return nil, err
			}
			if want != blk.Hash {
				issues = append(issues, Issue{
					Kind: IssueHashMismatch, Branch: bi, Ordinal: i,
					Message: fmt.Sprintf("stored %.12s, computed %.12s", blk.Hash, want),
				})
			}
		}
	}

	return issues, nil
}

func storedBefore(branches []Branch, hash string) bool {
	for _, br := range branches {
		if br.Contains(hash) {
			return true
		}
	}
	return false
}

// Fingerprint returns a SHA-256 hex digest of the canonical JSON encoding
// of s. Equal snapshots always produce equal fingerprints, which makes it
// usable as a cache key for derived artifacts.
func Fingerprint(s BranchSet) string {
	data, _ := json.Marshal(s)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
