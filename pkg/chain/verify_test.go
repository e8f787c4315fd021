package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/forkview/pkg/hashid"
)

func TestVerifyClean(t *testing.T) {
	f := newTestFactory()
	ctx := context.Background()
	main := buildMain(t, f, 3)
	fork := f.NewBranch("Fork 1", AlternateRules, &main.Blocks[1])
	f0, _ := f.NewBlock(ctx, &main.Blocks[1], "fork", fork.Rules, fork.ID)
	set := NewBranchSet(main, fork.Extend(f0))

	issues, err := Verify(ctx, set, hashid.SHA256{})
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("Verify() issues = %v, want none", issues)
	}
}

func TestVerifyDetectsProblems(t *testing.T) {
	f := newTestFactory()
	ctx := context.Background()
	main := buildMain(t, f, 3)

	tests := []struct {
		name string
		set  func() BranchSet
		want IssueKind
	}{
		{
			name: "broken link",
			set: func() BranchSet {
				br := main.Truncate(2)
				br.Blocks[2].PreviousHash = "tampered"
				return NewBranchSet(br)
			},
			want: IssueBrokenLink,
		},
		{
			name: "bad genesis",
			set: func() BranchSet {
				br := main.Truncate(2)
				br.Blocks = br.Blocks[1:]
				return NewBranchSet(br)
			},
			want: IssueBadGenesis,
		},
		{
			name: "orphaned fork",
			set: func() BranchSet {
				orphan := f.NewBranch("Fork 1", AlternateRules, &Block{Hash: "elsewhere"})
				return NewBranchSet(main, orphan)
			},
			want: IssueOrphanedFork,
		},
		{
			name: "hash mismatch",
			set: func() BranchSet {
				br := main.Truncate(2)
				br.Blocks[1].Payload = "rewritten"
				return NewBranchSet(br)
			},
			want: IssueHashMismatch,
		},
		{
			name: "empty branch",
			set: func() BranchSet {
				return NewBranchSet(main, f.NewBranch("Fork 1", AlternateRules, nil))
			},
			want: IssueEmptyBranch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues, err := Verify(ctx, tt.set(), hashid.SHA256{})
			if err != nil {
				t.Fatalf("Verify error: %v", err)
			}
			found := false
			for _, is := range issues {
				if is.Kind == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("Verify() issues = %v, want one of kind %s", issues, tt.want)
			}
		})
	}
}

func TestVerifyWithoutDigester(t *testing.T) {
	main := buildMain(t, newTestFactory(), 2)
	br := main.Truncate(1)
	br.Blocks[1].Payload = "rewritten"

	issues, err := Verify(context.Background(), NewBranchSet(br), nil)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("without a digester hashes are not recomputed, got %v", issues)
	}
}

func TestVerifyDigestFailure(t *testing.T) {
	main := buildMain(t, newTestFactory(), 2)
	boom := errors.New("boom")
	if _, err := Verify(context.Background(), NewBranchSet(main), hashid.Failing(boom)); !errors.Is(err, boom) {
		t.Errorf("Verify error = %v, want wrapped boom", err)
	}
}
