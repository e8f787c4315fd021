package scenario

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/controller"
	fverrors "github.com/matzehuels/forkview/pkg/errors"
	"github.com/matzehuels/forkview/pkg/hashid"
)

const forkScenario = `
name = "fork and truncate"

[[step]]
action = "select"
branch = 0
block = -1

[[step]]
action = "append"
repeat = 1

[[step]]
action = "select"
block = -1

[[step]]
action = "append"

[[step]]
action = "select"
block = 1

[[step]]
action = "fork"
`

func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func newController(t *testing.T, d hashid.Digester) *controller.Controller {
	t.Helper()
	f := chain.NewFactory(chain.WithDigester(d), chain.WithClock(tickingClock()))
	c, err := controller.New(context.Background(), controller.WithFactory(f), controller.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(forkScenario))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "fork and truncate" || len(s.Steps) != 6 {
		t.Fatalf("scenario = %+v", s)
	}
	if s.Steps[0].Block != -1 || s.Steps[5].Action != ActionFork {
		t.Errorf("steps = %+v", s.Steps)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[[step]\n"},
		{"unknown action", "[[step]]\naction = \"mine\"\n"},
		{"unknown key", "[[step]]\naction = \"append\"\ncount = 2\n"},
		{"negative repeat", "[[step]]\naction = \"append\"\nrepeat = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			if !fverrors.Is(err, fverrors.ErrCodeInvalidScenario) {
				t.Errorf("Parse error = %v, want INVALID_SCENARIO", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.toml")
	if err := os.WriteFile(path, []byte(forkScenario), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !fverrors.IsNotFound(err) {
		t.Errorf("Load(missing) = %v, want not found", err)
	}
}

func TestRun(t *testing.T) {
	s, err := Parse([]byte(forkScenario))
	if err != nil {
		t.Fatal(err)
	}
	c := newController(t, hashid.SHA256{})

	rep, err := Run(context.Background(), c, s.Steps, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Executed != 6 || len(rep.Skipped) != 0 {
		t.Errorf("report = %+v", rep)
	}

	set := c.Snapshot()
	root, _ := set.Root()
	if root.Len() != 3 {
		t.Errorf("root len = %d, want 3", root.Len())
	}
	fork, ok := set.Branch(1)
	if !ok || fork.Blocks[0].Hash != root.Blocks[1].Hash {
		t.Errorf("fork should start at root block 1")
	}
}

func TestRunSkipsOutOfRangeSelect(t *testing.T) {
	c := newController(t, hashid.SHA256{})
	steps := []Step{
		{Action: ActionSelect, Branch: 3, Block: 0},
		{Action: ActionSelect, Branch: 0, Block: 9},
		{Action: ActionAppend},
		{Action: ActionSelect, Branch: 0, Block: 0},
		{Action: ActionAppend, Repeat: 2},
	}
	rep, err := Run(context.Background(), c, steps, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Skipped) != 2 || rep.Skipped[0] != 0 || rep.Skipped[1] != 1 {
		t.Errorf("Skipped = %v, want [0 1]", rep.Skipped)
	}
	// The first append is a no-op; the repeated one appends once, then
	// finds the selection cleared.
	root, _ := c.Snapshot().Root()
	if root.Len() != 2 {
		t.Errorf("root len = %d, want 2", root.Len())
	}
}

func TestRunDigestFailure(t *testing.T) {
	fail := false
	d := hashid.DigestFunc(func(ctx context.Context, text string) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return hashid.SHA256{}.Digest(ctx, text)
	})
	c := newController(t, d)
	fail = true

	rep, err := Run(context.Background(), c, []Step{
		{Action: ActionSelect},
		{Action: ActionAppend},
	}, log.New(io.Discard))
	if !fverrors.Is(err, fverrors.ErrCodeDigest) {
		t.Fatalf("Run error = %v, want DIGEST_FAILED", err)
	}
	if rep.Executed != 1 {
		t.Errorf("Executed = %d, want 1", rep.Executed)
	}
}

func TestRunCanceled(t *testing.T) {
	c := newController(t, hashid.SHA256{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, c, []Step{{Action: ActionReset}}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}
