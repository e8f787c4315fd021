package pipeline

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkview/pkg/cache"
	"github.com/matzehuels/forkview/pkg/chain"
	fverrors "github.com/matzehuels/forkview/pkg/errors"
	"github.com/matzehuels/forkview/pkg/layout"
)

func testSet() chain.BranchSet {
	g0 := chain.Block{Hash: "g0", PreviousHash: chain.RootHash}
	g1 := chain.Block{Hash: "g1", PreviousHash: "g0"}
	g2 := chain.Block{Hash: "g2", PreviousHash: "g1"}
	f1 := chain.Block{Hash: "f1", PreviousHash: "g1"}
	return chain.NewBranchSet(
		chain.Branch{Name: "Main Chain", Blocks: []chain.Block{g0, g1, g2}},
		chain.Branch{Name: "Fork 1", Blocks: []chain.Block{g1, f1}},
	)
}

func testRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"json", false},
		{"dot", false},
		{"graphviz", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !fverrors.Is(err, fverrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, fverrors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", o.Formats)
	}
	if o.Style != StyleSimple {
		t.Errorf("Style = %q", o.Style)
	}
	if o.Layout != layout.DefaultOptions() {
		t.Errorf("Layout = %+v, want defaults", o.Layout)
	}

	bad := Options{Style: "handdrawn"}
	if err := bad.Validate(); err == nil {
		t.Error("unknown style should fail")
	}
}

func TestFileExtension(t *testing.T) {
	if FileExtension(FormatGraphviz) != "gv.svg" || FileExtension(FormatSVG) != "svg" {
		t.Error("unexpected file extensions")
	}
}

func TestExecute(t *testing.T) {
	r := testRunner(t, nil)
	res, err := r.Execute(context.Background(), testSet(), Options{
		Formats:  []string{FormatSVG, FormatJSON, FormatDOT},
		Selected: "g1",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Stats.BranchCount != 2 || res.Stats.BlockCount != 4 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Fingerprint != chain.Fingerprint(testSet()) {
		t.Error("fingerprint mismatch")
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact missing")
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "digraph") {
		t.Error("dot artifact missing")
	}
	doc, err := layout.Unmarshal(res.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if doc.Selection == nil || doc.Selection.Hash != "g1" {
		t.Errorf("json selection = %+v", doc.Selection)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Error("null cache should never hit")
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := testRunner(t, nil)
	_, err := r.Execute(context.Background(), testSet(), Options{Formats: []string{"pdf"}})
	if !fverrors.IsValidation(err) {
		t.Errorf("Execute error = %v, want validation error", err)
	}
}

func TestExecuteCaches(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := testRunner(t, c)
	ctx := context.Background()
	opts := Options{Formats: []string{FormatSVG, FormatJSON}}

	first, err := r.Execute(ctx, testSet(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	second, err := r.Execute(ctx, testSet(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v, want hits", second.CacheInfo)
	}
	if !reflect.DeepEqual(first.Layout, second.Layout) {
		t.Error("cached layout differs from computed layout")
	}
	if string(first.Artifacts[FormatSVG]) != string(second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}

	// A different selection is a different artifact.
	third, err := r.Execute(ctx, testSet(), Options{Formats: []string{FormatSVG}, Selected: "g0"})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit || !third.CacheInfo.LayoutHit {
		t.Errorf("third run cache info = %+v", third.CacheInfo)
	}

	// Refresh bypasses reads.
	fourth, err := r.Execute(ctx, testSet(), Options{Formats: []string{FormatSVG}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.LayoutHit || fourth.CacheInfo.RenderHit {
		t.Error("refresh should not read from cache")
	}
}

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenCache) Delete(context.Context, string) error { return errors.New("down") }
func (brokenCache) Close() error                         { return nil }

func TestCacheFailuresDoNotFailRuns(t *testing.T) {
	r := testRunner(t, brokenCache{})
	res, err := r.Execute(context.Background(), testSet(), Options{})
	if err != nil {
		t.Fatalf("Execute with broken cache: %v", err)
	}
	if len(res.Artifacts[FormatSVG]) == 0 {
		t.Error("svg missing")
	}
}

func TestLayoutSkippedBranches(t *testing.T) {
	set := testSet().Append(chain.Branch{
		Name:   "Orphan",
		Blocks: []chain.Block{{Hash: "gone"}, {Hash: "o1", PreviousHash: "gone"}},
	})
	r := testRunner(t, nil)
	res, err := r.Execute(context.Background(), set, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Stats.Skipped)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	a := Options{Title: "t"}
	b := Options{Title: "t", Interactive: true}
	if a.ArtifactKeyOpts("svg") == b.ArtifactKeyOpts("svg") {
		t.Error("interactive output must be keyed separately")
	}
}
