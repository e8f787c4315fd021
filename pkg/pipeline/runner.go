package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forkview/pkg/cache"
	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/layout"
	"github.com/matzehuels/forkview/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-stage default expiry when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs layout and render for set.
func (r *Runner) Execute(ctx context.Context, set chain.BranchSet, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Fingerprint: chain.Fingerprint(set),
		Artifacts:   make(map[string][]byte),
	}
	result.Stats.BranchCount = set.Len()
	result.Stats.BlockCount = set.BlockCount()

	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, set, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Skipped = len(l.Skipped)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Debug("computed layout",
		"blocks", len(l.Order),
		"skipped", len(l.Skipped),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, set, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes the layout of set with caching and reports
// whether it came from cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, set chain.BranchSet, opts Options) (layout.Layout, bool, error) {
	opts.SetDefaults()
	if err := opts.Layout.Validate(); err != nil {
		return layout.Layout{}, false, err
	}

	observability.Pipeline().OnLayoutStart(ctx, set.Len())
	start := time.Now()

	key := r.Keyer.LayoutKey(chain.Fingerprint(set), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if l, ok := r.cachedLayout(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, "layout")
			observability.Pipeline().OnLayoutComplete(ctx, len(l.Order), time.Since(start), nil)
			return l, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	l := layout.Build(set, layout.WithOptions(opts.Layout))
	for _, idx := range l.Skipped {
		r.Logger.Debug("skipped branch, fork point not placed", "branch", idx)
	}

	if data, err := json.Marshal(l); err == nil {
		r.store(ctx, "layout", key, data, cache.TTLLayout)
	}

	observability.Pipeline().OnLayoutComplete(ctx, len(l.Order), time.Since(start), nil)
	return l, false, nil
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, set chain.BranchSet, opts Options) (layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, set, opts)
	return l, err
}

// RenderWithCacheInfo produces every requested format and reports whether
// all of them came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, set chain.BranchSet, l layout.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	fp := chain.Fingerprint(set)

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := !opts.Refresh
	if allCached {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(fp, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				allCached = false
				break
			}
			artifacts[format] = data
		}
	}
	if allCached {
		observability.Cache().OnCacheHit(ctx, "artifact")
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := Render(ctx, set, l, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.store(ctx, "artifact", r.Keyer.ArtifactKey(fp, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, set chain.BranchSet, l layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, set, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) cachedLayout(ctx context.Context, key string) (layout.Layout, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "error", err)
		return layout.Layout{}, false
	}
	if !hit {
		return layout.Layout{}, false
	}
	var l layout.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return layout.Layout{}, false
	}
	return l, true
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}
