package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crosssection/pkg/cache"
	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
	"github.com/matzehuels/crosssection/pkg/observability"
)

// Runner executes the pipeline with caching.
//
// The Runner keeps no per-run state, so one Runner can serve concurrent
// requests with different options as long as its Cache is concurrency-safe.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects cache.DefaultKeyer and a nil logger selects log.Default().
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
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs layout and render for doc.
func (r *Runner) Execute(ctx context.Context, doc hierarchy.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Stats: Stats{Charts: len(doc.Charts), Nodes: doc.NodeCount()},
	}
	hash, err := documentHash(doc)
	if err != nil {
		return nil, err
	}
	result.DocumentHash = hash

	if !opts.IsTree() {
		start := time.Now()
		scene, hit, err := r.LayoutWithCacheInfo(ctx, doc, opts)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		result.Scene = scene
		result.Stats.LayoutTime = time.Since(start)
		result.Stats.Segments = len(scene.Segments())
		result.CacheInfo.LayoutHit = hit

		r.Logger.Info("computed layout",
			"charts", len(scene.Charts),
			"segments", result.Stats.Segments,
			"cached", hit,
			"duration", result.Stats.LayoutTime)
	}

	start := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, doc, result.Scene, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes the scene of doc, consulting the cache
// first, and reports whether it came from the cache. Rejected documents
// are never cached.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, doc hierarchy.Document, opts Options) (*chart.Scene, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	key, err := r.layoutKey(doc, opts)
	if err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if scene, err := UnmarshalScene(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return scene, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("layout cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks.OnLayoutStart(ctx, len(doc.Charts), doc.NodeCount())
	start := time.Now()
	scene, err := ComputeLayout(ctx, doc, opts)
	if err != nil {
		hooks.OnLayoutComplete(ctx, 0, time.Since(start), err)
		if rejected(err) {
			hooks.OnRejected(ctx, string(errors.GetCode(err)))
		}
		return nil, false, err
	}
	hooks.OnLayoutComplete(ctx, len(scene.Segments()), time.Since(start), nil)

	if data, err := MarshalScene(scene); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return scene, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit info.
func (r *Runner) Layout(ctx context.Context, doc hierarchy.Document, opts Options) (*chart.Scene, error) {
	scene, _, err := r.LayoutWithCacheInfo(ctx, doc, opts)
	return scene, err
}

// RenderWithCacheInfo produces every requested format, consulting the
// cache first. It reports a hit only if all formats came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc hierarchy.Document, scene *chart.Scene, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	opts.SetLayoutDefaults()

	base, err := r.layoutKey(doc, opts)
	if err != nil {
		return nil, false, err
	}
	baseHash := cache.Hash([]byte(base))

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(baseHash, opts.ArtifactKeyOpts(format)))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, doc, scene, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(baseHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("artifact cache write failed", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) layoutKey(doc hierarchy.Document, opts Options) (string, error) {
	hash, err := documentHash(doc)
	if err != nil {
		return "", err
	}
	return r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts()), nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
