package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stackplot/stackplot/pkg/aggregate"
	"github.com/stackplot/stackplot/pkg/cache"
	"github.com/stackplot/stackplot/pkg/config"
	"github.com/stackplot/stackplot/pkg/errors"
	"github.com/stackplot/stackplot/pkg/layout"
	"github.com/stackplot/stackplot/pkg/observability"
	"github.com/stackplot/stackplot/pkg/relation"
	"github.com/stackplot/stackplot/pkg/render"
	"github.com/stackplot/stackplot/pkg/resolve"
	"github.com/stackplot/stackplot/pkg/terraform"
	"github.com/stackplot/stackplot/pkg/terraform/tfstate"
)

// Runner encapsulates pipeline execution with caching. Both CLI and server
// use this so caching logic lives in one place.
//
// The Runner is stateless except for the cache, rules and logger. Multiple
// goroutines can safely share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Rules  *config.Rules
	Logger *log.Logger
}

// NewRunner creates a runner.
// Nil arguments fall back to a NullCache, the DefaultKeyer, the compiled-in
// rule tables and the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, rules *config.Rules, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if rules == nil {
		rules = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Rules:  rules,
		Logger: logger,
	}
}

// Execute runs the complete pipeline for one project directory.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	if hash, err := cache.ProjectHash(opts.Dir); err == nil {
		result.ProjectHash = hash
	} else {
		logger.Debug("project hash unavailable", "err", err)
	}

	// Stage 1: parse configuration.
	parseStart := time.Now()
	observability.Pipeline().OnParseStart(ctx, opts.Dir)
	parsed, err := terraform.NewParser(opts.Dir, logger).ParseDirectory(opts.Dir)
	observability.Pipeline().OnParseComplete(ctx, opts.Dir, resourceCount(parsed), time.Since(parseStart), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", opts.Dir)
	}
	if len(parsed.Resources) == 0 {
		return nil, errors.New(errors.ErrCodeNoResources, "no resources found in %s", opts.Dir)
	}
	resolver := resolve.NewResolver(opts.Dir, logger)
	result.Stats.ParseTime = time.Since(parseStart)

	// Stage 2: optional state enrichment.
	if opts.UseState {
		stateStart := time.Now()
		st, hit, err := r.DiscoverState(ctx, opts, result.ProjectHash)
		if err != nil {
			return nil, err
		}
		if st != nil {
			st.Enrich(parsed, logger)
			logger.Info("enriched from state", "resources", st.Len(), "cached", hit)
		} else {
			logger.Info("no deployed state found, using configuration only")
		}
		result.CacheInfo.StateHit = hit
		result.Stats.StateTime = time.Since(stateStart)
	}

	// Stage 3: relationships and aggregation.
	relation.NewExtractor(r.Rules, logger).Extract(parsed)
	agg := aggregate.New(r.Rules, logger).Aggregate(parsed, resolver)
	result.Parsed = parsed
	result.Aggregated = agg
	result.Stats.ResourceCount = len(parsed.Resources)
	result.Stats.RelationshipCount = len(parsed.Relationships)
	result.Stats.ServiceCount = len(agg.Services)
	result.Stats.ConnectionCount = len(agg.Connections)

	logger.Info("aggregated resources",
		"resources", len(parsed.Resources),
		"services", len(agg.Services),
		"connections", len(agg.Connections),
		"duration", result.Stats.ParseTime)

	// Stage 4: layout.
	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, len(agg.Services))
	positions, groups, height := layout.NewEngine(opts.Layout, logger).Compute(agg)
	result.Positions = positions
	result.Groups = groups
	result.CanvasHeight = height
	result.Stats.LayoutTime = time.Since(layoutStart)
	observability.Pipeline().OnLayoutComplete(ctx, result.Stats.LayoutTime)

	// Stage 5: render.
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	hit, err := r.renderFormats(ctx, opts, result)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, err
	}
	result.CacheInfo.ArtifactHit = hit
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// DiscoverState fetches deployed state, consulting the cache first. The
// raw document is cached so repeated runs skip `terraform show`.
func (r *Runner) DiscoverState(ctx context.Context, opts Options, projectHash string) (*tfstate.State, bool, error) {
	key := r.Keyer.StateKey(projectHash, opts.StateKeyOpts())

	if !opts.Refresh && projectHash != "" {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if st, err := tfstate.Parse(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "state")
				return st, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "state")
	}

	var raw []byte
	var err error
	if opts.StatePath != "" {
		raw, err = os.ReadFile(opts.StatePath)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "state file %s", opts.StatePath)
		}
	} else {
		raw, err = tfstate.NewRunner(opts.Dir, opts.Logger).DiscoverRaw(ctx)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeState, err, "discover state for %s", opts.Dir)
		}
	}
	if raw == nil {
		return nil, false, nil
	}

	st, err := tfstate.Parse(raw)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeState, err, "parse state document")
	}

	if projectHash != "" {
		_ = r.Cache.Set(ctx, key, raw, TTLState)
		observability.Cache().OnCacheSet(ctx, "state", len(raw))
	}
	return st, false, nil
}

// renderFormats fills result.Artifacts, reading each format from the cache
// when possible. Returns true when every format was served from cache.
func (r *Runner) renderFormats(ctx context.Context, opts Options, result *Result) (bool, error) {
	layoutKey := r.Keyer.LayoutKey(result.ProjectHash, opts.LayoutKeyOpts())
	artifactHash := cache.Hash([]byte(layoutKey))

	doc := &render.Document{
		Result:    result.Aggregated,
		Positions: result.Positions,
		Groups:    result.Groups,
		Height:    result.CanvasHeight,
		Config:    opts.Layout,
	}

	allCached := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(artifactHash, opts.ArtifactKeyOpts(format))

		if !opts.Refresh && result.ProjectHash != "" {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				result.Artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		allCached = false

		data, err := r.renderOne(doc, result.Parsed, opts, format)
		if err != nil {
			return false, err
		}
		result.Artifacts[format] = data

		if result.ProjectHash != "" {
			_ = r.Cache.Set(ctx, key, data, TTLArtifact)
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return allCached && len(opts.Formats) > 0, nil
}

func (r *Runner) renderOne(doc *render.Document, parsed *terraform.ParseResult, opts Options, format string) ([]byte, error) {
	switch format {
	case FormatSVG:
		return render.SVG(doc), nil
	case FormatHTML:
		page, err := render.HTML(doc, render.HTMLOptions{
			Title:       opts.Title,
			Environment: opts.Environment,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "render html")
		}
		return page, nil
	case FormatDOT:
		return []byte(render.DOT(parsed, render.DOTOptions{Detailed: opts.DetailedDOT})), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q", format)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func resourceCount(parsed *terraform.ParseResult) int {
	if parsed == nil {
		return 0
	}
	return len(parsed.Resources)
}
