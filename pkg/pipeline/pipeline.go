// Package pipeline provides the core diagram pipeline for Stackplot.
//
// This package implements the complete parse → extract → aggregate →
// layout → render flow that both the CLI and the viewer server use. By
// centralizing this logic, all entry points behave identically.
//
// # Architecture
//
// The pipeline consists of five stages:
//
//  1. Parse: decode the Terraform configuration into resources and modules
//  2. State: optionally fetch deployed state and enrich the resources
//  3. Extract + Aggregate: derive relationships and group resources into
//     logical services
//  4. Layout: compute positions, groups and canvas height
//  5. Render: generate output in the requested formats (SVG, HTML, DOT)
//
// Only the state stage and the rendered artifacts are cached: parsing local
// files is cheap, but `terraform show` can take minutes.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, rules, logger)
//	opts := pipeline.Options{
//	    Dir:     "./infra/prod",
//	    Formats: []string{"html"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	page := result.Artifacts["html"]
package pipeline

import (
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stackplot/stackplot/pkg/aggregate"
	"github.com/stackplot/stackplot/pkg/cache"
	"github.com/stackplot/stackplot/pkg/errors"
	"github.com/stackplot/stackplot/pkg/layout"
	"github.com/stackplot/stackplot/pkg/terraform"
)

// Output format constants.
const (
	FormatSVG  = "svg"
	FormatHTML = "html"
	FormatDOT  = "dot"
)

// Cache lifetimes per stage.
const (
	// TTLState bounds how stale a cached `terraform show` document may be.
	TTLState = 15 * time.Minute

	// TTLArtifact covers rendered outputs, which are invalidated by the
	// project content hash anyway.
	TTLArtifact = 24 * time.Hour
)

// Options contains all configuration for one pipeline run.
type Options struct {
	// Dir is the Terraform project directory. Required.
	Dir string `json:"dir"`

	// Environment labels the diagram header (dev, staging, prod).
	Environment string `json:"environment,omitempty"`

	// UseState enables deployed-state discovery via `terraform show -json`
	// or state files found in the project directory.
	UseState bool `json:"use_state,omitempty"`

	// StatePath reads state from an explicit file instead of discovery.
	// Implies UseState.
	StatePath string `json:"state_path,omitempty"`

	// Refresh bypasses the cache for this run.
	Refresh bool `json:"refresh,omitempty"`

	// Layout overrides the canvas sizing. Zero value means defaults.
	Layout layout.Config `json:"layout,omitempty"`

	// Formats selects the outputs to render. Defaults to html.
	Formats []string `json:"formats,omitempty"`

	// Title overrides the HTML page title.
	Title string `json:"title,omitempty"`

	// DetailedDOT includes resource types and module paths in DOT labels.
	DetailedDOT bool `json:"detailed_dot,omitempty"`

	// Logger is the runtime logger (not serialized).
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent: calling it repeatedly has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Dir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "project directory is required")
	}
	info, err := os.Stat(o.Dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "project directory %s", o.Dir)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", o.Dir)
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatHTML}
	}
	for _, f := range o.Formats {
		if err := errors.ValidateFormat(f); err != nil {
			return err
		}
	}

	if o.StatePath != "" {
		o.UseState = true
	}
	if o.Environment == "" {
		o.Environment = "dev"
	}
	if o.Layout.CanvasWidth == 0 {
		o.Layout = layout.DefaultConfig()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}

	o.validated = true
	return nil
}

// StateKeyOpts returns cache key options for the state document.
func (o *Options) StateKeyOpts() cache.StateKeyOpts {
	return cache.StateKeyOpts{Source: o.StatePath}
}

// LayoutKeyOpts returns cache key options for the computed layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:  o.Layout.CanvasWidth,
		Height: o.Layout.CanvasHeight,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:        format,
		EmbedMetadata: format == FormatHTML,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Parsed is the decoded configuration with extracted relationships.
	Parsed *terraform.ParseResult

	// Aggregated holds the logical services, connections and VPC structure.
	Aggregated *aggregate.Result

	// Positions, Groups and CanvasHeight are the computed layout.
	Positions    map[string]layout.Position
	Groups       []*layout.Group
	CanvasHeight int

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// ProjectHash is the content hash of the project's Terraform files.
	ProjectHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ResourceCount     int
	RelationshipCount int
	ServiceCount      int
	ConnectionCount   int

	ParseTime  time.Duration
	StateTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits per cached stage.
type CacheInfo struct {
	StateHit    bool // state document came from cache
	ArtifactHit bool // every requested format came from cache
}
