// Package cache provides caching for parsed projects and rendered diagrams.
//
// The pipeline caches at three levels: parsed Terraform projects, computed
// layouts, and rendered artifacts. Keys are derived from a content hash of
// the project files so edits invalidate cached results automatically.
//
// Backends:
//   - FileCache: persistent file-based cache for CLI usage
//   - RedisCache: shared cache for the viewer server
//   - NullCache: no-op cache for tests or --no-cache runs
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
// Get returns (data, hit, error); a miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// StateKeyOpts captures what distinguishes one state document fetch.
type StateKeyOpts struct {
	Source string // explicit state file path, empty for terraform show discovery
}

// LayoutKeyOpts captures the options that affect a computed layout.
type LayoutKeyOpts struct {
	Width  float64
	Height float64
}

// ArtifactKeyOpts captures the options that affect a rendered artifact.
type ArtifactKeyOpts struct {
	Format        string // svg, html, dot
	EmbedMetadata bool
}

// Keyer generates cache keys for each pipeline stage.
// Implementations must be deterministic: the same inputs always produce
// the same key.
type Keyer interface {
	StateKey(projectHash string, opts StateKeyOpts) string
	LayoutKey(projectHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates hash-based keys with stage prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// StateKey generates a key for a fetched state document.
func (k *DefaultKeyer) StateKey(projectHash string, opts StateKeyOpts) string {
	return hashKey("state", projectHash, opts)
}

// LayoutKey generates a key for a computed layout.
func (k *DefaultKeyer) LayoutKey(projectHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", projectHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
