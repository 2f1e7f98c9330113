// Package cli implements the stackplot command-line interface.
//
// The main command is generate, which parses a Terraform project and writes
// architecture diagrams. serve hosts a local viewer that re-renders on
// refresh, and cache manages the on-disk artifact cache. All commands support
// --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stackplot/stackplot/pkg/buildinfo"
	"github.com/stackplot/stackplot/pkg/cache"
	"github.com/stackplot/stackplot/pkg/config"
	"github.com/stackplot/stackplot/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "stackplot"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "stackplot",
		Short:        "Stackplot draws architecture diagrams from Terraform code",
		Long:         `Stackplot parses a Terraform project, infers the service topology and VPC structure, and renders a layered architecture diagram without touching your cloud account.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use. An explicit redis URL
// wins over the file cache; --no-cache disables caching entirely.
func (c *CLI) newRunner(cmd *cobra.Command, noCache bool, redisURL, rulesPath string) (*pipeline.Runner, error) {
	store, err := newStore(cmd, noCache, redisURL)
	if err != nil {
		return nil, err
	}
	rules, err := loadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, rules, c.Logger), nil
}

func newStore(cmd *cobra.Command, noCache bool, redisURL string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisURL != "" {
		return cache.NewRedisCache(cmd.Context(), redisURL)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func loadRules(path string) (*config.Rules, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/stackplot/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatHTML}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
