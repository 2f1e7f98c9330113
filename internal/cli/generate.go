package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stackplot/stackplot/pkg/layout"
	"github.com/stackplot/stackplot/pkg/pipeline"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output    string  // output file (single format) or base path (multiple)
	formats   []string
	state     bool    // enrich with `terraform show -json`
	statePath string  // read state/plan JSON from a file instead
	noCache   bool
	redisURL  string
	refresh   bool
	rules     string  // optional TOML rule file
	env       string
	title     string
	width     float64
	detailed  bool // detailed labels in DOT output
}

// generateCommand creates the generate command, the main path: parse a
// Terraform project and write architecture diagrams.
func (c *CLI) generateCommand() *cobra.Command {
	var formatsStr string
	opts := generateOpts{}

	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Generate architecture diagrams from a Terraform project",
		Long: `Generate parses the Terraform files in a directory, infers services,
connections and VPC structure, and writes the diagram in one or more
formats (html, svg, dot). With --state the diagram is enriched with
deployed values from terraform show.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			opts.formats = parseFormats(formatsStr)
			return c.runGenerate(cmd, dir, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): html (default), svg, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.state, "state", false, "enrich with live values from terraform show")
	cmd.Flags().StringVar(&opts.statePath, "state-file", "", "read state or plan JSON from a file (implies --state)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "redis URL for the cache (overrides the file cache)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached state and artifacts")
	cmd.Flags().StringVar(&opts.rules, "rules", "", "TOML file overriding the aggregation rule tables")
	cmd.Flags().StringVar(&opts.env, "env", "", "environment label shown in the HTML header (default dev)")
	cmd.Flags().StringVar(&opts.title, "title", "", "diagram title (default: directory name)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "canvas width in pixels (default responsive)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "detailed resource labels in DOT output")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, dir string, opts *generateOpts) error {
	runner, err := c.newRunner(cmd, opts.noCache, opts.redisURL, opts.rules)
	if err != nil {
		return err
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		Dir:         dir,
		Environment: opts.env,
		UseState:    opts.state,
		StatePath:   opts.statePath,
		Refresh:     opts.refresh,
		Formats:     opts.formats,
		Title:       opts.title,
		DetailedDOT: opts.detailed,
		Logger:      c.Logger,
	}
	if opts.width > 0 {
		cfg := layout.DefaultConfig()
		cfg.CanvasWidth = opts.width
		pipeOpts.Layout = cfg
	}

	var spinner *Spinner
	if opts.state && opts.statePath == "" {
		spinner = newSpinnerWithContext(cmd.Context(), "Reading state from terraform show...")
		spinner.Start()
	}

	prog := newProgress(c.Logger)
	result, err := runner.Execute(cmd.Context(), pipeOpts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d format(s)", len(result.Artifacts)))

	if err := writeArtifacts(dir, opts, result); err != nil {
		return err
	}

	printStats(result.Stats.ResourceCount, result.Stats.ServiceCount,
		result.Stats.ConnectionCount, result.CacheInfo.ArtifactHit)
	if !opts.state && opts.statePath == "" {
		printNextStep("Enrich with deployed values", "stackplot generate --state "+dir)
	}
	return nil
}

// writeArtifacts writes each rendered format to disk. A single format goes
// to --output directly; multiple formats share a base path.
func writeArtifacts(dir string, opts *generateOpts, result *pipeline.Result) error {
	base := outputBase(opts.output, dir)

	for _, format := range opts.formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if opts.output != "" && len(opts.formats) == 1 {
			path = opts.output
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// outputBase derives the base output path. If output is empty the project
// directory name is used; a known format extension on output is stripped.
func outputBase(output, dir string) string {
	if output == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "diagram"
		}
		return filepath.Base(abs)
	}
	ext := filepath.Ext(output)
	for _, f := range []string{pipeline.FormatSVG, pipeline.FormatHTML, pipeline.FormatDOT} {
		if ext == "."+f {
			return output[:len(output)-len(ext)]
		}
	}
	return output
}
