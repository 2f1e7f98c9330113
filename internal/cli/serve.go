package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackplot/stackplot/internal/server"
	"github.com/stackplot/stackplot/pkg/pipeline"
)

// serveCommand creates the serve command hosting the local diagram viewer.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		state     bool
		statePath string
		noCache   bool
		redisURL  string
		rules     string
		env       string
	)

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve the diagram in a local web viewer",
		Long: `Serve renders the project on demand, so saving a .tf file and
reloading the browser shows the updated diagram. The artifact cache keeps
unchanged reloads fast.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			runner, err := c.newRunner(cmd, noCache, redisURL, rules)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := pipeline.Options{
				Dir:         dir,
				Environment: env,
				UseState:    state,
				StatePath:   statePath,
				Logger:      c.Logger,
			}

			srv := server.New(runner, opts, addr, c.Logger)
			printInfo("Serving %s", dir)
			printDetail("Open %s in a browser, Ctrl-C to stop", StyleLink.Render("http://"+srv.Addr()))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	cmd.Flags().BoolVar(&state, "state", false, "enrich with live values from terraform show")
	cmd.Flags().StringVar(&statePath, "state-file", "", "read state or plan JSON from a file (implies --state)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&redisURL, "redis", "", "redis URL for the cache (overrides the file cache)")
	cmd.Flags().StringVar(&rules, "rules", "", "TOML file overriding the aggregation rule tables")
	cmd.Flags().StringVar(&env, "env", "", "environment label shown in the HTML header (default dev)")

	return cmd
}
