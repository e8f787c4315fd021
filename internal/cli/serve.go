package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forkview/pkg/observability/prom"
	"github.com/matzehuels/forkview/pkg/pipeline"
	"github.com/matzehuels/forkview/pkg/scenario"
	"github.com/matzehuels/forkview/pkg/server"
)

// serveCommand creates the serve command for the HTTP explorer.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr         string
		title        string
		scenarioPath string
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive explorer over HTTP",
		Long: `Serve the interactive explorer over HTTP.

Open /diagram.svg in a browser: clicking a block selects it, and the round
controls next to the selection append a block or start a fork. The JSON
API under /api exposes the same actions. Prometheus metrics are served at
/metrics.

The cache backend is taken from the [cache] section of the config file;
use redis to share rendered diagrams between several instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			hooks, err := prom.New(prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			hooks.Install()

			ctrl, err := c.newController(ctx, cfg, c.Logger)
			if err != nil {
				return err
			}
			if scenarioPath != "" {
				sc, err := scenario.Load(scenarioPath)
				if err != nil {
					return err
				}
				if _, err := scenario.Run(ctx, ctrl, sc.Steps, c.Logger); err != nil {
					return err
				}
				if title == "" {
					title = sc.Name
				}
			}

			srv := server.New(ctrl,
				server.WithRunner(runner),
				server.WithRenderOptions(pipeline.Options{Layout: cfg.Layout, Title: title}),
				server.WithLogger(c.Logger))

			printInfo("Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
			printDetail("Open /diagram.svg in a browser, press Ctrl+C to stop")
			return srv.ListenAndServe(ctx, cfg.Server)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&title, "title", "", "diagram title")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "replay a scenario before serving")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
