// Package cli implements the forkview command-line interface.
//
// The commands are:
//   - demo: replay a built-in scenario and write its diagram
//   - run: replay a scenario file and write SVG, JSON, DOT or Graphviz output
//   - verify: replay a scenario file and check chain integrity
//   - explore: browse and edit a branch set in the terminal
//   - serve: serve the interactive explorer over HTTP
//   - cache: inspect or clear the artifact cache
//
// Every command reads the optional TOML configuration given by --config
// (default: <user config dir>/forkview/config.toml). Flags override it.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forkview/pkg/buildinfo"
	"github.com/matzehuels/forkview/pkg/cache"
	"github.com/matzehuels/forkview/pkg/config"
	"github.com/matzehuels/forkview/pkg/controller"
	"github.com/matzehuels/forkview/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "forkview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag. Empty means the default location,
	// which may be absent.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Forkview explores forking hash chains",
		Long:         `Forkview builds toy hash chains, forks them at any block and lays the resulting branches out as a diagram you can edit from the terminal, a browser or a scenario file.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: <config dir>/forkview/config.toml)")

	root.AddCommand(c.demoCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration. An explicit --config must exist;
// the default location is optional.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.ConfigPath != "" {
		cfg, err := config.Load(c.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		c.Logger.Debug("loaded config", "path", c.ConfigPath)
		return cfg, nil
	}
	path, err := config.DefaultPath(appName)
	if err != nil {
		return config.Default(), nil
	}
	return config.LoadOrDefault(path)
}

// newController creates a controller with the configured rules.
func (c *CLI) newController(ctx context.Context, cfg config.Config, logger *log.Logger, opts ...controller.Option) (*controller.Controller, error) {
	opts = append([]controller.Option{
		controller.WithRules(cfg.Rules.Main, cfg.Rules.Fork),
		controller.WithLogger(logger),
	}, opts...)
	return controller.New(ctx, opts...)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.openCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}
	runner := pipeline.NewRunner(ch, keyer, c.Logger)
	runner.TTL = cfg.Cache.TTL
	return runner, nil
}

// openCache opens the backend named by cfg. An unusable file cache
// directory degrades to no caching; an unreachable Redis is an error.
func (c *CLI) openCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		c.Logger.Debug("using redis cache", "addr", cfg.RedisAddr)
		return rc, nil
	default:
		dir, err := cacheDir(cfg)
		if err != nil {
			c.Logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("cache disabled", "dir", dir, "error", err)
			return cache.NewNullCache(), nil
		}
		c.Logger.Debug("using file cache", "dir", dir)
		return fc, nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory or the per-user default
// (e.g. ~/.cache/forkview on Linux).
func cacheDir(cfg config.Cache) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	return cache.DefaultDir(appName)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
