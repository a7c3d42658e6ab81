package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/backdrop/pkg/buildinfo"
	"github.com/matzehuels/backdrop/pkg/cache"
	"github.com/matzehuels/backdrop/pkg/catalog"
	"github.com/matzehuels/backdrop/pkg/config"
	"github.com/matzehuels/backdrop/pkg/core/render"
	"github.com/matzehuels/backdrop/pkg/pipeline"
)

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

	configPath  string
	catalogPath string
	noCache     bool
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
		Use:          "backdrop",
		Short:        "Backdrop frames screenshots on gradient backgrounds",
		Long:         `Backdrop places screenshots on padded, rounded, shadowed canvases over CSS-style gradient backgrounds and exports them as PNG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/backdrop/config.toml)")
	pf.StringVar(&c.catalogPath, "catalog", "", "extra catalog TOML merged over the built-in patterns and formats")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the artifact cache")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.patternsCommand())
	root.AddCommand(c.formatsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// versionCommand prints build information.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

// =============================================================================
// Environment - config, catalog and runner
// =============================================================================

// env is what every rendering command needs.
type env struct {
	cfg     config.Config
	catalog *catalog.Catalog
}

func (c *CLI) loadEnv() (*env, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	cat := catalog.Default()
	path := c.catalogPath
	if path == "" {
		path = cfg.Catalog
	}
	if path != "" {
		if cat, err = catalog.Load(cat, path); err != nil {
			return nil, err
		}
		c.Logger.Debug("catalog loaded", "path", path)
	}
	return &env{cfg: cfg, catalog: cat}, nil
}

// newRunner creates a pipeline runner for CLI use. The CLI always uses the
// file cache unless the config picks another backend.
func (c *CLI) newRunner(ctx context.Context, e *env) (*pipeline.Runner, error) {
	cc, err := c.openCache(ctx, e.cfg.Cache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	r.Env = render.Env{Catalog: e.catalog}
	r.Loader.Cache = cc
	r.TTL = e.cfg.Cache.TTL
	return r, nil
}

func (c *CLI) openCache(ctx context.Context, cfg cache.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	cc, err := cache.Open(ctx, cfg)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Backend, "err", err)
		return cache.NewNullCache(), nil
	}
	return cc, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// splitList parses a comma-separated flag, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
