package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/backdrop/internal/server"
	"github.com/matzehuels/backdrop/pkg/cache"
	"github.com/matzehuels/backdrop/pkg/observability"
)

// serveCommand starts the HTTP render service.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, cacheBackend, redisAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve renders over HTTP",
		Long: `Serve the render pipeline over HTTP.

Endpoints: POST /v1/render, POST /v1/preview, GET /v1/patterns,
GET /v1/formats, GET /v1/version and GET /healthz.`,
		Example: `  backdrop serve --addr :8080
  backdrop serve --cache redis --redis-addr localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			e, err := c.loadEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				e.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("cache") {
				e.cfg.Cache.Backend = cacheBackend
			}
			if cmd.Flags().Changed("redis-addr") {
				e.cfg.Cache.RedisAddr = redisAddr
			}
			observability.NewLogHooks(logger).Install()
			defer observability.Reset()

			runner, err := c.newRunner(ctx, e)
			if err != nil {
				return err
			}
			defer runner.Close()
			if e.cfg.Cache.Backend == cache.BackendRedis {
				// redis may be shared with other services
				runner.Keyer = cache.NewScopedKeyer(runner.Keyer, "backdrop:")
				runner.Loader.Keyer = runner.Keyer
			}

			srv := server.New(runner, e.catalog, e.cfg.Options(), e.cfg.Server, logger)
			printInfo("Listening on %s", StyleLink.Render(listenURL(e.cfg.Server.Addr)))
			printDetail("%d patterns, %d formats", len(e.catalog.Patterns()), len(e.catalog.Formats()))
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&cacheBackend, "cache", "", "cache backend: file, redis or none")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "redis address for --cache redis")
	return cmd
}

// listenURL turns a listen address into a clickable URL.
func listenURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
