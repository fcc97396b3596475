package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/timeline/internal/api"
	"github.com/matzehuels/timeline/pkg/cache"
	"github.com/matzehuels/timeline/pkg/observability"
	"github.com/matzehuels/timeline/pkg/pipeline"
	"github.com/matzehuels/timeline/pkg/store"
)

type serveFlags struct {
	addr    string
	redis   string
	mongo   string
	mongoDB string
	docs    string
	noCache bool
	prefix  string
}

func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Layouts are cached in Redis when --redis is set, otherwise in the local cache
directory. Stored timelines live in MongoDB when --mongo is set, otherwise in
memory. --docs exposes the documents below a directory at /v1/files/.`,
		Example: `  timeline serve --addr :8080
  timeline serve --redis redis://localhost:6379/0 --mongo mongodb://localhost:27017`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&f.redis, "redis", "", "Redis URL for the layout cache")
	cmd.Flags().StringVar(&f.prefix, "cache-prefix", "", "namespace for cache keys shared with other deployments")
	cmd.Flags().StringVar(&f.mongo, "mongo", "", "MongoDB URI for stored timelines")
	cmd.Flags().StringVar(&f.mongoDB, "mongo-db", appName, "MongoDB database name")
	cmd.Flags().StringVar(&f.docs, "docs", "", "serve layouts of documents below this directory")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, f serveFlags) error {
	logger := loggerFrom(ctx)
	hooks := observability.NewLogHooks(logger)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)

	ch, err := c.serveCache(ctx, f)
	if err != nil {
		return err
	}
	var keyer cache.Keyer
	if f.prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), f.prefix)
	}
	runner := pipeline.NewRunner(ch, keyer, logger)

	var st store.Store = store.NewMemoryStore()
	if f.mongo != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if st, err = store.NewMongoStore(connectCtx, f.mongo, f.mongoDB); err != nil {
			_ = runner.Close()
			return fmt.Errorf("connect store: %w", err)
		}
		logger.Info("using mongo store", "db", f.mongoDB)
	}

	srv := api.New(api.Config{Runner: runner, Store: st, Logger: logger, DocsDir: f.docs})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Close(closeCtx); err != nil {
			logger.Warn("close", "err", err)
		}
	}()
	return srv.ListenAndServe(ctx, f.addr)
}

func (c *CLI) serveCache(ctx context.Context, f serveFlags) (cache.Cache, error) {
	switch {
	case f.noCache:
		return cache.NewNullCache(), nil
	case f.redis != "":
		rc, err := cache.NewRedisCache(ctx, f.redis, cache.DefaultBackoff)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		loggerFrom(ctx).Info("using redis cache")
		return rc, nil
	}
	return newCache(false)
}
