// Package cli implements the wheelforge command-line interface.
//
// The main commands are:
//   - discover: enumerate index packages and find their installable wheels
//   - generate: resolve a package list and emit the static conda channel
//   - store: snapshot resolved metadata into a record store
//   - serve: host a generated channel over HTTP
//   - cache: manage the HTTP response cache
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wheelforge/wheelforge/pkg/buildinfo"
	"github.com/wheelforge/wheelforge/pkg/cache"
	"github.com/wheelforge/wheelforge/pkg/config"
	"github.com/wheelforge/wheelforge/pkg/mapping"
	"github.com/wheelforge/wheelforge/pkg/registry/pypi"
	"github.com/wheelforge/wheelforge/pkg/resolve"
)

// appName is the application name used for directories and display.
const appName = "wheelforge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Wheelforge builds static conda channels from PyPI wheels",
		Long:         `Wheelforge discovers pure-Python wheels on PyPI, resolves their metadata concurrently, and emits a static conda channel (repodata.json plus compressed variants) that conda clients can install from directly.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			// Short run id to correlate log lines across a build.
			c.Logger = c.Logger.With("run", uuid.NewString()[:8])
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath, "config file")

	root.AddCommand(c.discoverCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache builds the response cache backend: null when disabled, Redis when
// configured, file otherwise.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	if c.Config.RedisURL != "" {
		backend, err := cache.NewRedisCache(ctx, c.Config.RedisURL, "", 0)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, falling back to file cache", "err", err)
		} else {
			return backend
		}
	}
	dir := c.Config.CacheDir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache()
		}
	}
	backend, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return backend
}

// newPyPIClient creates the index client used by all resolving commands.
func (c *CLI) newPyPIClient(ctx context.Context, noCache bool) *pypi.Client {
	ttl := time.Duration(c.Config.CacheTTLHours) * time.Hour
	client := pypi.NewClient(c.newCache(ctx, noCache), ttl)
	if c.Config.IndexURL != "" {
		client.SetBaseURL(c.Config.IndexURL)
	}
	if c.Config.MappingURL != "" {
		client.SetMappingURL(c.Config.MappingURL)
	}
	return client
}

// newTable creates the name-mapping table fed from the grayskull document.
func (c *CLI) newTable(client *pypi.Client) *mapping.Table {
	return mapping.New(client.FetchMapping, c.Logger)
}

// resolveAll runs the full resolution pipeline for a request list.
func (c *CLI) resolveAll(ctx context.Context, client *pypi.Client, reqs []resolve.Request, concurrency int, anyWheel, refresh bool) (*resolve.Result, error) {
	table := c.newTable(client)
	table.Load(ctx)

	pool := &resolve.Pool{
		Resolver: &resolve.Resolver{
			Client:   client,
			Table:    table,
			PureOnly: !anyWheel,
			Refresh:  refresh,
		},
		Limit:  concurrency,
		Logger: c.Logger,
	}
	return pool.Run(ctx, reqs)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/wheelforge/).
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
