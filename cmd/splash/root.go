// Command splash fetches, inspects, and assembles builds described by
// content-distribution manifests.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/polynite/splash/internal/config"
	"github.com/polynite/splash/internal/diskcache"
	"github.com/polynite/splash/launcher"
)

var (
	envFile     string
	cacheDir    string
	workers     int
	chunkBase   string
	httpTimeout time.Duration
	logLevel    string

	logger = logrus.New()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "splash",
		Short: "Fetch and assemble builds from content-distribution manifests",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}
			logger.SetLevel(level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (defaults to ./.env)")
	root.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "chunk cache directory (overrides config)")
	root.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent chunk fetch workers (overrides config)")
	root.PersistentFlags().StringVar(&chunkBase, "chunk-base-uri", "", "base URI chunks are served from (overrides config)")
	root.PersistentFlags().DurationVar(&httpTimeout, "http-timeout", 60*time.Second, "HTTP client timeout")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")

	root.AddCommand(newFetchCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newChunksCmd())

	return root
}

func main() {
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if err := newRootCmd().Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// loadRuntime resolves config.Config, applying this run's flag
// overrides, and builds the shared HTTP client, fetcher, and cache used
// by every subcommand.
func loadRuntime() (*config.Config, *launcher.HTTPFetcher, *diskcache.Cache, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if chunkBase != "" {
		cfg.ChunkBaseURI = chunkBase
	}

	httpClient := &http.Client{Timeout: httpTimeout}
	fetcher := launcher.NewHTTPFetcher(httpClient)
	fetcher.UserAgent = cfg.UserAgent

	cache, err := diskcache.New(cfg.CacheDir)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, fetcher, cache, nil
}
