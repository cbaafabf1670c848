package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fediwall/internal/config"
	"fediwall/internal/domain"
	"fediwall/internal/mastodon"
	"fediwall/internal/metrics"
	"fediwall/internal/pipeline"
	"fediwall/internal/storage"
)

var (
	// cfgPath is a config directory holding config.yaml, or the file itself.
	cfgPath string

	rootCmd = &cobra.Command{
		Use:           "fediwall",
		Short:         "Aggregate public Mastodon posts from several servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "./configs", "config directory or file")
	rootCmd.AddCommand(fetchCommand(), watchCommand(), botCommand())
}

func main() {
	// Create context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app bundles the components every command needs.
type app struct {
	cfg        config.Config
	wall       domain.WallConfig
	log        *logrus.Logger
	metrics    *metrics.Metrics
	cache      storage.AccountCache
	aggregator *pipeline.Aggregator
}

func newApp(reg prometheus.Registerer) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	wall, err := cfg.Wall()
	if err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stderr)
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"servers":       wall.Servers,
		"tags":          wall.Tags,
		"accounts":      wall.Accounts,
		"cache_backend": cfg.CacheBackend,
	}).Info("Configuration loaded successfully")

	cache, err := storage.OpenAccountCache(cfg.CacheBackend, cfg.BadgerDBPath, log)
	if err != nil {
		return nil, fmt.Errorf("opening account cache: %w", err)
	}

	m := metrics.New(reg)
	client := mastodon.NewClient(log, mastodon.WithMetrics(m))
	resolver := mastodon.NewResolver(client, cache, log)
	scheduler := pipeline.NewScheduler(pipeline.NewExecutor(client, resolver), cfg.TaskJitter, m, log)

	return &app{
		cfg:        cfg,
		wall:       wall,
		log:        log,
		metrics:    m,
		cache:      cache,
		aggregator: pipeline.NewAggregator(scheduler, cfg.CycleTimeout, m, log),
	}, nil
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.log.WithError(err).Error("Error closing account cache")
	}
}
