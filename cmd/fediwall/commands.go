package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fediwall/internal/bot"
	"fediwall/internal/domain"
	"fediwall/internal/pipeline"
)

func fetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Run one fetch cycle and print the posts as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			posts := a.aggregator.FetchPosts(cmd.Context(), a.wall, a.logProgress)
			return writePosts(cmd.OutOrStdout(), posts)
		},
	}
}

func watchCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the wall every INTERVAL seconds and expose metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			a, err := newApp(reg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if a.cfg.MetricsAddr != "" {
				srv := a.serveMetrics(reg)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			a.log.WithField("interval", a.wall.Interval.String()).Info("Watching...")
			for {
				posts := a.aggregator.FetchPosts(ctx, a.wall, a.logProgress)
				if output != "" && ctx.Err() == nil {
					if err := writePostsFile(output, posts); err != nil {
						a.log.WithError(err).Error("Failed to write posts")
					}
				}

				select {
				case <-ctx.Done():
					a.log.Info("Watch stopped")
					return nil
				case <-time.After(a.wall.Interval):
				}
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the posts of every cycle to this JSON file")
	return cmd
}

func botCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the wall through a Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := bot.NewHandler(a.cfg.TelegramBotToken, a.wall, a.aggregator, a.cfg.BotMaxPosts, a.log)
			if err != nil {
				return err
			}
			h.Start(cmd.Context())
			return nil
		},
	}
}

func (a *app) logProgress(p pipeline.Progress) {
	a.log.WithFields(logrus.Fields{
		"started":  p.Started,
		"finished": p.Finished,
		"total":    p.Total,
		"errors":   len(p.Errors),
		"posts":    p.Posts.Len(),
	}).Debug("Progress")
}

func (a *app) serveMetrics(reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.log.WithField("addr", a.cfg.MetricsAddr).Info("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("Metrics server failed")
		}
	}()
	return srv
}

func writePosts(w io.Writer, posts []domain.Post) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(posts); err != nil {
		return fmt.Errorf("encoding posts: %w", err)
	}
	return nil
}

// writePostsFile replaces path atomically.
func writePostsFile(path string, posts []domain.Post) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fediwall-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writePosts(tmp, posts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
