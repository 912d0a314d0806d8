package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/agentic-research/axtree/internal/config"
	"github.com/agentic-research/axtree/internal/mcpserver"
	"github.com/agentic-research/axtree/internal/metrics"
	"github.com/agentic-research/axtree/internal/replay"
)

var metricsAddr string

func init() {
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a live tree as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := settings(cmd)
		if err != nil {
			return err
		}
		if metricsAddr != "" {
			cfg.Metrics = &config.MetricsConfig{Addr: metricsAddr}
		}
		// stdout carries the MCP transport.
		logger := newLogger(cmd.ErrOrStderr(), cfg)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg)
		if err != nil {
			return err
		}

		store, err := openJournal(cfg)
		if err != nil {
			return err
		}
		if store != nil {
			defer func() { _ = store.Close() }()
		}

		opts := treeOptions(cfg, logger)
		opts.Recorder = m
		p := replay.New(replay.Options{Tree: opts, Journal: store, Logger: logger, TreeID: treeID})
		defer func() { _ = p.Close() }()

		if cfg.Metrics != nil {
			srv := &http.Server{
				Addr:              cfg.Metrics.Addr,
				Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server failed", "addr", cfg.Metrics.Addr, "error", err)
				}
			}()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
		}

		logger.Info("serving MCP on stdio", "tree_id", p.TreeID())
		return mcpserver.New(p, Version, logger).ServeStdio()
	},
}
