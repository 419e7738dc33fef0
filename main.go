package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/pelageech/freshserv/accesslog"
	"github.com/pelageech/freshserv/config"
	"github.com/pelageech/freshserv/journal"
	"github.com/pelageech/freshserv/metrics"
	"github.com/pelageech/freshserv/nocache"
	"github.com/pelageech/freshserv/server"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "freshserv",
	})

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	access := accesslog.New(os.Stdout, logger)

	var h http.Handler = http.FileServer(http.Dir(cfg.Root))

	if cfg.Metrics {
		m := metrics.New()
		done := make(chan struct{})
		defer close(done)
		m.StartSampler(done)
		access.SetMetrics(m)

		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.Handle("/", h)
		h = mux
		logger.Info("Metrics enabled", "path", "/metrics")
	}

	if cfg.JournalPath != "" {
		j := &journal.Service{}
		if err := j.Connect(cfg.JournalPath, 0600, nil); err != nil {
			logger.Fatal("Failed to open request journal", "err", err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				logger.Error("Failed to close request journal", "err", err)
			}
		}()
		j.SetLogger(logger)
		access.SetJournal(j)
		logger.Info("Request journal enabled", "path", cfg.JournalPath)
	}

	h = access.Wrap(nocache.Wrap(h))

	srv, err := server.New(cfg, h, logger, os.Stdout)
	if err != nil {
		logger.Fatal("Failed to build server", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server failed", "err", err)
	}
}
