package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	francosphere "github.com/thekingleo527/FrancoSphere-sub016"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/config"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/instance"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "app"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "app",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	layer, err := francosphere.Open(ctx, cfg, logg, registry)
	if err != nil {
		logg.Error(ctx, "failed to open data layer", err)
		os.Exit(1)
	}
	defer func() {
		if err := layer.Close(); err != nil {
			logg.Error(ctx, "error closing data layer", err)
		}
	}()

	if cfg.App.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			logg.Info(logg.WithField(ctx, "addr", cfg.App.MetricsAddr), "metrics endpoint up")
			if err := http.ListenAndServe(cfg.App.MetricsAddr, mux); err != nil {
				logg.Error(ctx, "metrics endpoint stopped", err)
			}
		}()
	}

	// drain domain events into the log until the process is told to stop
	sub := layer.Bus.Subscribe()
	defer sub.Close()
	go func() {
		for event := range sub.C() {
			eventCtx := logg.WithFields(ctx, map[string]any{
				"kind":        string(event.Kind),
				"building_id": event.BuildingID,
			})
			logg.Debug(eventCtx, "domain event")
		}
	}()

	logg.Info(ctx, "data layer ready")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logg.Info(ctx, "shutting down")
}
