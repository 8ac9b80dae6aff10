package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/NoeFlandre/meeting-report-mistral/internal/api"
	"github.com/NoeFlandre/meeting-report-mistral/internal/config"
	"github.com/NoeFlandre/meeting-report-mistral/internal/llm"
	"github.com/NoeFlandre/meeting-report-mistral/internal/pipeline"
	"github.com/NoeFlandre/meeting-report-mistral/internal/telemetry"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Exporter:    cfg.TracesExporter,
		ServiceName: cfg.ServiceName,
		Writer:      os.Stderr,
	})
	if err != nil {
		log.Error("init tracing", "error", err)
		os.Exit(1)
	}

	// Initialize providers and the report runner.
	stats := llm.NewStats(time.Hour)
	runner, providers, err := pipeline.NewRunnerFromConfig(cfg, stats, log)
	if err != nil {
		log.Error("init pipeline", "error", err)
		os.Exit(1)
	}

	orch := pipeline.NewOrchestrator(cfg, runner, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stats, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     otelhttp.NewHandler(srv, "crgen"),
		ReadTimeout: 5 * time.Minute,
		// Documents are only fetched after completion; uploads are the slow part.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown. main waits on done so workers and clients are
	// released before the process exits.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}

		orch.Stop()
		providers.Close()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
	}()

	log.Info("starting crgen",
		"port", cfg.Port,
		"transcription_provider", cfg.TranscriptionProvider,
		"generation_provider", cfg.GenerationProvider,
		"workers", cfg.WorkerCount,
		"traces_exporter", cfg.TracesExporter,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	log.Info("shutdown complete")
}
