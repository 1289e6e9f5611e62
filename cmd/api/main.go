package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/sevenpast/docintake/internal/adapters/http"
	"github.com/sevenpast/docintake/internal/bootstrap"
	"github.com/sevenpast/docintake/internal/config"
	"github.com/sevenpast/docintake/internal/core/domain"
	"github.com/sevenpast/docintake/internal/observability/logging"
	"github.com/sevenpast/docintake/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app.Orchestrator.SetObserver(batchMetricsBridge{m: httpMetrics})

	// The orchestrator admission loop runs inside the api binary; batch
	// state lives here, so batch requests must land on this instance.
	go app.Orchestrator.Run(ctx)

	router := httpadapter.NewRouter(
		app.Intake,
		app.Docs,
		app.Orchestrator,
		app.DefaultBatchOptions(),
	).Handler()

	mux := http.NewServeMux()
	mux.Handle("/metrics", httpMetrics.Handler())
	mux.Handle("/", httpMetrics.Middleware("api", router))

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown", "error", err)
	}
}

type batchMetricsBridge struct {
	m *metrics.HTTPServerMetrics
}

func (b batchMetricsBridge) BatchSubmitted() {
	b.m.RecordBatchSubmitted("api")
}

func (b batchMetricsBridge) FileFinished(status domain.BatchFileStatus) {
	b.m.RecordBatchFile("api", string(status))
}

func (b batchMetricsBridge) StageFailed(stage string) {
	b.m.RecordBatchStageFailure("api", stage)
}

func (b batchMetricsBridge) BatchFinished(duration time.Duration) {
	b.m.ObserveBatchDuration("api", duration)
}
