package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sevenpast/docintake/internal/bootstrap"
	"github.com/sevenpast/docintake/internal/config"
	"github.com/sevenpast/docintake/internal/core/domain"
	"github.com/sevenpast/docintake/internal/observability/logging"
	"github.com/sevenpast/docintake/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app.ClassifyUC.SetObserver(classifyMetricsBridge{m: workerMetrics})

	go serveMetrics(ctx, cfg.WorkerMetricsPort, workerMetrics)

	jobTimeout := time.Duration(cfg.WorkerJobTimeoutSeconds) * time.Second
	pollInterval := time.Duration(cfg.WorkerPollIntervalSecs) * time.Second

	// The job table is the source of truth: drain on startup and on a
	// fixed poll interval so jobs survive lost wake-ups and restarts.
	drain(ctx, app, jobTimeout)
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				drain(ctx, app, jobTimeout)
			}
		}
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeClassificationRequested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()

		err := app.ClassifyUC.ProcessDocument(processCtx, documentID)
		if errors.Is(err, domain.ErrNoPendingJobs) {
			// Another worker won the claim race; nothing to do.
			return nil
		}
		return err
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

// drain claims and processes jobs until the queue holds nothing claimable.
func drain(ctx context.Context, app *bootstrap.App, jobTimeout time.Duration) {
	for ctx.Err() == nil {
		processCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		err := app.ClassifyUC.ProcessNext(processCtx)
		cancel()

		if errors.Is(err, domain.ErrNoPendingJobs) {
			return
		}
		if err != nil {
			slog.Warn("process claimed job", "error", err)
		}
	}
}

func serveMetrics(ctx context.Context, port string, m *metrics.WorkerMetrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("worker metrics server", "error", err)
	}
}

type classifyMetricsBridge struct {
	m *metrics.WorkerMetrics
}

func (b classifyMetricsBridge) JobStarted() {
	b.m.StartJob()
}

func (b classifyMetricsBridge) JobFinished(duration time.Duration, err error) {
	b.m.FinishJob("worker", duration, err)
}

func (b classifyMetricsBridge) QueueLag(lag time.Duration) {
	b.m.ObserveQueueLag("worker", lag)
}

func (b classifyMetricsBridge) AICall(outcome string) {
	b.m.RecordAICall("worker", outcome)
}

func (b classifyMetricsBridge) ReviewFlagged() {
	b.m.RecordReviewFlag("worker")
}
