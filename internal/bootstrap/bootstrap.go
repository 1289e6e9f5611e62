// Package bootstrap wires configuration, infrastructure and use cases
// into a runnable application for both binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/sevenpast/docintake/internal/config"
	"github.com/sevenpast/docintake/internal/core/domain"
	"github.com/sevenpast/docintake/internal/core/ports"
	"github.com/sevenpast/docintake/internal/core/usecase"
	"github.com/sevenpast/docintake/internal/infrastructure/ai/gemini"
	"github.com/sevenpast/docintake/internal/infrastructure/export"
	"github.com/sevenpast/docintake/internal/infrastructure/extractor/composite"
	"github.com/sevenpast/docintake/internal/infrastructure/queue/nats"
	"github.com/sevenpast/docintake/internal/infrastructure/repository/postgres"
	"github.com/sevenpast/docintake/internal/infrastructure/resilience"
	"github.com/sevenpast/docintake/internal/infrastructure/storage/localfs"
	"github.com/sevenpast/docintake/internal/infrastructure/translate"
)

type App struct {
	Config config.Config

	Queue  ports.MessageQueue
	Docs   ports.DocumentRepository
	Intake ports.DocumentIntake

	ClassifyUC   *usecase.ClassifyUseCase
	Orchestrator *usecase.BatchOrchestrator

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	jobRepo := postgres.NewJobRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	geminiClient := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, gemini.Options{
		CallTimeout:        time.Duration(cfg.GeminiTimeoutSeconds) * time.Second,
		MaxRequestsPerSec:  cfg.GeminiMaxRPS,
		ResilienceExecutor: executor,
	})
	classifier := gemini.NewClassifier(geminiClient)
	ocr := gemini.NewTextExtractor(geminiClient)
	layout := gemini.NewLayoutAnalyzer(geminiClient)
	extractor := composite.New(ocr)

	translator := translate.New(cfg.TranslateURL, cfg.TranslateAPIKey, 15*time.Second)
	exporter := export.NewXLSXExporter()

	intakeUC := usecase.NewIntakeUseCase(docRepo, jobRepo, storage, queue, cfg.StorageBucket)
	classifyUC := usecase.NewClassifyUseCase(docRepo, jobRepo, reviewRepo, storage, extractor, classifier)
	orchestrator := usecase.NewBatchOrchestrator(
		extractor,
		layout,
		translator,
		exporter,
		cfg.BatchMaxConcurrent,
		cfg.BatchFileWorkers,
	)

	return &App{
		Config: cfg,

		Queue:  queue,
		Docs:   docRepo,
		Intake: intakeUC,

		ClassifyUC:   classifyUC,
		Orchestrator: orchestrator,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// DefaultBatchOptions converts the configured batch defaults into the
// options applied to submissions without explicit options.
func (a *App) DefaultBatchOptions() domain.BatchOptions {
	return domain.BatchOptions{
		EnableOCR:          a.Config.Batch.EnableOCR,
		EnableLayout:       a.Config.Batch.EnableLayout,
		EnableTranslation:  a.Config.Batch.EnableTranslation,
		TargetLanguage:     a.Config.Batch.TargetLanguage,
		FieldLabels:        a.Config.Batch.FieldLabels,
		MaxConcurrentFiles: a.Config.Batch.MaxConcurrentFiles,
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
