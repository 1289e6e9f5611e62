package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sevenpast/docintake/internal/core/domain"
	"github.com/sevenpast/docintake/internal/core/fieldmatch"
	"github.com/sevenpast/docintake/internal/core/ports"
)

// BatchOrchestrator runs bulk-import pipelines: per file OCR, optional
// layout analysis, optional field matching and optional translation, under
// bounded concurrency with per-file failure isolation. Batch state is
// owned by this instance and retained after completion for retrieval.
type BatchOrchestrator struct {
	extractor  ports.TextExtractor
	layout     ports.LayoutAnalyzer
	translator ports.Translator
	exporter   ports.ReportExporter

	maxConcurrentBatches int
	defaultFileWorkers   int

	mu      sync.Mutex
	jobs    map[string]*batchState
	pending chan string
	obs     BatchObserver
}

type batchState struct {
	job   *domain.BatchJob
	files []domain.BatchFileInput
	opts  domain.BatchOptions
}

func NewBatchOrchestrator(
	extractor ports.TextExtractor,
	layout ports.LayoutAnalyzer,
	translator ports.Translator,
	exporter ports.ReportExporter,
	maxConcurrentBatches, defaultFileWorkers int,
) *BatchOrchestrator {
	if maxConcurrentBatches <= 0 {
		maxConcurrentBatches = 3
	}
	if defaultFileWorkers <= 0 {
		defaultFileWorkers = 3
	}
	return &BatchOrchestrator{
		extractor:            extractor,
		layout:               layout,
		translator:           translator,
		exporter:             exporter,
		maxConcurrentBatches: maxConcurrentBatches,
		defaultFileWorkers:   defaultFileWorkers,
		jobs:                 make(map[string]*batchState),
		pending:              make(chan string, 256),
		obs:                  noopBatchObserver{},
	}
}

// SetObserver installs a pipeline observer; nil restores the no-op.
func (o *BatchOrchestrator) SetObserver(obs BatchObserver) {
	if obs == nil {
		obs = noopBatchObserver{}
	}
	o.obs = obs
}

// Submit registers a batch and queues it for processing.
func (o *BatchOrchestrator) Submit(ctx context.Context, files []domain.BatchFileInput, opts domain.BatchOptions) (string, error) {
	if len(files) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "submit batch", fmt.Errorf("no files"))
	}
	if opts.MaxConcurrentFiles <= 0 {
		opts.MaxConcurrentFiles = o.defaultFileWorkers
	}

	batchID := uuid.NewString()
	job := &domain.BatchJob{
		ID:        batchID,
		Status:    domain.BatchPending,
		CreatedAt: time.Now().UTC(),
		Results:   []domain.BatchResult{},
	}
	for i, f := range files {
		job.Files = append(job.Files, &domain.BatchFile{
			ID:       fmt.Sprintf("file_%d", i),
			Name:     f.Name,
			Size:     int64(len(f.Data)),
			MimeType: f.MimeType,
			Status:   domain.FilePending,
		})
	}

	o.mu.Lock()
	o.jobs[batchID] = &batchState{job: job, files: files, opts: opts}
	o.mu.Unlock()

	select {
	case o.pending <- batchID:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	o.obs.BatchSubmitted()
	slog.Info("batch submitted", "batch_id", batchID, "files", len(files))
	return batchID, nil
}

// Run is the outer admission loop: a new batch is pulled off the queue
// only while fewer than maxConcurrentBatches jobs are processing; the
// loop backs off instead of spawning unbounded work. Blocks until ctx is
// done.
func (o *BatchOrchestrator) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case batchID := <-o.pending:
			for o.processingCount() >= o.maxConcurrentBatches {
				select {
				case <-ctx.Done():
					wg.Wait()
					return
				case <-time.After(200 * time.Millisecond):
				}
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				o.runBatch(ctx, batchID)
			}()
		}
	}
}

func (o *BatchOrchestrator) processingCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, st := range o.jobs {
		if st.job.Status == domain.BatchProcessing {
			n++
		}
	}
	return n
}

// runBatch processes the files of one batch with bounded concurrency.
// File failures are isolated; BatchFailed is reserved for orchestrator
// faults, so a batch with failed files still completes.
func (o *BatchOrchestrator) runBatch(ctx context.Context, batchID string) {
	o.mu.Lock()
	st, ok := o.jobs[batchID]
	if !ok {
		o.mu.Unlock()
		return
	}
	st.job.Status = domain.BatchProcessing
	files, opts := st.files, st.opts
	o.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			o.failBatch(batchID, fmt.Errorf("batch pipeline panic: %v", rec))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrentFiles)
	for i := range files {
		idx := i
		g.Go(func() error {
			o.runFile(gctx, batchID, idx, files[idx], opts)
			return nil
		})
	}
	_ = g.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()
	job := st.job
	if job.Status == domain.BatchFailed {
		return
	}
	job.Status = domain.BatchCompleted
	now := time.Now().UTC()
	job.CompletedAt = &now
	o.obs.BatchFinished(now.Sub(job.CreatedAt))
	successes := 0
	for _, r := range job.Results {
		if r.Success {
			successes++
		}
	}
	slog.Info("batch completed", "batch_id", batchID, "successful", successes, "total", len(job.Files))
}

// runFile executes the per-file pipeline. Every stage error is caught
// here and recorded on the file and its result; sibling files are never
// affected.
func (o *BatchOrchestrator) runFile(ctx context.Context, batchID string, idx int, input domain.BatchFileInput, opts domain.BatchOptions) {
	o.setFileStatus(batchID, idx, domain.FileProcessing, "")
	start := time.Now()

	result, stage, err := o.fileResult(ctx, input, opts)
	result.ProcessingTimeMS = time.Since(start).Milliseconds()
	if err != nil {
		o.obs.StageFailed(stage)
	}

	o.mu.Lock()
	st, ok := o.jobs[batchID]
	if !ok {
		o.mu.Unlock()
		return
	}
	file := st.job.Files[idx]
	result.FileID = file.ID
	result.FileName = file.Name
	if err != nil {
		file.Status = domain.FileFailed
		file.Error = err.Error()
		result.Success = false
		result.Error = err.Error()
		slog.Warn("batch file failed", "batch_id", batchID, "file", file.Name, "error", err)
	} else {
		file.Status = domain.FileCompleted
		result.Success = true
	}
	o.obs.FileFinished(file.Status)
	st.job.Results = append(st.job.Results, result)
	st.job.Progress = float64(st.job.TerminalFiles()) / float64(len(st.job.Files)) * 100
	o.mu.Unlock()
}

// fileResult runs the stage pipeline for one file. On failure the name of
// the failed stage comes back alongside the error.
func (o *BatchOrchestrator) fileResult(ctx context.Context, input domain.BatchFileInput, opts domain.BatchOptions) (domain.BatchResult, string, error) {
	result := domain.BatchResult{
		DetectedFields:  []domain.FieldMatch{},
		TranslatedTexts: []domain.TranslatedText{},
	}

	if opts.EnableOCR {
		text, err := o.extractor.Extract(ctx, input.MimeType, input.Data)
		if err != nil {
			return result, "ocr", fmt.Errorf("ocr stage: %w", err)
		}
		// OCR feeds the same heuristic scorer the classification queue
		// uses; its score doubles as the file confidence baseline.
		result.Confidence = ScoreHeuristic(text, input.MimeType, input.Name).Score
	}

	var blocks []domain.TextBlock
	if opts.EnableLayout {
		var err error
		blocks, err = o.layout.Analyze(ctx, input.Data, input.MimeType)
		if err != nil {
			return result, "layout", fmt.Errorf("layout stage: %w", err)
		}
		if conf := averageConfidence(blocks); conf > result.Confidence {
			result.Confidence = conf
		}
	}

	if len(opts.FieldLabels) > 0 {
		result.DetectedFields = fieldmatch.Match(blocks, opts.FieldLabels)
	}

	if opts.EnableTranslation {
		translated, err := o.translateFields(ctx, result.DetectedFields, opts.TargetLanguage)
		if err != nil {
			return result, "translation", fmt.Errorf("translation stage: %w", err)
		}
		result.TranslatedTexts = translated
	}

	return result, "", nil
}

// translateFields translates matched labels only; unmatched fields are
// excluded from any overlay.
func (o *BatchOrchestrator) translateFields(ctx context.Context, fields []domain.FieldMatch, targetLang string) ([]domain.TranslatedText, error) {
	out := make([]domain.TranslatedText, 0, len(fields))
	for _, f := range fields {
		if !f.Matched {
			continue
		}
		translated, err := o.translator.Translate(ctx, f.Label, "auto", targetLang)
		if err != nil {
			return nil, fmt.Errorf("translate %q: %w", f.Label, err)
		}
		out = append(out, fieldmatch.Overlay(f, translated))
	}
	return out, nil
}

func (o *BatchOrchestrator) setFileStatus(batchID string, idx int, status domain.BatchFileStatus, errMsg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.jobs[batchID]; ok {
		st.job.Files[idx].Status = status
		st.job.Files[idx].Error = errMsg
	}
}

func (o *BatchOrchestrator) failBatch(batchID string, cause error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.jobs[batchID]; ok {
		st.job.Status = domain.BatchFailed
		st.job.Error = cause.Error()
	}
	slog.Error("batch failed", "batch_id", batchID, "error", cause)
}

// Status returns a point-in-time snapshot of the batch.
func (o *BatchOrchestrator) Status(batchID string) (*domain.BatchJob, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.jobs[batchID]
	if !ok {
		return nil, domain.WrapError(domain.ErrBatchNotFound, "batch status", fmt.Errorf("id=%s", batchID))
	}
	return snapshotJob(st.job), nil
}

func (o *BatchOrchestrator) Results(batchID string) ([]domain.BatchResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.jobs[batchID]
	if !ok {
		return nil, domain.WrapError(domain.ErrBatchNotFound, "batch results", fmt.Errorf("id=%s", batchID))
	}
	out := make([]domain.BatchResult, len(st.job.Results))
	copy(out, st.job.Results)
	return out, nil
}

func (o *BatchOrchestrator) Report(batchID string) ([]byte, error) {
	o.mu.Lock()
	st, ok := o.jobs[batchID]
	if !ok {
		o.mu.Unlock()
		return nil, domain.WrapError(domain.ErrBatchNotFound, "batch report", fmt.Errorf("id=%s", batchID))
	}
	snapshot := snapshotJob(st.job)
	o.mu.Unlock()

	return o.exporter.BatchReport(snapshot)
}

func snapshotJob(job *domain.BatchJob) *domain.BatchJob {
	out := *job
	out.Files = make([]*domain.BatchFile, len(job.Files))
	for i, f := range job.Files {
		fc := *f
		out.Files[i] = &fc
	}
	out.Results = make([]domain.BatchResult, len(job.Results))
	copy(out.Results, job.Results)
	return &out
}

func averageConfidence(blocks []domain.TextBlock) float64 {
	if len(blocks) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range blocks {
		sum += b.Confidence
	}
	return sum / float64(len(blocks))
}
