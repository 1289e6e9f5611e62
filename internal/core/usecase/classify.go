package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sevenpast/docintake/internal/core/domain"
	"github.com/sevenpast/docintake/internal/core/ports"
)

// ClassifyUseCase drives one claimed job through the classification
// pipeline: download -> extract text (best effort) -> heuristic scorer ->
// gated AI call -> fusion -> persist -> delete job.
type ClassifyUseCase struct {
	docs      ports.DocumentRepository
	jobs      ports.JobRepository
	reviews   ports.ReviewRepository
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	ai        ports.AIClassifier
	obs       ClassifyObserver
}

func NewClassifyUseCase(
	docs ports.DocumentRepository,
	jobs ports.JobRepository,
	reviews ports.ReviewRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	ai ports.AIClassifier,
) *ClassifyUseCase {
	return &ClassifyUseCase{
		docs:      docs,
		jobs:      jobs,
		reviews:   reviews,
		storage:   storage,
		extractor: extractor,
		ai:        ai,
		obs:       noopClassifyObserver{},
	}
}

// SetObserver installs a lifecycle observer; nil restores the no-op.
func (uc *ClassifyUseCase) SetObserver(obs ClassifyObserver) {
	if obs == nil {
		obs = noopClassifyObserver{}
	}
	uc.obs = obs
}

// ProcessNext claims the oldest unlocked job and runs it. Returns
// domain.ErrNoPendingJobs when the queue holds nothing claimable.
func (uc *ClassifyUseCase) ProcessNext(ctx context.Context) error {
	job, err := uc.jobs.ClaimNext(ctx)
	if err != nil {
		return err
	}
	return uc.processClaimed(ctx, job)
}

// ProcessDocument claims the outstanding job of one document and runs it.
// Racing workers are harmless: the loser gets ErrNoPendingJobs.
func (uc *ClassifyUseCase) ProcessDocument(ctx context.Context, documentID string) error {
	job, err := uc.jobs.ClaimByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	return uc.processClaimed(ctx, job)
}

// processClaimed owns the document exclusively. Whatever happens inside,
// the document ends in a terminal status and the job row is removed:
// completion deletes the job, success or not, and retries are an explicit
// re-enqueue.
func (uc *ClassifyUseCase) processClaimed(ctx context.Context, job *domain.ClassificationJob) (err error) {
	start := time.Now()
	uc.obs.JobStarted()
	uc.obs.QueueLag(start.Sub(job.CreatedAt))
	defer func() {
		uc.obs.JobFinished(time.Since(start), err)
	}()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("classification pipeline panic: %v", rec)
			uc.failDocument(ctx, job.DocumentID, err)
		}
		if delErr := uc.jobs.Delete(ctx, job.ID); delErr != nil {
			slog.Error("delete classification job", "job_id", job.ID, "error", delErr)
			if err == nil {
				err = fmt.Errorf("delete classification job: %w", delErr)
			}
		}
	}()

	if err := uc.docs.UpdateStatus(ctx, job.DocumentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	doc, err := uc.docs.GetByID(ctx, job.DocumentID)
	if err != nil {
		// Claim succeeded but the document is gone: invariant violation,
		// fatal for this job only.
		slog.Error("claimed job without document", "job_id", job.ID, "document_id", job.DocumentID, "error", err)
		err = fmt.Errorf("fetch claimed document: %w", err)
		uc.failDocument(ctx, job.DocumentID, err)
		return err
	}

	result, err := uc.classify(ctx, doc)
	if err != nil {
		uc.failDocument(ctx, doc.ID, err)
		return err
	}

	if err := uc.docs.SaveResult(ctx, doc.ID, result); err != nil {
		err = fmt.Errorf("persist classification result: %w", err)
		uc.failDocument(ctx, doc.ID, err)
		return err
	}

	if NeedsReview(result.Confidence) {
		uc.obs.ReviewFlagged()
		if revErr := uc.reviews.Add(ctx, doc.ID, ReviewReason(result.Confidence)); revErr != nil {
			// Review is advisory; a failed flag never undoes a done document.
			slog.Warn("enqueue review entry", "document_id", doc.ID, "error", revErr)
		}
	}

	return nil
}

func (uc *ClassifyUseCase) classify(ctx context.Context, doc *domain.Document) (domain.ClassificationResult, error) {
	data, err := uc.download(ctx, doc)
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	text := uc.extractText(ctx, doc, data)

	heur := ScoreHeuristic(text, doc.MimeType, doc.Filename)
	signals := domain.Signals{Heuristic: heur, OCRLength: len(text)}

	candidates := []domain.Candidate{heur}
	if NeedsAI(heur) {
		ai := uc.ai.Classify(ctx, data, doc.MimeType, text)
		signals.AI = &ai
		outcome := "classified"
		if ai.Label == domain.LabelUnknown {
			outcome = "fail_closed"
		}
		uc.obs.AICall(outcome)
		candidates = append(candidates, domain.Candidate{
			Label:  ai.Label,
			Score:  ai.Confidence,
			Source: "ai",
		})
	}

	best := Fuse(candidates...)
	slog.Info("document classified",
		"document_id", doc.ID,
		"label", best.Label,
		"confidence", best.Score,
		"source", best.Source,
		"ocr_length", len(text),
	)

	return domain.ClassificationResult{
		DocumentType: best.Label,
		Confidence:   best.Score,
		Tags:         []string{best.Label},
		Signals:      signals,
	}, nil
}

func (uc *ClassifyUseCase) download(ctx context.Context, doc *domain.Document) ([]byte, error) {
	reader, err := uc.storage.Open(ctx, doc.StorageBucket, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored document: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}
	return data, nil
}

// extractText is best-effort: extraction failure degrades to heuristic-only
// classification over mime type and filename, never to a hard failure.
func (uc *ClassifyUseCase) extractText(ctx context.Context, doc *domain.Document, data []byte) string {
	text, err := uc.extractor.Extract(ctx, doc.MimeType, data)
	if err != nil {
		slog.Warn("text extraction failed, degrading to heuristics",
			"document_id", doc.ID, "error", err)
		return ""
	}
	return text
}

func (uc *ClassifyUseCase) failDocument(ctx context.Context, documentID string, cause error) {
	if statusErr := uc.docs.UpdateStatus(ctx, documentID, domain.StatusError, cause.Error()); statusErr != nil {
		slog.Error("mark document failed", "document_id", documentID, "error", statusErr)
	}
}
