package ports

import (
	"context"
	"io"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// DocumentIntake is the inbound contract for upload and re-enqueue.
type DocumentIntake interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
	Reprocess(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// JobProcessor drives the claim-and-classify pipeline from worker context.
type JobProcessor interface {
	// ProcessNext claims and processes the oldest unlocked job;
	// domain.ErrNoPendingJobs when the queue is drained.
	ProcessNext(ctx context.Context) error
	// ProcessDocument claims and processes the job of one document.
	ProcessDocument(ctx context.Context, documentID string) error
}

// BatchService is the inbound contract of the batch orchestrator.
type BatchService interface {
	Submit(ctx context.Context, files []domain.BatchFileInput, opts domain.BatchOptions) (string, error)
	Status(batchID string) (*domain.BatchJob, error)
	Results(batchID string) ([]domain.BatchResult, error)
	Report(batchID string) ([]byte, error)
}
