package ports

import (
	"context"
	"io"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	// SaveResult marks the document done and writes the winning label,
	// confidence, tags and diagnostic signals in a single row update.
	SaveResult(ctx context.Context, id string, res domain.ClassificationResult) error
}

// JobRepository owns the classification job queue. Claiming uses a single
// conditional update so that at most one worker owns a job at a time.
type JobRepository interface {
	// CreateJob enqueues a document. A document has at most one outstanding
	// job; enqueueing an already-queued document is a no-op.
	CreateJob(ctx context.Context, documentID string) error
	// ClaimNext locks and returns the oldest unlocked job. Losing a claim
	// race triggers re-selection; domain.ErrNoPendingJobs when the queue
	// holds no unlocked jobs.
	ClaimNext(ctx context.Context) (*domain.ClassificationJob, error)
	// ClaimByDocument locks the outstanding job of one specific document.
	ClaimByDocument(ctx context.Context, documentID string) (*domain.ClassificationJob, error)
	// Delete removes a job row; completion (success or terminal failure)
	// always deletes.
	Delete(ctx context.Context, jobID string) error
}

// ReviewRepository appends human-review flags.
type ReviewRepository interface {
	Add(ctx context.Context, documentID, reason string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, bucket, key string, data io.Reader) error
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, key string) error
}

// MessageQueue wakes workers up after an enqueue. The job table is the
// source of truth; losing a wake-up only delays a job until the next poll.
type MessageQueue interface {
	PublishClassificationRequested(ctx context.Context, documentID string) error
	SubscribeClassificationRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor obtains raw text from document bytes. Best-effort: an
// empty string is a valid result.
type TextExtractor interface {
	Extract(ctx context.Context, mimeType string, data []byte) (string, error)
}

// AIClassifier asks the external multimodal model for a label. It fails
// closed: any transport/parse/timeout fault yields label "unknown" with
// confidence 0 instead of an error.
type AIClassifier interface {
	Classify(ctx context.Context, data []byte, mimeType, extractedText string) domain.AIClassification
}

// LayoutAnalyzer detects positioned text blocks on a document page.
type LayoutAnalyzer interface {
	Analyze(ctx context.Context, data []byte, mimeType string) ([]domain.TextBlock, error)
}

// Translator translates a short text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// ReportExporter serializes a finished batch into a downloadable report.
type ReportExporter interface {
	BatchReport(job *domain.BatchJob) ([]byte, error)
}
