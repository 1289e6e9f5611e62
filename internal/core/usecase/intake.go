package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sevenpast/docintake/internal/core/domain"
	"github.com/sevenpast/docintake/internal/core/ports"
)

type IntakeUseCase struct {
	docs    ports.DocumentRepository
	jobs    ports.JobRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	bucket  string
}

func NewIntakeUseCase(
	docs ports.DocumentRepository,
	jobs ports.JobRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	bucket string,
) *IntakeUseCase {
	return &IntakeUseCase{
		docs:    docs,
		jobs:    jobs,
		storage: storage,
		queue:   queue,
		bucket:  bucket,
	}
}

// Upload stores the file, creates the document row in status queued, its
// classification job, and wakes the workers.
func (uc *IntakeUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, uc.bucket, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:            id,
		Filename:      filename,
		MimeType:      mimeType,
		StorageBucket: uc.bucket,
		StoragePath:   storageKey,
		Status:        domain.StatusQueued,
		Tags:          []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.jobs.CreateJob(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("enqueue classification job: %w", err)
	}

	if err := uc.queue.PublishClassificationRequested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish classification event: %w", err)
	}

	return doc, nil
}

// Reprocess re-enqueues an already-stored document. Review entries from
// earlier runs are kept; the queue guarantees at most one outstanding job.
func (uc *IntakeUseCase) Reprocess(ctx context.Context, documentID string) error {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document for reprocess: %w", err)
	}

	if err := uc.docs.UpdateStatus(ctx, doc.ID, domain.StatusQueued, ""); err != nil {
		return fmt.Errorf("reset document status: %w", err)
	}

	if err := uc.jobs.CreateJob(ctx, doc.ID); err != nil {
		return fmt.Errorf("enqueue classification job: %w", err)
	}

	if err := uc.queue.PublishClassificationRequested(ctx, doc.ID); err != nil {
		return fmt.Errorf("publish classification event: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
