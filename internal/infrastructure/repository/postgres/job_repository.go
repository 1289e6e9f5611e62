package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// JobRepository implements the classification job queue over a plain
// table. Claiming relies on a single conditional update: whoever flips
// locked_at from NULL wins, everyone else sees zero rows affected.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateJob enqueues a document. The unique index on document_id keeps
// the 1:1 invariant: enqueueing a document with an outstanding job is a
// no-op rather than a duplicate.
func (r *JobRepository) CreateJob(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO classification_jobs (id, document_id, locked_at, created_at)
VALUES ($1, $2, NULL, $3)
ON CONFLICT (document_id) DO NOTHING
`, uuid.NewString(), documentID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert classification job: %w", err)
	}
	return nil
}

// ClaimNext selects the oldest unlocked job and tries to lock it. A lost
// race (zero rows affected) re-runs the selection; the loop ends when no
// unlocked job remains.
func (r *JobRepository) ClaimNext(ctx context.Context) (*domain.ClassificationJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := r.db.QueryRowContext(ctx, `
SELECT id, document_id, created_at
FROM classification_jobs
WHERE locked_at IS NULL
ORDER BY created_at ASC
LIMIT 1
`)
		var job domain.ClassificationJob
		if err := row.Scan(&job.ID, &job.DocumentID, &job.CreatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.ErrNoPendingJobs
			}
			return nil, fmt.Errorf("select next job: %w", err)
		}

		claimed, err := r.lock(ctx, &job)
		if err != nil {
			return nil, err
		}
		if claimed {
			return &job, nil
		}
		// Another worker won this job; try the next one.
	}
}

// ClaimByDocument locks the outstanding job of one document, if any.
func (r *JobRepository) ClaimByDocument(ctx context.Context, documentID string) (*domain.ClassificationJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, document_id, created_at
FROM classification_jobs
WHERE document_id = $1 AND locked_at IS NULL
`, documentID)

	var job domain.ClassificationJob
	if err := row.Scan(&job.ID, &job.DocumentID, &job.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoPendingJobs
		}
		return nil, fmt.Errorf("select job by document: %w", err)
	}

	claimed, err := r.lock(ctx, &job)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrNoPendingJobs
	}
	return &job, nil
}

func (r *JobRepository) lock(ctx context.Context, job *domain.ClassificationJob) (bool, error) {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE classification_jobs
SET locked_at = $2
WHERE id = $1 AND locked_at IS NULL
`, job.ID, now)
	if err != nil {
		return false, fmt.Errorf("lock job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("lock job rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}
	job.LockedAt = &now
	return true, nil
}

func (r *JobRepository) Delete(ctx context.Context, jobID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM classification_jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("delete classification job: %w", err)
	}
	return nil
}
