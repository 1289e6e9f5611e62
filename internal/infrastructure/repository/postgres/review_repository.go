package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ReviewRepository appends human-review flags. The table is append-only;
// repeated re-classification of one document accumulates entries.
type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Add(ctx context.Context, documentID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO review_queue (document_id, reason, created_at)
VALUES ($1, $2, $3)
`, documentID, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert review entry: %w", err)
	}
	return nil
}
