package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sevenpast/docintake/internal/core/domain"
)

func newDocRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, mime_type, storage_bucket").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDDecodesSignalsPayload(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	signals := []byte(`{"heuristic":{"label":"passport","score":0.95,"source":"heuristic:mrz"},"ocr_length":42}`)
	rows := sqlmock.NewRows([]string{
		"id", "filename", "mime_type", "storage_bucket", "storage_path",
		"status", "document_type", "confidence", "tags", "signals", "error_message",
		"created_at", "updated_at",
	}).AddRow(
		"doc-1", "pass.jpg", "image/jpeg", "documents", "doc-1_pass.jpg",
		"done", "passport", 0.95, []byte(`["passport"]`), signals, nil,
		now, now,
	)

	mock.ExpectQuery("SELECT id, filename, mime_type, storage_bucket").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != domain.StatusDone || doc.DocumentType != "passport" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Signals == nil || doc.Signals.Heuristic.Source != "heuristic:mrz" {
		t.Fatalf("expected decoded signals, got %+v", doc.Signals)
	}
	if doc.Signals.OCRLength != 42 {
		t.Fatalf("ocr length = %d, want 42", doc.Signals.OCRLength)
	}
	if len(doc.Tags) != 1 || doc.Tags[0] != "passport" {
		t.Fatalf("unexpected tags: %v", doc.Tags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusDone), "invoice", 0.9, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveResult(context.Background(), "missing", domain.ClassificationResult{
		DocumentType: "invoice",
		Confidence:   0.9,
		Tags:         []string{"invoice"},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultWritesTerminalRow(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusDone), "passport", 0.95, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveResult(context.Background(), "doc-1", domain.ClassificationResult{
		DocumentType: "passport",
		Confidence:   0.95,
		Tags:         []string{"passport"},
		Signals: domain.Signals{
			Heuristic: domain.Candidate{Label: "passport", Score: 0.95, Source: "heuristic:mrz"},
			OCRLength: 42,
		},
	})
	if err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
