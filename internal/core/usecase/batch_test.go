package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// batchExtractorFake fails for payloads containing errOn and returns the
// payload itself as extracted text otherwise.
type batchExtractorFake struct {
	errOn string
}

func (f *batchExtractorFake) Extract(_ context.Context, _ string, data []byte) (string, error) {
	if f.errOn != "" && bytes.Contains(data, []byte(f.errOn)) {
		return "", errors.New("extract boom")
	}
	return string(data), nil
}

type layoutFake struct {
	blocks []domain.TextBlock
	errOn  string
}

func (f *layoutFake) Analyze(_ context.Context, data []byte, _ string) ([]domain.TextBlock, error) {
	if f.errOn != "" && bytes.Contains(data, []byte(f.errOn)) {
		return nil, errors.New("layout boom")
	}
	return f.blocks, nil
}

type translatorFake struct {
	calls []string
	err   error
}

func (f *translatorFake) Translate(_ context.Context, text, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, text)
	return "translated:" + text, nil
}

type exporterFake struct {
	report []byte
	job    *domain.BatchJob
}

func (f *exporterFake) BatchReport(job *domain.BatchJob) ([]byte, error) {
	f.job = job
	return f.report, nil
}

func newTestOrchestrator(extractor *batchExtractorFake, layout *layoutFake, translator *translatorFake, exporter *exporterFake) *BatchOrchestrator {
	return NewBatchOrchestrator(extractor, layout, translator, exporter, 2, 2)
}

func waitForBatch(t *testing.T, o *BatchOrchestrator, batchID string) *domain.BatchJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := o.Status(batchID)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if job.Status == domain.BatchCompleted || job.Status == domain.BatchFailed {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("batch did not reach a terminal status")
	return nil
}

func ocrInputs(n int) []domain.BatchFileInput {
	files := make([]domain.BatchFileInput, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, domain.BatchFileInput{
			Name:     fmt.Sprintf("doc_%d.pdf", i),
			MimeType: "application/pdf",
			Data:     []byte(fmt.Sprintf("Rechnung %d", i)),
		})
	}
	return files
}

func TestBatchCompletesWithAllFilesSuccessful(t *testing.T) {
	o := newTestOrchestrator(&batchExtractorFake{}, &layoutFake{}, &translatorFake{}, &exporterFake{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	batchID, err := o.Submit(ctx, ocrInputs(3), domain.BatchOptions{EnableOCR: true})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	job := waitForBatch(t, o, batchID)
	if job.Status != domain.BatchCompleted {
		t.Fatalf("status = %s, want completed", job.Status)
	}
	if job.Progress != 100 {
		t.Fatalf("progress = %v, want 100", job.Progress)
	}
	if len(job.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(job.Results))
	}
	for _, r := range job.Results {
		if !r.Success {
			t.Fatalf("expected success for %s: %+v", r.FileName, r)
		}
		// "Rechnung" drives the invoice heuristic as confidence baseline.
		if r.Confidence != 0.8 {
			t.Fatalf("confidence = %v, want 0.8", r.Confidence)
		}
	}
}

func TestBatchIsolatesSingleFileFailure(t *testing.T) {
	files := ocrInputs(5)
	files[2].Data = []byte("poison Rechnung")

	o := newTestOrchestrator(
		&batchExtractorFake{},
		&layoutFake{errOn: "poison"},
		&translatorFake{},
		&exporterFake{},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	batchID, err := o.Submit(ctx, files, domain.BatchOptions{EnableOCR: true, EnableLayout: true})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	job := waitForBatch(t, o, batchID)
	if job.Status != domain.BatchCompleted {
		t.Fatalf("a file failure must not fail the batch, status = %s", job.Status)
	}
	failed := 0
	for _, f := range job.Files {
		if f.Status == domain.FileFailed {
			failed++
			if f.Error == "" {
				t.Fatalf("failed file must carry an error: %+v", f)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly 1 failed file, got %d", failed)
	}

	results, err := o.Results(batchID)
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	failedResults := 0
	for _, r := range results {
		if !r.Success {
			failedResults++
			if r.Error == "" {
				t.Fatalf("failed result must carry an error: %+v", r)
			}
		}
	}
	if failedResults != 1 {
		t.Fatalf("expected exactly 1 failed result, got %d", failedResults)
	}
}

func TestBatchFieldMatchingAndTranslation(t *testing.T) {
	blocks := []domain.TextBlock{
		{Text: "Vorname", Page: 1, X1: 10, Y1: 20, X2: 60, Y2: 35, Confidence: 0.9},
	}
	translator := &translatorFake{}
	o := newTestOrchestrator(
		&batchExtractorFake{},
		&layoutFake{blocks: blocks},
		translator,
		&exporterFake{},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	batchID, err := o.Submit(ctx, ocrInputs(1), domain.BatchOptions{
		EnableOCR:         true,
		EnableLayout:      true,
		EnableTranslation: true,
		TargetLanguage:    "en",
		FieldLabels:       []string{"Vorname", "Nachname"},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	job := waitForBatch(t, o, batchID)
	if len(job.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(job.Results))
	}
	r := job.Results[0]
	if len(r.DetectedFields) != 2 {
		t.Fatalf("expected 2 field entries, got %d", len(r.DetectedFields))
	}
	if !r.DetectedFields[0].Matched || r.DetectedFields[1].Matched {
		t.Fatalf("expected only Vorname matched: %+v", r.DetectedFields)
	}
	// Unmatched labels never reach the translator.
	if len(translator.calls) != 1 || translator.calls[0] != "Vorname" {
		t.Fatalf("unexpected translator calls: %v", translator.calls)
	}
	if len(r.TranslatedTexts) != 1 || r.TranslatedTexts[0].Text != "translated:Vorname" {
		t.Fatalf("unexpected translations: %+v", r.TranslatedTexts)
	}
}

func TestSubmitRejectsEmptyBatch(t *testing.T) {
	o := newTestOrchestrator(&batchExtractorFake{}, &layoutFake{}, &translatorFake{}, &exporterFake{})

	_, err := o.Submit(context.Background(), nil, domain.BatchOptions{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStatusUnknownBatch(t *testing.T) {
	o := newTestOrchestrator(&batchExtractorFake{}, &layoutFake{}, &translatorFake{}, &exporterFake{})

	if _, err := o.Status("missing"); !errors.Is(err, domain.ErrBatchNotFound) {
		t.Fatalf("Status: expected ErrBatchNotFound, got %v", err)
	}
	if _, err := o.Results("missing"); !errors.Is(err, domain.ErrBatchNotFound) {
		t.Fatalf("Results: expected ErrBatchNotFound, got %v", err)
	}
	if _, err := o.Report("missing"); !errors.Is(err, domain.ErrBatchNotFound) {
		t.Fatalf("Report: expected ErrBatchNotFound, got %v", err)
	}
}

func TestReportUsesExporterSnapshot(t *testing.T) {
	exporter := &exporterFake{report: []byte("xlsx-bytes")}
	o := newTestOrchestrator(&batchExtractorFake{}, &layoutFake{}, &translatorFake{}, exporter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	batchID, err := o.Submit(ctx, ocrInputs(2), domain.BatchOptions{EnableOCR: true})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitForBatch(t, o, batchID)

	report, err := o.Report(batchID)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if string(report) != "xlsx-bytes" {
		t.Fatalf("unexpected report payload: %q", report)
	}
	if exporter.job == nil || exporter.job.ID != batchID {
		t.Fatalf("exporter must receive the batch snapshot, got %+v", exporter.job)
	}
}

func TestStatusReturnsSnapshotNotLiveState(t *testing.T) {
	o := newTestOrchestrator(&batchExtractorFake{}, &layoutFake{}, &translatorFake{}, &exporterFake{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	batchID, err := o.Submit(ctx, ocrInputs(1), domain.BatchOptions{EnableOCR: true})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	job := waitForBatch(t, o, batchID)

	job.Files[0].Status = domain.FileFailed
	fresh, err := o.Status(batchID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if fresh.Files[0].Status != domain.FileCompleted {
		t.Fatal("mutating a snapshot must not leak into orchestrator state")
	}
}
