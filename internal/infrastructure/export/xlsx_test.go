package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sevenpast/docintake/internal/core/domain"
)

func TestBatchReportLayout(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	completed := created.Add(2 * time.Minute)
	job := &domain.BatchJob{
		ID:       "batch-1",
		Status:   domain.BatchCompleted,
		Progress: 100,
		Files: []*domain.BatchFile{
			{ID: "file_0", Name: "form.pdf", Status: domain.FileCompleted},
			{ID: "file_1", Name: "broken.pdf", Status: domain.FileFailed, Error: "layout boom"},
		},
		Results: []domain.BatchResult{
			{
				FileID:   "file_0",
				FileName: "form.pdf",
				Success:  true,
				DetectedFields: []domain.FieldMatch{
					{Label: "Vorname", Matched: true},
					{Label: "Nachname", Matched: false},
				},
				TranslatedTexts:  []domain.TranslatedText{{Text: "First name"}},
				Confidence:       0.9,
				ProcessingTimeMS: 1200,
			},
			{
				FileID:   "file_1",
				FileName: "broken.pdf",
				Success:  false,
				Error:    "layout stage: layout boom",
			},
		},
		CreatedAt:   created,
		CompletedAt: &completed,
	}

	raw, err := NewXLSXExporter().BatchReport(job)
	if err != nil {
		t.Fatalf("BatchReport() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("report is not a readable workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Summary" || sheets[1] != "Files" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	cell := func(sheet, ref string) string {
		t.Helper()
		v, err := f.GetCellValue(sheet, ref)
		if err != nil {
			t.Fatalf("GetCellValue(%s, %s): %v", sheet, ref, err)
		}
		return v
	}

	if cell("Summary", "A1") != "Batch ID" || cell("Summary", "B1") != "batch-1" {
		t.Fatalf("unexpected summary header row: %q %q", cell("Summary", "A1"), cell("Summary", "B1"))
	}
	if cell("Summary", "B2") != "completed" {
		t.Fatalf("status cell = %q", cell("Summary", "B2"))
	}
	if cell("Summary", "B4") != "2" {
		t.Fatalf("total files cell = %q", cell("Summary", "B4"))
	}
	if cell("Summary", "B5") != "1" {
		t.Fatalf("successful files cell = %q", cell("Summary", "B5"))
	}
	if cell("Summary", "A7") != "Completed At" {
		t.Fatalf("expected completed-at row, got %q", cell("Summary", "A7"))
	}

	if cell("Files", "A1") != "File" || cell("Files", "G1") != "Error" {
		t.Fatalf("unexpected files header: %q ... %q", cell("Files", "A1"), cell("Files", "G1"))
	}
	if cell("Files", "A2") != "form.pdf" {
		t.Fatalf("first result file = %q", cell("Files", "A2"))
	}
	// Only matched fields count.
	if cell("Files", "C2") != "1" {
		t.Fatalf("matched fields cell = %q", cell("Files", "C2"))
	}
	if cell("Files", "D2") != "1" {
		t.Fatalf("translated texts cell = %q", cell("Files", "D2"))
	}
	if cell("Files", "G3") != "layout stage: layout boom" {
		t.Fatalf("error cell = %q", cell("Files", "G3"))
	}
}
