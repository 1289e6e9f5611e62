// Package export serializes batch outcomes into downloadable reports.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// XLSXExporter produces an XLSX workbook with a batch summary sheet and a
// per-file results sheet.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) BatchReport(job *domain.BatchJob) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const summarySheet = "Summary"
	const filesSheet = "Files"

	// excelize creates "Sheet1" by default; rename it instead of leaving
	// an empty sheet behind.
	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(defaultSheet, summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(filesSheet); err != nil {
		return nil, fmt.Errorf("create files sheet: %w", err)
	}

	successful := 0
	for _, r := range job.Results {
		if r.Success {
			successful++
		}
	}

	summary := [][2]any{
		{"Batch ID", job.ID},
		{"Status", string(job.Status)},
		{"Created At", job.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Total Files", len(job.Files)},
		{"Successful Files", successful},
		{"Progress", fmt.Sprintf("%.0f%%", job.Progress)},
	}
	if job.CompletedAt != nil {
		summary = append(summary, [2]any{"Completed At", job.CompletedAt.Format("2006-01-02 15:04:05")})
	}
	for i, kv := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valCell, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(summarySheet, keyCell, kv[0])
		_ = f.SetCellValue(summarySheet, valCell, kv[1])
	}

	headers := []string{
		"File", "Success", "Detected Fields", "Translated Texts",
		"Confidence", "Processing Time (ms)", "Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(filesSheet, cell, h)
	}

	for row, r := range job.Results {
		matched := 0
		for _, field := range r.DetectedFields {
			if field.Matched {
				matched++
			}
		}
		values := []any{
			r.FileName,
			r.Success,
			matched,
			len(r.TranslatedTexts),
			r.Confidence,
			r.ProcessingTimeMS,
			r.Error,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(filesSheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write report workbook: %w", err)
	}
	return buf.Bytes(), nil
}
