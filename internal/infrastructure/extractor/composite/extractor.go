// Package composite extracts document text cheaply where possible and
// falls back to the vision OCR collaborator otherwise.
package composite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/sevenpast/docintake/internal/core/ports"
)

type Extractor struct {
	ocr ports.TextExtractor
}

func New(ocr ports.TextExtractor) *Extractor {
	return &Extractor{ocr: ocr}
}

// Extract tries the free paths first: embedded PDF text for PDFs, the
// bytes themselves for plain text. Scanned PDFs and images go to OCR.
func (e *Extractor) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	switch {
	case mimeType == "application/pdf":
		if text := embeddedPDFText(data); text != "" {
			return text, nil
		}
	case strings.HasPrefix(mimeType, "text/"):
		if utf8.Valid(data) {
			return strings.TrimSpace(string(data)), nil
		}
		return "", fmt.Errorf("text document is not valid utf-8")
	}
	return e.ocr.Extract(ctx, mimeType, data)
}

// embeddedPDFText pulls the text layer out of a digital PDF. Any parse
// trouble means "no text layer" and is not an error: the caller falls
// back to OCR.
func embeddedPDFText(data []byte) string {
	defer func() {
		// The pdf parser panics on some malformed files.
		_ = recover()
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
