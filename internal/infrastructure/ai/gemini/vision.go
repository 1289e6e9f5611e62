package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// TextExtractor is the vision OCR collaborator: it asks the model for the
// raw document text. Callers treat it as best-effort.
type TextExtractor struct {
	client *Client
}

func NewTextExtractor(client *Client) *TextExtractor {
	return &TextExtractor{client: client}
}

func (e *TextExtractor) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	parts := []part{
		textPart(extractTextPrompt),
		dataPart(mimeType, data),
	}
	text, err := e.client.generateContent(ctx, "extract", parts)
	if err != nil {
		return "", fmt.Errorf("vision text extraction: %w", err)
	}
	return text, nil
}

// LayoutAnalyzer returns positioned text blocks for the batch pipeline's
// layout stage. Unlike classification this surfaces errors: a failed
// layout stage is recorded on the affected batch file.
type LayoutAnalyzer struct {
	client *Client
}

func NewLayoutAnalyzer(client *Client) *LayoutAnalyzer {
	return &LayoutAnalyzer{client: client}
}

func (a *LayoutAnalyzer) Analyze(ctx context.Context, data []byte, mimeType string) ([]domain.TextBlock, error) {
	parts := []part{
		textPart(layoutPrompt),
		dataPart(mimeType, data),
	}
	raw, err := a.client.generateContent(ctx, "layout", parts)
	if err != nil {
		return nil, fmt.Errorf("layout analysis: %w", err)
	}

	var blocks []domain.TextBlock
	if err := json.Unmarshal([]byte(extractJSONValue(raw)), &blocks); err != nil {
		return nil, fmt.Errorf("parse layout blocks: %w", err)
	}
	return blocks, nil
}
