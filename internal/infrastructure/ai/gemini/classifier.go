package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// Classifier is the AI classification adapter. It fails closed: any
// transport, timeout or parse fault comes back as label "unknown" with
// confidence 0. An error never crosses this boundary, so an AI outage
// degrades the pipeline to heuristic-only classification.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, data []byte, mimeType, extractedText string) domain.AIClassification {
	parts := []part{
		textPart(classificationPrompt()),
		dataPart(mimeType, data),
	}
	if extractedText != "" {
		parts = append(parts, ocrSnippetPart(extractedText))
	}

	raw, err := c.client.generateContent(ctx, "classify", parts)
	if err != nil {
		slog.Warn("ai classification failed closed", "error", err)
		return failedClosed()
	}

	result, err := parseClassification(raw)
	if err != nil {
		slog.Warn("ai classification parse failed closed", "error", err)
		return domain.AIClassification{
			Label:      domain.LabelUnknown,
			Confidence: 0,
			Reasons:    []string{"parse_error"},
		}
	}
	return result
}

// parseClassification enforces the constrained answer shape. Anything
// that does not parse into the fixed struct, or names a label outside
// the vocabulary, is a classification failure. No best-effort scraping.
func parseClassification(raw string) (domain.AIClassification, error) {
	var parsed struct {
		Label      string   `json:"label"`
		Confidence float64  `json:"confidence"`
		Reasons    []string `json:"reasons"`
	}
	if err := json.Unmarshal([]byte(extractJSONValue(raw)), &parsed); err != nil {
		return domain.AIClassification{}, fmt.Errorf("parse classification json: %w", err)
	}
	if !domain.IsKnownLabel(parsed.Label) {
		return domain.AIClassification{}, fmt.Errorf("label %q outside vocabulary", parsed.Label)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return domain.AIClassification{}, fmt.Errorf("confidence %v out of range", parsed.Confidence)
	}
	if parsed.Reasons == nil {
		parsed.Reasons = []string{}
	}
	return domain.AIClassification{
		Label:      parsed.Label,
		Confidence: parsed.Confidence,
		Reasons:    parsed.Reasons,
	}, nil
}

func failedClosed() domain.AIClassification {
	return domain.AIClassification{
		Label:      domain.LabelUnknown,
		Confidence: 0,
		Reasons:    []string{},
	}
}
