// Package fieldmatch locates form-field labels inside detected text blocks
// and derives the position of the input field that belongs to each label.
package fieldmatch

import (
	"strings"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// The target form family places the input beside or just under its label,
// so the overlay input sits a fixed offset right of the label's box and
// slightly above its baseline.
const (
	inputOffsetX = 10
	inputOffsetY = 2
)

// Translated overlay boxes replace the label text left of the input.
const (
	overlayOffsetX = 100
	overlayOffsetY = 5
	overlayWidth   = 90
	overlayHeight  = 15
)

// Match finds, for every expected label, the first text block in document
// order whose text contains the label or is contained by it. OCR output
// may truncate or pad labels, hence the directional substring match.
// Unmatched labels are reported as such and never guessed.
func Match(blocks []domain.TextBlock, labels []string) []domain.FieldMatch {
	out := make([]domain.FieldMatch, 0, len(labels))
	for _, label := range labels {
		out = append(out, matchLabel(blocks, label))
	}
	return out
}

func matchLabel(blocks []domain.TextBlock, label string) domain.FieldMatch {
	want := normalize(label)
	if want == "" {
		return domain.FieldMatch{Label: label}
	}

	// First block in document order wins: stable and sufficient because
	// label text is normally unique per page.
	for i := range blocks {
		got := normalize(blocks[i].Text)
		if got == "" {
			continue
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			block := blocks[i]
			return domain.FieldMatch{
				Label:   label,
				Matched: true,
				Block:   &block,
				Page:    block.Page,
				InputX:  block.X2 + inputOffsetX,
				InputY:  block.Y1 - inputOffsetY,
			}
		}
	}
	return domain.FieldMatch{Label: label}
}

// Overlay places a translated label text relative to its matched input
// position.
func Overlay(match domain.FieldMatch, translated string) domain.TranslatedText {
	conf := 0.0
	if match.Block != nil {
		conf = match.Block.Confidence
	}
	return domain.TranslatedText{
		Text:         translated,
		OriginalText: match.Label,
		X:            match.InputX - overlayOffsetX,
		Y:            match.InputY + overlayOffsetY,
		Width:        overlayWidth,
		Height:       overlayHeight,
		Confidence:   conf,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
