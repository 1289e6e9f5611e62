package usecase

import (
	"strings"
	"testing"

	"github.com/sevenpast/docintake/internal/core/domain"
)

const mrzSample = "ABCDEFGHIJKLMN1ABCDEFGHIJKLMNO2"

func TestScoreHeuristicRules(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		mimeType  string
		filename  string
		wantLabel string
		wantScore float64
		wantSrc   string
	}{
		{
			name:      "mrz wins over everything",
			text:      "passport " + mrzSample,
			mimeType:  "image/jpeg",
			filename:  "scan.jpg",
			wantLabel: "passport",
			wantScore: 0.95,
			wantSrc:   "heuristic:mrz",
		},
		{
			name:      "passport word in text",
			text:      "Schweizer Reisepass Nr. X1234567",
			mimeType:  "application/pdf",
			filename:  "scan.jpg",
			wantLabel: "passport",
			wantScore: 0.9,
			wantSrc:   "heuristic:passport_word",
		},
		{
			name:      "passport hint in filename only",
			text:      "",
			mimeType:  "image/jpeg",
			filename:  "Pass_Kopie.jpg",
			wantLabel: "passport",
			wantScore: 0.9,
			wantSrc:   "heuristic:passport_word",
		},
		{
			name:      "identity words",
			text:      "Ausweis der Gemeinde",
			mimeType:  "image/jpeg",
			filename:  "scan.jpg",
			wantLabel: "id_card",
			wantScore: 0.85,
			wantSrc:   "heuristic:id_word",
		},
		{
			name:      "invoice words",
			text:      "Rechnung Nr. 42",
			mimeType:  "application/pdf",
			filename:  "scan.jpg",
			wantLabel: "invoice",
			wantScore: 0.8,
			wantSrc:   "heuristic:invoice_word",
		},
		{
			name:      "receipt words",
			text:      "Kassenbon Migros",
			mimeType:  "image/jpeg",
			filename:  "scan.jpg",
			wantLabel: "receipt",
			wantScore: 0.8,
			wantSrc:   "heuristic:receipt_word",
		},
		{
			name:      "contract words",
			text:      "Arbeitsvertrag zwischen den Parteien",
			mimeType:  "application/pdf",
			filename:  "scan.jpg",
			wantLabel: "contract",
			wantScore: 0.8,
			wantSrc:   "heuristic:contract_word",
		},
		{
			name:      "resume hint in filename",
			text:      "",
			mimeType:  "application/pdf",
			filename:  "mueller_cv.pdf",
			wantLabel: "resume",
			wantScore: 0.8,
			wantSrc:   "heuristic:resume_word",
		},
		{
			name:      "diploma words",
			text:      "Schulzeugnis Sommersemester",
			mimeType:  "application/pdf",
			filename:  "scan.jpg",
			wantLabel: "diploma",
			wantScore: 0.9,
			wantSrc:   "heuristic:diploma_word",
		},
		{
			name:      "iban shape",
			text:      "Kontoauszug IBAN CH9300762011623852957",
			mimeType:  "application/pdf",
			filename:  "scan.jpg",
			wantLabel: "bank_statement",
			wantScore: 0.75,
			wantSrc:   "heuristic:iban",
		},
		{
			name:      "image fallback",
			text:      "",
			mimeType:  "image/png",
			filename:  "photo.png",
			wantLabel: domain.LabelUnknown,
			wantScore: 0.3,
			wantSrc:   "heuristic:image",
		},
		{
			name:      "pdf fallback",
			text:      "",
			mimeType:  "application/pdf",
			filename:  "unnamed.pdf",
			wantLabel: domain.LabelUnknown,
			wantScore: 0.2,
			wantSrc:   "heuristic:pdf",
		},
		{
			name:      "generic fallback",
			text:      "",
			mimeType:  "application/octet-stream",
			filename:  "unnamed.bin",
			wantLabel: domain.LabelUnknown,
			wantScore: 0.1,
			wantSrc:   "heuristic:none",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreHeuristic(tc.text, tc.mimeType, tc.filename)
			if got.Label != tc.wantLabel {
				t.Fatalf("label = %q, want %q", got.Label, tc.wantLabel)
			}
			if got.Score != tc.wantScore {
				t.Fatalf("score = %v, want %v", got.Score, tc.wantScore)
			}
			if got.Source != tc.wantSrc {
				t.Fatalf("source = %q, want %q", got.Source, tc.wantSrc)
			}
		})
	}
}

// MRZ and IBAN shapes are defined over uppercase characters; both must be
// matched against the raw text, not the lowercased copy used for keywords.
func TestScoreHeuristicMatchesUppercasePatternsOnRawText(t *testing.T) {
	got := ScoreHeuristic(mrzSample, "image/jpeg", "scan.jpg")
	if got.Source != "heuristic:mrz" {
		t.Fatalf("expected mrz match on raw text, got %q", got.Source)
	}

	lowered := strings.ToLower("IBAN DE89370400440532013000")
	got = ScoreHeuristic(lowered, "application/pdf", "scan.jpg")
	if got.Source == "heuristic:iban" {
		t.Fatalf("iban shape must not match lowercased text")
	}
}

func TestScoreHeuristicPriorityOrder(t *testing.T) {
	// Passport and invoice words both present: the passport rule runs first.
	got := ScoreHeuristic("Reisepass und Rechnung", "application/pdf", "scan.jpg")
	if got.Label != "passport" {
		t.Fatalf("expected passport to win priority, got %q", got.Label)
	}
}
