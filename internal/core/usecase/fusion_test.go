package usecase

import (
	"testing"

	"github.com/sevenpast/docintake/internal/core/domain"
)

func TestNeedsAIGateBoundary(t *testing.T) {
	tests := []struct {
		score float64
		want  bool
	}{
		{0.84, true},
		{0.85, false},
		{0.86, false},
		{0.0, true},
	}
	for _, tc := range tests {
		got := NeedsAI(domain.Candidate{Score: tc.score})
		if got != tc.want {
			t.Fatalf("NeedsAI(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestFusePicksHighestScore(t *testing.T) {
	heur := domain.Candidate{Label: domain.LabelUnknown, Score: 0.2, Source: "heuristic:pdf"}
	ai := domain.Candidate{Label: "invoice", Score: 0.9, Source: "ai"}

	best := Fuse(heur, ai)
	if best.Label != "invoice" || best.Source != "ai" {
		t.Fatalf("expected ai candidate to win, got %+v", best)
	}
}

func TestFuseTieKeepsEarlierCandidate(t *testing.T) {
	heur := domain.Candidate{Label: "receipt", Score: 0.8, Source: "heuristic:receipt_word"}
	ai := domain.Candidate{Label: "invoice", Score: 0.8, Source: "ai"}

	best := Fuse(heur, ai)
	if best.Source != "heuristic:receipt_word" {
		t.Fatalf("tie must keep the first candidate, got %+v", best)
	}
}

func TestNeedsReviewBoundary(t *testing.T) {
	tests := []struct {
		score float64
		want  bool
	}{
		{0.74, true},
		{0.75, false},
		{0.95, false},
	}
	for _, tc := range tests {
		if got := NeedsReview(tc.score); got != tc.want {
			t.Fatalf("NeedsReview(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestReviewReasonFormat(t *testing.T) {
	if got := ReviewReason(0.6); got != "low_confidence:0.6" {
		t.Fatalf("ReviewReason(0.6) = %q", got)
	}
	if got := ReviewReason(0.3); got != "low_confidence:0.3" {
		t.Fatalf("ReviewReason(0.3) = %q", got)
	}
}
