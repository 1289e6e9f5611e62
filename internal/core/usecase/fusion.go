package usecase

import (
	"strconv"

	"github.com/sevenpast/docintake/internal/core/domain"
)

const (
	// aiGateThreshold gates the expensive model call: the AI classifier
	// runs only when the heuristic score stays below it.
	aiGateThreshold = 0.85
	// reviewThreshold flags low-confidence winners for human review.
	reviewThreshold = 0.75
)

// NeedsAI reports whether the heuristic candidate is inconclusive enough
// to justify an AI call.
func NeedsAI(heuristic domain.Candidate) bool {
	return heuristic.Score < aiGateThreshold
}

// Fuse picks the winning candidate: highest score wins, ties keep the
// earlier-listed candidate. Callers list the heuristic candidate first,
// so on equal scores the cheap signal is trusted over the AI answer.
func Fuse(candidates ...domain.Candidate) domain.Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best
}

// NeedsReview reports whether the winning score warrants a review entry.
// Review is advisory; classification is never blocked on it.
func NeedsReview(score float64) bool {
	return score < reviewThreshold
}

// ReviewReason formats the review-queue reason for a low-confidence win.
func ReviewReason(score float64) string {
	return "low_confidence:" + strconv.FormatFloat(score, 'g', -1, 64)
}
