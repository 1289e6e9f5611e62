package usecase

import (
	"regexp"
	"strings"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// Cheap deterministic signals evaluated before any AI call. MRZ and IBAN
// shapes are matched against the raw text (both are uppercase by
// definition), keyword families against the lowercased text and filename.
var (
	mrzPattern  = regexp.MustCompile(`[A-Z0-9<]{2}[A-Z]{3}[A-Z0-9<]{9}[0-9][A-Z0-9<]{15}[0-9]`)
	ibanPattern = regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{1,30}\b`)

	passportWords = regexp.MustCompile(`passport|reisepass|passeport|passaporto`)
	idWords       = regexp.MustCompile(`identity|ausweis|identité|carta d'identità`)
	invoiceWords  = regexp.MustCompile(`invoice|rechnung|facture|fattura`)
	receiptWords  = regexp.MustCompile(`receipt|kassenbon|bon|ticket de caisse`)
	contractWords = regexp.MustCompile(`contract|vertrag|contrat|contratto`)
	resumeWords   = regexp.MustCompile(`resume|cv|curriculum|lebenslauf`)
	diplomaWords  = regexp.MustCompile(`diploma|zeugnis|zertifikat|certificate|schuldiplom|schulzeugnis`)
)

// ScoreHeuristic labels a document from extracted text, mime type and
// filename alone. Pure and deterministic; rules run in fixed priority
// order and the first hit wins. The returned source is "heuristic:<signal>".
func ScoreHeuristic(extractedText, mimeType, filename string) domain.Candidate {
	text := strings.ToLower(extractedText)
	fname := strings.ToLower(filename)

	switch {
	case mrzPattern.MatchString(extractedText):
		return heuristic("passport", 0.95, "mrz")
	case passportWords.MatchString(text) || strings.Contains(fname, "pass"):
		return heuristic("passport", 0.9, "passport_word")
	case idWords.MatchString(text) || strings.Contains(fname, "id"):
		return heuristic("id_card", 0.85, "id_word")
	case invoiceWords.MatchString(text) || strings.Contains(fname, "invoice"):
		return heuristic("invoice", 0.8, "invoice_word")
	case receiptWords.MatchString(text) || strings.Contains(fname, "receipt"):
		return heuristic("receipt", 0.8, "receipt_word")
	case contractWords.MatchString(text) || strings.Contains(fname, "contract"):
		return heuristic("contract", 0.8, "contract_word")
	case resumeWords.MatchString(text) || strings.Contains(fname, "cv") || strings.Contains(fname, "resume"):
		return heuristic("resume", 0.8, "resume_word")
	case diplomaWords.MatchString(text) || strings.Contains(fname, "diplom") ||
		strings.Contains(fname, "zeugnis") || strings.Contains(fname, "zertifikat"):
		return heuristic("diploma", 0.9, "diploma_word")
	case ibanPattern.MatchString(extractedText):
		return heuristic("bank_statement", 0.75, "iban")
	case strings.HasPrefix(mimeType, "image/"):
		return heuristic(domain.LabelUnknown, 0.3, "image")
	case mimeType == "application/pdf":
		return heuristic(domain.LabelUnknown, 0.2, "pdf")
	default:
		return heuristic(domain.LabelUnknown, 0.1, "none")
	}
}

func heuristic(label string, score float64, signal string) domain.Candidate {
	return domain.Candidate{Label: label, Score: score, Source: "heuristic:" + signal}
}
