package domain

import "time"

type DocumentStatus string

const (
	StatusQueued     DocumentStatus = "queued"
	StatusProcessing DocumentStatus = "processing"
	StatusDone       DocumentStatus = "done"
	StatusError      DocumentStatus = "error"
)

// Labels is the closed vocabulary the classifier is allowed to emit.
var Labels = []string{
	"passport", "id_card", "driver_license", "invoice", "receipt",
	"bank_statement", "payslip", "utility_bill", "contract", "resume",
	"diploma", "insurance_card", "tax_form", "unknown",
}

const LabelUnknown = "unknown"

func IsKnownLabel(label string) bool {
	for _, l := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

type Document struct {
	ID            string         `json:"id"`
	Filename      string         `json:"filename"`
	MimeType      string         `json:"mime_type"`
	StorageBucket string         `json:"storage_bucket"`
	StoragePath   string         `json:"storage_path"`
	Status        DocumentStatus `json:"status"`
	DocumentType  string         `json:"document_type,omitempty"`
	Confidence    float64        `json:"confidence,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Signals       *Signals       `json:"signals,omitempty"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Candidate is one classification guess with its provenance, e.g.
// source "heuristic:mrz" or "ai".
type Candidate struct {
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// AIClassification is the constrained answer of the multimodal model.
type AIClassification struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// Signals is the diagnostic payload persisted alongside the winning label.
type Signals struct {
	Heuristic Candidate         `json:"heuristic"`
	AI        *AIClassification `json:"ai,omitempty"`
	OCRLength int               `json:"ocr_length"`
}

// ClassificationResult is the terminal outcome written for a done document.
type ClassificationResult struct {
	DocumentType string
	Confidence   float64
	Tags         []string
	Signals      Signals
}

// ClassificationJob grants exclusive processing rights over one document.
// A non-null LockedAt means exactly one worker owns the job.
type ClassificationJob struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	LockedAt   *time.Time `json:"locked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ReviewQueueEntry flags a document for human follow-up. Append-only.
type ReviewQueueEntry struct {
	DocumentID string    `json:"document_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
