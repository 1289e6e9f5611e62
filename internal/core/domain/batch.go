package domain

import "time"

type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

type BatchFileStatus string

const (
	FilePending    BatchFileStatus = "pending"
	FileProcessing BatchFileStatus = "processing"
	FileCompleted  BatchFileStatus = "completed"
	FileFailed     BatchFileStatus = "failed"
)

// BatchFileInput is one submitted file with its raw content.
type BatchFileInput struct {
	Name     string
	MimeType string
	Data     []byte
}

type BatchFile struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Size     int64           `json:"size"`
	MimeType string          `json:"mime_type"`
	Status   BatchFileStatus `json:"status"`
	Error    string          `json:"error,omitempty"`
}

// BatchResult is the per-file outcome; partial success is first-class,
// so failed files get a result too, with Success=false.
type BatchResult struct {
	FileID           string           `json:"file_id"`
	FileName         string           `json:"file_name"`
	Success          bool             `json:"success"`
	DetectedFields   []FieldMatch     `json:"detected_fields"`
	TranslatedTexts  []TranslatedText `json:"translated_texts"`
	ProcessingTimeMS int64            `json:"processing_time_ms"`
	Confidence       float64          `json:"confidence"`
	Error            string           `json:"error,omitempty"`
}

type BatchJob struct {
	ID          string        `json:"id"`
	Status      BatchStatus   `json:"status"`
	Files       []*BatchFile  `json:"files"`
	Progress    float64       `json:"progress"`
	Results     []BatchResult `json:"results"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// TerminalFiles counts files that reached completed or failed.
func (j *BatchJob) TerminalFiles() int {
	n := 0
	for _, f := range j.Files {
		if f.Status == FileCompleted || f.Status == FileFailed {
			n++
		}
	}
	return n
}

type BatchOptions struct {
	EnableOCR          bool     `json:"enable_ocr"`
	EnableLayout       bool     `json:"enable_layout"`
	EnableTranslation  bool     `json:"enable_translation"`
	TargetLanguage     string   `json:"target_language"`
	FieldLabels        []string `json:"field_labels"`
	MaxConcurrentFiles int      `json:"max_concurrent_files"`
}
