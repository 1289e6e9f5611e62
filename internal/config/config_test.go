package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIncludesPipelineDefaults(t *testing.T) {
	t.Setenv("NATS_SUBJECT", "")
	t.Setenv("STORAGE_BUCKET", "")
	t.Setenv("BATCH_MAX_CONCURRENT", "")
	t.Setenv("BATCH_FILE_WORKERS", "")
	t.Setenv("GEMINI_MAX_RPS", "")
	t.Setenv("CONFIG_FILE", "")

	cfg := Load()
	if cfg.NATSSubject != "documents.classify" {
		t.Fatalf("expected default nats subject documents.classify, got %q", cfg.NATSSubject)
	}
	if cfg.StorageBucket != "documents" {
		t.Fatalf("expected default storage bucket documents, got %q", cfg.StorageBucket)
	}
	if cfg.BatchMaxConcurrent != 3 {
		t.Fatalf("expected default batch max concurrent 3, got %d", cfg.BatchMaxConcurrent)
	}
	if cfg.BatchFileWorkers != 3 {
		t.Fatalf("expected default batch file workers 3, got %d", cfg.BatchFileWorkers)
	}
	if cfg.GeminiMaxRPS != 2 {
		t.Fatalf("expected default gemini max rps 2, got %v", cfg.GeminiMaxRPS)
	}
	if !cfg.Batch.EnableOCR {
		t.Fatal("expected batch defaults to enable ocr")
	}
	if cfg.Batch.TargetLanguage != "en" {
		t.Fatalf("expected default batch target language en, got %q", cfg.Batch.TargetLanguage)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("BATCH_MAX_CONCURRENT", "5")
	t.Setenv("GEMINI_MAX_RPS", "0.5")
	t.Setenv("WORKER_POLL_INTERVAL_SECONDS", "2")
	t.Setenv("CONFIG_FILE", "")

	cfg := Load()
	if cfg.BatchMaxConcurrent != 5 {
		t.Fatalf("expected batch max concurrent 5, got %d", cfg.BatchMaxConcurrent)
	}
	if cfg.GeminiMaxRPS != 0.5 {
		t.Fatalf("expected gemini max rps 0.5, got %v", cfg.GeminiMaxRPS)
	}
	if cfg.WorkerPollIntervalSecs != 2 {
		t.Fatalf("expected worker poll interval 2, got %d", cfg.WorkerPollIntervalSecs)
	}
}

func TestLoadAppliesBatchOverlayFile(t *testing.T) {
	overlay := `batch:
  enable_ocr: true
  enable_layout: true
  enable_translation: true
  target_language: de
  field_labels:
    - Vorname
    - Nachname
  max_concurrent_files: 4
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg := Load()
	if !cfg.Batch.EnableLayout || !cfg.Batch.EnableTranslation {
		t.Fatal("expected overlay to enable layout and translation")
	}
	if cfg.Batch.TargetLanguage != "de" {
		t.Fatalf("expected target language de, got %q", cfg.Batch.TargetLanguage)
	}
	if len(cfg.Batch.FieldLabels) != 2 || cfg.Batch.FieldLabels[0] != "Vorname" {
		t.Fatalf("expected overlay field labels, got %v", cfg.Batch.FieldLabels)
	}
	if cfg.Batch.MaxConcurrentFiles != 4 {
		t.Fatalf("expected max concurrent files 4, got %d", cfg.Batch.MaxConcurrentFiles)
	}
}

func TestLoadIgnoresMissingOverlayFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if !cfg.Batch.EnableOCR {
		t.Fatal("expected built-in batch defaults when overlay is missing")
	}
}
