// Package httpadapter exposes the intake pipeline over HTTP: single
// document upload and retrieval, re-enqueue, bulk batch processing with
// progress and report download, and stateless form-field matching.
package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sevenpast/docintake/internal/core/domain"
	"github.com/sevenpast/docintake/internal/core/fieldmatch"
	"github.com/sevenpast/docintake/internal/core/ports"
)

const maxBatchUploadBytes = 256 << 20

type Router struct {
	intake  ports.DocumentIntake
	docs    ports.DocumentRepository
	batches ports.BatchService

	defaultBatchOptions domain.BatchOptions
}

func NewRouter(
	intake ports.DocumentIntake,
	docs ports.DocumentRepository,
	batches ports.BatchService,
	defaultBatchOptions domain.BatchOptions,
) *Router {
	return &Router{
		intake:              intake,
		docs:                docs,
		batches:             batches,
		defaultBatchOptions: defaultBatchOptions,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.documentSubtree)
	mux.HandleFunc("/v1/batches", rt.submitBatch)
	mux.HandleFunc("/v1/batches/", rt.batchSubtree)
	mux.HandleFunc("/v1/fieldmatch", rt.matchFields)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.intake.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

// documentSubtree routes /v1/documents/{id} and
// /v1/documents/{id}/reprocess.
func (rt *Router) documentSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch action {
	case "":
		rt.getDocumentByID(w, r, id)
	case "reprocess":
		rt.reprocessDocument(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) reprocessDocument(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := rt.intake.Reprocess(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"document_id": id,
		"status":      string(domain.StatusQueued),
	})
}

func (rt *Router) submitBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(maxBatchUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	opts := rt.defaultBatchOptions
	if raw := r.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid options json"})
			return
		}
	}

	files := make([]domain.BatchFileInput, 0, len(headers))
	for _, fh := range headers {
		input, err := readBatchFile(fh)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("read file %q: %v", fh.Filename, err),
			})
			return
		}
		files = append(files, input)
	}

	batchID, err := rt.batches.Submit(r.Context(), files, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"batch_id": batchID,
		"status":   string(domain.BatchPending),
	})
}

func readBatchFile(fh *multipart.FileHeader) (domain.BatchFileInput, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.BatchFileInput{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.BatchFileInput{}, err
	}
	return domain.BatchFileInput{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

// batchSubtree routes /v1/batches/{id}, /v1/batches/{id}/results and
// /v1/batches/{id}/report.
func (rt *Router) batchSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/batches/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch id is required"})
		return
	}

	switch action {
	case "":
		job, err := rt.batches.Status(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	case "results":
		results, err := rt.batches.Results(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batch_id": id, "results": results})
	case "report":
		report, err := rt.batches.Report(id)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "batch_"+id+".xlsx"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(report)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

// matchFields is the stateless label-to-position endpoint: callers supply
// the detected text blocks and the expected labels and get back the input
// placements without running a batch.
func (rt *Router) matchFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Blocks []domain.TextBlock `json:"blocks"`
		Labels []string           `json:"labels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Labels) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "labels are required"})
		return
	}

	matches := fieldmatch.Match(req.Blocks, req.Labels)
	writeJSON(w, http.StatusOK, map[string]any{"fields": matches})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
