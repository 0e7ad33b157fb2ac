package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/pdfrag/internal/logger"
	healthuc "github.com/kailas-cloud/pdfrag/internal/usecase/health"
)

// Upload stores the multipart "files" parts that look like PDFs and ingests them
// as the new corpus.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	log := logpkg.FromContext(r.Context(), s.logger)

	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers, ok := r.MultipartForm.File["files"]
	if !ok {
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}

	saved := make([]string, 0, len(headers))
	for _, fh := range headers {
		if fh.Filename == "" || !allowedFile(fh.Filename) {
			continue
		}
		path, err := s.storeUpload(fh)
		if err != nil {
			log.Error("store upload", zap.String("filename", fh.Filename), zap.Error(err))
			continue
		}
		saved = append(saved, path)
	}

	if len(saved) == 0 {
		writeError(w, http.StatusBadRequest, "No valid PDF files uploaded")
		return
	}

	if !s.processor.ProcessDocuments(r.Context(), saved) {
		writeError(w, http.StatusInternalServerError, "Failed to process PDFs")
		return
	}

	forward := make([]string, len(saved))
	for i, p := range saved {
		forward[i] = strings.ReplaceAll(p, `\`, "/")
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Message:       fmt.Sprintf("Successfully processed %d PDF(s)", len(saved)),
		UploadedFiles: forward,
	})
}

// Chat answers a question over the selected documents.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == nil {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}
	if len(req.SelectedFiles) == 0 {
		writeError(w, http.StatusBadRequest, "Please select at least one file to chat with")
		return
	}

	endpoint := req.APIURL
	if endpoint == "" {
		endpoint = s.cfg.DefaultEndpoint
	}
	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	answer := s.chat.Chat(r.Context(), *req.Message, endpoint, model, req.SelectedFiles)
	writeJSON(w, http.StatusOK, chatResponse{Response: answer})
}

// GetPageCounts reports page counts; paths that do not exist map to 0.
func (s *Server) GetPageCounts(w http.ResponseWriter, r *http.Request) {
	var req pageCountsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FilePaths == nil {
		writeError(w, http.StatusBadRequest, "No file paths provided")
		return
	}

	counts := make(map[string]int, len(req.FilePaths))
	for _, p := range req.FilePaths {
		if _, err := os.Stat(p); err != nil {
			counts[p] = 0
			continue
		}
		counts[p] = s.pages.PageCount(p)
	}
	writeJSON(w, http.StatusOK, pageCountsResponse{PageCounts: counts})
}

// RemoveFile drops a document from the corpus. The file itself is deleted from
// disk only when it lives inside the upload directory.
func (s *Server) RemoveFile(w http.ResponseWriter, r *http.Request) {
	log := logpkg.FromContext(r.Context(), s.logger)

	var req removeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FilePath == nil {
		writeError(w, http.StatusBadRequest, "No file path provided")
		return
	}
	path := *req.FilePath

	if s.insideUploadDir(path) {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("remove uploaded file from disk", zap.String("path", path), zap.Error(err))
		}
	} else {
		log.Warn("refusing to delete file outside upload dir", zap.String("path", path))
	}

	if !s.processor.RemoveFile(r.Context(), path) {
		writeError(w, http.StatusInternalServerError, "Failed to remove file")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "File removed successfully"})
}

// SaveUploadedFiles merges client upload records into the ledger.
func (s *Server) SaveUploadedFiles(w http.ResponseWriter, r *http.Request) {
	var req saveUploadedFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UploadedFiles == nil {
		writeError(w, http.StatusBadRequest, "No uploaded files data provided")
		return
	}

	res := s.ledger.Save(req.UploadedFiles)
	if res.Err != nil {
		writeError(w, http.StatusInternalServerError, res.Err.Error())
		return
	}

	msg := fmt.Sprintf("Saved %d new files", res.Saved)
	if res.Duplicates > 0 {
		msg += fmt.Sprintf(", %d were duplicates", res.Duplicates)
	}
	msg += fmt.Sprintf(" (total: %d)", res.Total)

	writeJSON(w, http.StatusOK, saveUploadedFilesResponse{
		Message:    msg,
		Saved:      res.Saved,
		Duplicates: res.Duplicates,
		Total:      res.Total,
	})
}

// LoadUploadedFiles returns every ledger record.
func (s *Server) LoadUploadedFiles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, loadUploadedFilesResponse{UploadedFiles: s.ledger.Load()})
}

// GetConfig returns the completion defaults used when a chat request omits them.
func (s *Server) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		DefaultAPIURL: s.cfg.DefaultEndpoint,
		DefaultModel:  s.cfg.DefaultModel,
	})
}

// ServeUpload serves a stored file by its bare name.
func (s *Server) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	full := filepath.Join(s.cfg.UploadDir, name)
	if _, err := os.Stat(full); err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	http.ServeFile(w, r, full)
}

// HealthCheck reports component health; anything but ok is a 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status: string(report.Status),
		Checks: checks,
		Chunks: report.Chunks,
	})
}

func (s *Server) insideUploadDir(path string) bool {
	if s.cfg.UploadDir == "" {
		return false
	}
	root, err := filepath.Abs(s.cfg.UploadDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
