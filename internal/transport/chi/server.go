package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfrag/internal/domain"
	"github.com/kailas-cloud/pdfrag/internal/metrics"
	healthuc "github.com/kailas-cloud/pdfrag/internal/usecase/health"
)

// Processor ingests and removes documents.
type Processor interface {
	ProcessDocuments(ctx context.Context, paths []string) bool
	RemoveFile(ctx context.Context, path string) bool
}

// Chatter answers questions over the indexed documents.
type Chatter interface {
	Chat(ctx context.Context, message, endpoint, model string, selectedPaths []string) domain.Answer
}

// PageCounter reports PDF page counts.
type PageCounter interface {
	PageCount(path string) int
}

// Ledger stores upload records.
type Ledger interface {
	Save(records []domain.UploadRecord) domain.LedgerSaveResult
	Load() []domain.UploadRecord
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Config holds HTTP-facing settings.
type Config struct {
	UploadDir       string
	MaxUploadBytes  int64
	DefaultEndpoint string
	DefaultModel    string
}

// Server serves the document chat API.
type Server struct {
	cfg       Config
	processor Processor
	chat      Chatter
	pages     PageCounter
	ledger    Ledger
	health    HealthChecker
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	cfg Config,
	processor Processor,
	chat Chatter,
	pages PageCounter,
	ledger Ledger,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		processor: processor,
		chat:      chat,
		pages:     pages,
		ledger:    ledger,
		health:    health,
		logger:    logger,
	}
}

// Routes builds the chi router with the standard middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/upload", s.Upload)
	r.Post("/chat", s.Chat)
	r.Post("/get_page_counts", s.GetPageCounts)
	r.Post("/remove_file", s.RemoveFile)
	r.Post("/save_uploaded_files", s.SaveUploadedFiles)
	r.Get("/load_uploaded_files", s.LoadUploadedFiles)
	r.Get("/get_config", s.GetConfig)
	r.Get("/uploads/{filename}", s.ServeUpload)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
