// Package chi is the HTTP API of scifinder: article ingestion, file upload,
// semantic search, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/domain/article"
	"github.com/kailas-cloud/scifinder/internal/domain/search/request"
	"github.com/kailas-cloud/scifinder/internal/domain/search/result"
	"github.com/kailas-cloud/scifinder/internal/logger"
	"github.com/kailas-cloud/scifinder/internal/metrics"
	"github.com/kailas-cloud/scifinder/internal/normalizer"
	healthuc "github.com/kailas-cloud/scifinder/internal/usecase/health"
	"github.com/kailas-cloud/scifinder/internal/version"
)

// uploadField is the multipart form field carrying the uploaded file.
const uploadField = "file"

// Ingester adds single articles to the index.
type Ingester interface {
	IngestArticle(ctx context.Context, in normalizer.Input) (article.Document, error)
	IngestUpload(ctx context.Context, filename string, data []byte) (article.Document, error)
}

// Searcher runs semantic search.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
	NumCandidates() int
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Options tunes request handling.
type Options struct {
	DefaultTopK    int
	MaxUploadBytes int64
	APIKeys        []string
}

// Server serves the scifinder HTTP API.
type Server struct {
	ingest Ingester
	search Searcher
	health HealthChecker
	opts   Options
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(ingest Ingester, search Searcher, health HealthChecker, opts Options, logger *zap.Logger) *Server {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = request.DefaultTopK
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{ingest: ingest, search: search, health: health, opts: opts, logger: logger}
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(BearerAuthMiddleware(s.opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/ingest", s.IngestArticle)
	r.Post("/upload", s.UploadFile)
	r.Post("/search", s.SearchArticles)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})
	return r
}

// IngestArticle handles POST /ingest.
func (s *Server) IngestArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc, err := s.ingest.IngestArticle(r.Context(), req.toInput())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Status:  "success",
		Message: fmt.Sprintf("Article '%s' added.", req.Title),
		ID:      doc.ID(),
	})
}

// UploadFile handles POST /upload (multipart, field "file").
func (s *Server) UploadFile(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.opts.MaxUploadBytes {
		s.writeTooLarge(w)
		return
	}
	// multipart errors do not wrap *http.MaxBytesError, so the limit is tracked on the body itself
	body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)}
	r.Body = body
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		s.writeUploadError(w, body, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("multipart field %q is required", uploadField))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeUploadError(w, body, err)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "uploaded file is empty")
		return
	}

	doc, err := s.ingest.IngestUpload(r.Context(), hdr.Filename, data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Status:  "success",
		Message: fmt.Sprintf("File '%s' added.", hdr.Filename),
		ID:      doc.ID(),
	})
}

func (s *Server) writeUploadError(w http.ResponseWriter, body *limitedBody, err error) {
	var tooLarge *http.MaxBytesError
	if body.exceeded || errors.As(err, &tooLarge) {
		s.writeTooLarge(w)
		return
	}
	writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid multipart body: "+err.Error())
}

func (s *Server) writeTooLarge(w http.ResponseWriter) {
	writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge,
		fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes))
}

// limitedBody remembers whether the wrapped MaxBytesReader hit its limit.
type limitedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}
	return n, err
}

// SearchArticles handles POST /search.
func (s *Server) SearchArticles(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query must not be empty")
		return
	}
	if body.TopK != nil && *body.TopK <= 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be a positive integer")
		return
	}

	req, err := request.New(body.toParams(), s.opts.DefaultTopK, s.search.NumCandidates())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logger.FromContext(r.Context(), s.logger).Debug("Search served",
		zap.Int("top_k", req.TopK()),
		zap.Int("results", len(results)),
	)
	writeJSON(w, http.StatusOK, resultsToDTO(results))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:   string(report.Status),
		Provider: report.Provider,
		Version:  version.Version,
		Commit:   version.Commit,
		Checks:   checks,
	})
}

// writeJSON encodes before writing the status, so an unencodable value
// becomes a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Code: codeInternalError, Message: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
