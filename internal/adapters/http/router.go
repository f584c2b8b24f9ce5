package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
	"github.com/OpenPecha/translation-workflow/internal/observability/metrics"
)

const (
	serviceName         = "api"
	defaultMaxBodyBytes = 16 << 20
)

type RouterOptions struct {
	Metrics *metrics.HTTPServerMetrics
	Logger  *slog.Logger

	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
	MaxBodyBytes     int64
}

type Router struct {
	submitter ports.BatchSubmitter
	results   ports.ResultReader
	opts      RouterOptions
	logger    *slog.Logger
}

func NewRouter(submitter ports.BatchSubmitter, results ports.ResultReader, opts RouterOptions) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Router{
		submitter: submitter,
		results:   results,
		opts:      opts,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/batches", rt.submitBatch)
	api.HandleFunc("GET /v1/documents/{id}", rt.getDocumentResult)

	var limited http.Handler = api
	if rt.opts.MaxInFlight > 0 {
		limited = backpressureMiddleware(limited, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	}
	if rt.opts.RateLimitRPS > 0 {
		limited = rateLimitMiddleware(limited, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("/v1/", limited)
	if rt.opts.Metrics != nil {
		mux.Handle("GET /metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitBatchRequest struct {
	Documents []domain.Document `json:"documents"`
}

type submitBatchResponse struct {
	BatchID     string    `json:"batch_id"`
	DocumentIDs []string  `json:"document_ids"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (rt *Router) submitBatch(w http.ResponseWriter, r *http.Request) {
	var req submitBatchRequest
	body := http.MaxBytesReader(w, r.Body, rt.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	batch, err := rt.submitter.Submit(r.Context(), req.Documents)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordSubmission(serviceName, len(batch.Documents))
	}

	ids := make([]string, 0, len(batch.Documents))
	for _, doc := range batch.Documents {
		ids = append(ids, doc.ID)
	}
	writeJSON(w, http.StatusAccepted, submitBatchResponse{
		BatchID:     batch.ID,
		DocumentIDs: ids,
		SubmittedAt: batch.SubmittedAt,
	})
}

func (rt *Router) getDocumentResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	result, err := rt.results.GetResult(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.ErrorContext(r.Context(), "request failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
