package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBatchMetricsTracksRunsAttemptsAndOutcomes(t *testing.T) {
	m := NewBatchMetrics("worker")

	m.StartDocument()
	m.StartDocument()
	if got := testutil.ToFloat64(m.documentInFlight); got != 2 {
		t.Fatalf("expected 2 in flight, got %v", got)
	}
	m.FinishDocument(2*time.Second, nil)
	m.FinishDocument(time.Second, errors.New("oracle down"))
	if got := testutil.ToFloat64(m.documentInFlight); got != 0 {
		t.Fatalf("expected 0 in flight, got %v", got)
	}
	if got := testutil.ToFloat64(m.documentTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}

	m.ObserveAttempt("batch", errors.New("transient"))
	m.ObserveAttempt("batch", nil)
	m.ObserveAttempt("individual", nil)
	if got := testutil.ToFloat64(m.attemptTotal.WithLabelValues("worker", "batch", "error")); got != 1 {
		t.Fatalf("expected 1 failed batch attempt, got %v", got)
	}
	if got := testutil.ToFloat64(m.attemptTotal.WithLabelValues("worker", "individual", "success")); got != 1 {
		t.Fatalf("expected 1 successful individual attempt, got %v", got)
	}

	m.ObserveOutcome("accepted")
	m.ObserveOutcome("accepted")
	m.ObserveOutcome("")
	if got := testutil.ToFloat64(m.outcomeTotal.WithLabelValues("worker", "accepted")); got != 2 {
		t.Fatalf("expected 2 accepted outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.outcomeTotal.WithLabelValues("worker", "unknown")); got != 1 {
		t.Fatalf("expected unknown outcome label, got %v", got)
	}

	m.ObserveQueueLag(-time.Second)
	if got := testutil.CollectAndCount(m.queueLag); got != 0 {
		t.Fatalf("negative lag should be ignored, got %d series", got)
	}
}

func TestHTTPMiddlewareNormalizesDocumentPaths(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents/"+id, nil))
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/v1/documents/{document_id}", "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests on normalized path, got %v", got)
	}

	m.RecordSubmission("api", 3)
	m.RecordSubmission("api", 0)
	if got := testutil.ToFloat64(m.submittedDocuments.WithLabelValues("api")); got != 3 {
		t.Fatalf("expected 3 submitted documents, got %v", got)
	}
}
