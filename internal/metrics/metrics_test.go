package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.RecordRescore(3, nil)
	r.RecordSeasonClose(errors.New("x"))
	r.RecordReconcile("created", 2)
	r.SetPendingRescore(1)
	r.RecordHTTPRequest(http.MethodGet, "/api/standings", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRecorderCounters(t *testing.T) {
	r := NewRecorder()
	r.RecordRescore(4, nil)
	r.RecordRescore(0, errors.New("db down"))
	r.RecordSeasonClose(nil)
	r.RecordReconcile("updated", 3)
	r.RecordReconcile("created", 0)

	if got := testutil.ToFloat64(r.rescores.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok rescores = %v", got)
	}
	if got := testutil.ToFloat64(r.rescores.WithLabelValues("error")); got != 1 {
		t.Errorf("failed rescores = %v", got)
	}
	if got := testutil.ToFloat64(r.rescoredRows); got != 4 {
		t.Errorf("rescored rows = %v", got)
	}
	if got := testutil.ToFloat64(r.seasonCloses.WithLabelValues("ok")); got != 1 {
		t.Errorf("season closes = %v", got)
	}
	if got := testutil.ToFloat64(r.reconciled.WithLabelValues("updated")); got != 3 {
		t.Errorf("reconciled updated = %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.RecordHTTPRequest(http.MethodGet, "/api/standings", 200, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `league_http_requests_total{method="GET",route="/api/standings",status="200"} 1`) {
		t.Fatalf("request counter missing:\n%s", body)
	}
}
