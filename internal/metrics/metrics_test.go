package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAI(t *testing.T) {
	okBefore := testutil.ToFloat64(AIRequests.WithLabelValues("polish", "ok"))
	errBefore := testutil.ToFloat64(AIRequests.WithLabelValues("polish", "error"))

	ObserveAI("polish", time.Now(), nil)
	ObserveAI("polish", time.Now(), errors.New("boom"))
	ObserveAI("polish", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(AIRequests.WithLabelValues("polish", "ok")) - okBefore; got != 1 {
		t.Errorf("ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(AIRequests.WithLabelValues("polish", "error")) - errBefore; got != 2 {
		t.Errorf("error delta = %v, want 2", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	EntriesSaved.WithLabelValues("created").Inc()
	ObserveAI("classify", time.Now(), nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"lumina_entries_saved_total", "lumina_ai_requests_total", "lumina_ai_request_duration_seconds"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
