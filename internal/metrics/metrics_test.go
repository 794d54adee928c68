package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.ObserveRoute("knowledge_base")
	m.ObserveRoute("knowledge_base")
	m.ObserveRoute("fallback")
	m.ObserveStage("knowledge", 10*time.Millisecond)
	m.ObserveToolCall("search_math_solution", "api_not_configured", time.Millisecond)
	m.ObserveFeedback(5)

	assert.InDelta(t, 2, testutil.ToFloat64(m.routes.WithLabelValues("knowledge_base")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.routes.WithLabelValues("fallback")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.toolCalls.WithLabelValues("search_math_solution", "api_not_configured")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.feedback.WithLabelValues("5")), 1e-9)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mathrouter_routes_total{source="knowledge_base"} 2`)
	assert.Contains(t, string(body), "mathrouter_stage_duration_seconds_bucket")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRoute("fallback")
		m.ObserveStage("search", time.Second)
		m.ObserveToolCall("t", "success", time.Second)
		m.ObserveFeedback(1)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
