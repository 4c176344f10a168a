/* server_test.go
 * Contains unit tests for models.go and routes.go - server construction, the route table and its middleware
 */

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// region Server tests

func TestNewServer_DefaultLogger(t *testing.T) {
	s := NewServer(Config{Addr: ":3000"})

	require.NotNil(t, s.log)
	assert.Nil(t, s.api)
	assert.Nil(t, s.metrics)
}

func TestHandler_Health(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestHandler_WithoutMetrics(t *testing.T) {
	s := NewServer(Config{})
	h := s.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(httptest.NewRequest(http.MethodPut, "/stages/stage1/grade", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// endregion

// region metrics middleware

func TestHandler_RecordsRequestsByPattern(t *testing.T) {
	ts := newTestServer(t)

	ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	ts.do(httptest.NewRequest(http.MethodDelete, "/stages/stage1/failed/a@x.com", nil))
	ts.do(httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	families, err := ts.metrics.Registry().Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			counts[labels["path"]+" "+labels["status"]] = m.GetCounter().GetValue()
		}
	}

	assert.Len(t, counts, 3)
	assert.Equal(t, 2.0, counts["GET /healthz 200"])
	assert.Equal(t, 1.0, counts["DELETE /stages/{stage}/{bucket}/{email} 404"])
	assert.Equal(t, 1.0, counts["unmatched 404"])
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="GET /healthz",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "grader_browser_active_pages 0")
}

// endregion
