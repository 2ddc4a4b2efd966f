package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordUpload(UploadOutcomeStored)
	m.RecordUpload(UploadOutcomeStored)
	m.RecordUpload(UploadOutcomeLimited)
	m.RecordPayment("Pro")
	m.RecordAnalysis(66.67)
	m.RecordSideEffect("dataset_reference_sync", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues(UploadOutcomeStored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues(UploadOutcomeLimited)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments.WithLabelValues("Pro")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sideEffects.WithLabelValues("dataset_reference_sync", "false")))
}

func TestMetricsServiceHandlerExposesHTTPMetrics(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/health", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/api/health",status="200"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordUpload(UploadOutcomeStored)
		m.RecordAnalysis(10)
		m.RecordCacheOperation(true, time.Millisecond)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
