package observability

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/donation-relay/internal/domain"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status    int
		transport bool
		want      string
	}{
		{status: 200, want: "2xx"},
		{status: 204, want: "2xx"},
		{status: 302, want: "3xx"},
		{status: 402, want: "4xx"},
		{status: 503, want: "5xx"},
		{status: 500, transport: true, want: "local"},
		{status: 0, want: "other"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusClass(tt.status, tt.transport))
	}
}

func TestRecordRelayRequest(t *testing.T) {
	before := testutil.ToFloat64(relayRequestsTotal.WithLabelValues(OutcomeValidationError))

	RecordRelayRequest(OutcomeValidationError, 0.002)

	after := testutil.ToFloat64(relayRequestsTotal.WithLabelValues(OutcomeValidationError))
	assert.Equal(t, before+1, after)
}

func TestRecordGatewayResponse(t *testing.T) {
	before := testutil.ToFloat64(relayGatewayResponsesTotal.WithLabelValues("4xx"))
	localBefore := testutil.ToFloat64(relayGatewayResponsesTotal.WithLabelValues("local"))

	RecordGatewayResponse(402, false)
	RecordGatewayResponse(500, true)

	assert.Equal(t, before+1, testutil.ToFloat64(relayGatewayResponsesTotal.WithLabelValues("4xx")))
	assert.Equal(t, localBefore+1, testutil.ToFloat64(relayGatewayResponsesTotal.WithLabelValues("local")))
}

func TestRecordForwardedAmount(t *testing.T) {
	counter := relayAmountCents.WithLabelValues("USD", "true")
	before := testutil.ToFloat64(counter)

	RecordForwardedAmount("USD", true, 2500)
	assert.Equal(t, before+2500, testutil.ToFloat64(counter))

	assert.NotPanics(t, func() {
		RecordForwardedAmount("USD", true, -1)
		RecordForwardedAmount("USD", true, math.NaN())
		RecordForwardedAmount("USD", true, math.Inf(1))
	})
	assert.Equal(t, before+2500, testutil.ToFloat64(counter))
}

func TestHealthChecker_Healthy(t *testing.T) {
	checker := NewHealthChecker(map[string]CheckFunc{
		"gateway_config": func(ctx context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	checker.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["gateway_config"])
}

func TestHealthChecker_MissingConfigurationNamesSettings(t *testing.T) {
	checker := NewHealthChecker(map[string]CheckFunc{
		"gateway_config": func(ctx context.Context) error {
			return domain.NewConfigurationError("FISERV_API_SECRET")
		},
		"secret_store": func(ctx context.Context) error {
			return errors.New("vault at 10.0.0.7 returned 403 for token s.abc")
		},
	})

	rec := httptest.NewRecorder()
	checker.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Contains(t, status.Checks["gateway_config"], "FISERV_API_SECRET")
	assert.Equal(t, "unhealthy: unavailable", status.Checks["secret_store"])
}

func TestNewMetricsMux_Routes(t *testing.T) {
	mux := NewMetricsMux(NewHealthChecker(nil))

	for _, path := range []string{"/metrics", "/health", "/ready"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestHTTPMetrics_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Post("/fiserv-payment", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/fiserv-payment", http.MethodPost, "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/fiserv-payment", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/fiserv-payment", http.MethodPost, "418")))
}
