package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	storefrontHttp "github.com/vasiliy-maslov/storefront/internal/handler/http"
	"github.com/vasiliy-maslov/storefront/internal/metrics"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{name: "up", wantStatus: http.StatusOK, wantBody: `{"status":"ok","database":"up"}`},
		{name: "down", pingErr: errors.New("dial tcp: connection refused"), wantStatus: http.StatusServiceUnavailable, wantBody: `{"status":"unavailable","database":"down"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := storefrontHttp.NewRouter(storefrontHttp.Dependencies{DB: fakePinger{err: tt.pingErr}})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestAuthenticate_RejectsMalformedHeaders(t *testing.T) {
	ts := newTestServer(t)
	userID := uuid.Must(uuid.NewV4())
	token := ts.bearer(t, userID)[len("Bearer "):]

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "empty_token", header: "Bearer   ", wantStatus: http.StatusUnauthorized},
		{name: "tampered", header: "Bearer " + token + "x", wantStatus: http.StatusForbidden},
		{name: "lowercase_scheme", header: "bearer " + token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantStatus == http.StatusOK {
				ts.orders.On("ListOrders", mock.Anything, userID).Return([]order.OrderView{}, nil).Once()
			}
			rr := doJSON(t, ts, http.MethodGet, "/api/orders/my-orders", tt.header, nil)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
	ts.orders.AssertExpectations(t)
}

func TestRouter_MetricsWiring(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewServerMetrics(reg, "router_test")
	catalogSvc := new(MockCatalogService)
	catalogSvc.On("GetProduct", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

	router := storefrontHttp.NewRouter(storefrontHttp.Dependencies{
		Catalog:        catalogSvc,
		DB:             fakePinger{},
		Metrics:        m,
		MetricsHandler: metrics.Handler(reg),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.Must(uuid.NewV4()).String(), nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/products/{id}", http.MethodGet, "500")))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "storefront_router_test_http_requests_total")
	catalogSvc.AssertExpectations(t)
}
