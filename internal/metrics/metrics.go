package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

type ServerMetrics struct {
	Requests     *prometheus.CounterVec
	LatencyMS    *prometheus.HistogramVec
	OrdersPlaced prometheus.Counter
	OrderValue   prometheus.Histogram
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler", "method"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "orders_placed_total",
		Help:      "Number of committed orders.",
	})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "order_value",
		Help:      "Total amount of committed orders.",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	reg.MustRegister(requests, latency, ordersPlaced, orderValue)
	return &ServerMetrics{
		Requests:     requests,
		LatencyMS:    latency,
		OrdersPlaced: ordersPlaced,
		OrderValue:   orderValue,
	}
}

// Middleware records every request under its chi route pattern so that path
// parameters do not explode label cardinality.
func (m *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		handler := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				handler = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.Requests.WithLabelValues(handler, r.Method, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(handler, r.Method).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func (m *ServerMetrics) ObserveOrder(o *order.Order) {
	m.OrdersPlaced.Inc()
	m.OrderValue.Observe(o.TotalAmount.InexactFloat64())
}

// Publisher records committed orders before handing them to next.
func (m *ServerMetrics) Publisher(next order.Publisher) order.Publisher {
	return &instrumentedPublisher{metrics: m, next: next}
}

type instrumentedPublisher struct {
	metrics *ServerMetrics
	next    order.Publisher
}

func (p *instrumentedPublisher) OrderPlaced(ctx context.Context, o *order.Order) error {
	p.metrics.ObserveOrder(o)
	if p.next == nil {
		return nil
	}
	return p.next.OrderPlaced(ctx, o)
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
