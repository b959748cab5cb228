package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanvest_operations_total",
			Help: "Total number of protocol operations",
		},
		[]string{"operation", "outcome"}, // outcome: "accepted", "rejected", "failed"
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fanvest_operation_duration_seconds",
			Help:    "Duration of protocol operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"operation"},
	)

	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanvest_rejections_total",
			Help: "Total number of rejected operations by error code",
		},
		[]string{"code"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanvest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fanvest_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanvest_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	RaiseTotalRaised = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanvest_raise_total_raised",
			Help: "Capital accepted by the raise",
		},
	)

	RaiseContributors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanvest_raise_contributors",
			Help: "Distinct contributors to the raise",
		},
	)

	LiquidityOwed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanvest_raise_liquidity_owed",
			Help: "Liquidity capital not yet seeded at the venue",
		},
	)

	VestingCapitalReleased = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanvest_vesting_capital_released",
			Help: "Capital released from the vesting escrow",
		},
	)

	VestingCapitalRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanvest_vesting_capital_remaining",
			Help: "Capital still held by the vesting escrow",
		},
	)
)

// Snapshot holds the balances published as gauges.
type Snapshot struct {
	TotalRaised      uint64
	Contributors     int
	LiquidityOwed    uint64
	CapitalReleased  uint64
	CapitalRemaining uint64
}

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		status := strconv.Itoa(ww.Status())
		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordOperation records the outcome of one protocol operation. code is
// empty for accepted operations.
func RecordOperation(operation, outcome, code string, duration time.Duration) {
	OperationsTotal.WithLabelValues(operation, outcome).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if code != "" {
		RejectionsTotal.WithLabelValues(code).Inc()
	}
}

// SetBalances publishes the protocol balance gauges.
func SetBalances(s Snapshot) {
	RaiseTotalRaised.Set(float64(s.TotalRaised))
	RaiseContributors.Set(float64(s.Contributors))
	LiquidityOwed.Set(float64(s.LiquidityOwed))
	VestingCapitalReleased.Set(float64(s.CapitalReleased))
	VestingCapitalRemaining.Set(float64(s.CapitalRemaining))
}
