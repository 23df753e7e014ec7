// Package metrics provides Prometheus instrumentation for the market engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BetsTotal counts executed bets, partitioned by side.
	BetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pm_bets_total",
		Help: "Total number of bets executed",
	}, []string{"side"})

	// BetsRejected counts bets refused before commit, by reason.
	BetsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pm_bets_rejected_total",
		Help: "Bets rejected before commit",
	}, []string{"reason"})

	// BetLatency tracks bet execution latency.
	BetLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pm_bet_latency_seconds",
		Help:    "Bet execution latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"side"})

	// BetVolumeCents accumulates traded cents per side.
	BetVolumeCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pm_bet_volume_cents_total",
		Help: "Cumulative traded volume in cents",
	}, []string{"side"})

	// SettlementsTotal counts settled markets by winning side.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pm_settlements_total",
		Help: "Total number of markets settled",
	}, []string{"winner"})

	// PayoutCents accumulates settlement payouts in cents.
	PayoutCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_payout_cents_total",
		Help: "Cumulative settlement payouts in cents",
	})

	// OpenMarkets tracks the number of markets open for trading.
	OpenMarkets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pm_open_markets",
		Help: "Number of currently open markets",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pm_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pm_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pm_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
