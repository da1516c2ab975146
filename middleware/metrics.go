package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics regroupe les collecteurs Prometheus des requêtes HTTP
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	inFlightRequests prometheus.Gauge
	errorsTotal      *prometheus.CounterVec
}

// NewMetrics crée les collecteurs et les enregistre dans reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Nombre total de requêtes HTTP",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Durée de traitement des requêtes",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		inFlightRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_in_flight_requests",
				Help: "Requêtes en cours de traitement",
			},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Nombre de réponses en erreur (4xx et 5xx)",
			},
			[]string{"method", "path", "status"},
		),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.inFlightRequests, m.errorsTotal)
	return m
}

// routePath retourne le gabarit de la route mux ("/api/admin/annonces/{id}") pour borner la cardinalité
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "inconnu"
}

// Middleware mesure chaque requête
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlightRequests.Inc()
		defer m.inFlightRequests.Dec()
		start := time.Now()

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		path := routePath(r)
		status := strconv.Itoa(rw.statusCode)
		m.requestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		if rw.statusCode >= http.StatusBadRequest {
			m.errorsTotal.WithLabelValues(r.Method, path, status).Inc()
		}
	})
}
