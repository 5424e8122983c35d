package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los contadores Prometheus del kardex y del transporte HTTP.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	MovementsRecorded   *prometheus.CounterVec
	MovementsRejected   *prometheus.CounterVec
	MovementUnits       *prometheus.CounterVec
	DocumentTransitions *prometheus.CounterVec
}

// New crea un registro propio (no el global) con las métricas de la aplicación.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total de peticiones HTTP",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP en segundos",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
	m.MovementsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_recorded_total",
			Help:      "Movimientos de kardex confirmados por tipo",
		},
		[]string{"kind"},
	)
	m.MovementsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_rejected_total",
			Help:      "Movimientos rechazados por tipo y motivo",
		},
		[]string{"kind", "reason"},
	)
	m.MovementUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movement_units_total",
			Help:      "Unidades movidas (valor absoluto) por tipo",
		},
		[]string{"kind"},
	)
	m.DocumentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_transitions_total",
			Help:      "Transiciones de documentos (traslados, recibos POS, recompras)",
		},
		[]string{"document", "action"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.MovementsRecorded,
		m.MovementsRejected,
		m.MovementUnits,
		m.DocumentTransitions,
	)
	return m
}

// Handler devuelve el handler HTTP del endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry expone el registro para pruebas o colectores adicionales.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest registra una petición completada.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// MovementRecorded cuenta un movimiento confirmado y sus unidades.
func (m *Metrics) MovementRecorded(kind string, delta int) {
	m.MovementsRecorded.WithLabelValues(kind).Inc()
	if delta < 0 {
		delta = -delta
	}
	m.MovementUnits.WithLabelValues(kind).Add(float64(delta))
}

// MovementRejected cuenta un rechazo (validation, insufficient_stock, forbidden, ...).
func (m *Metrics) MovementRejected(kind, reason string) {
	m.MovementsRejected.WithLabelValues(kind, reason).Inc()
}

// DocumentTransition cuenta un cambio de estado de un documento de negocio.
func (m *Metrics) DocumentTransition(document, action string) {
	m.DocumentTransitions.WithLabelValues(document, action).Inc()
}
