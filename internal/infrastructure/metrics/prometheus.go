// Package metrics implementación Prometheus de ports.Metrics y métricas HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
)

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus contadores del flujo de documentos y firmas sobre un registry propio.
type Prometheus struct {
	registry        *prometheus.Registry
	transitions     *prometheus.CounterVec
	signerActions   *prometheus.CounterVec
	quotaRejections *prometheus.CounterVec
	expired         prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewPrometheus registra las métricas bajo el namespace dado.
func NewPrometheus(namespace string) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "transitions_total",
			Help:      "Transiciones de estado de documentos.",
		}, []string{"from", "to"}),
		signerActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signing",
			Name:      "signer_actions_total",
			Help:      "Acciones de firmantes por resultado.",
		}, []string{"action", "result"}),
		quotaRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plans",
			Name:      "quota_rejections_total",
			Help:      "Creaciones rechazadas por límite del plan.",
		}, []string{"kind"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signing",
			Name:      "requests_expired_total",
			Help:      "Solicitudes vencidas por el barrido.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Peticiones HTTP.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duración de las peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	p.registry.MustRegister(
		p.transitions, p.signerActions, p.quotaRejections, p.expired, p.httpRequests, p.httpDuration,
		prometheus.NewGoCollector(),
	)
	return p
}

func (p *Prometheus) DocumentTransition(from, to string) {
	p.transitions.WithLabelValues(from, to).Inc()
}

func (p *Prometheus) SignerAction(action, result string) {
	p.signerActions.WithLabelValues(action, result).Inc()
}

func (p *Prometheus) QuotaRejected(kind string) {
	p.quotaRejections.WithLabelValues(kind).Inc()
}

func (p *Prometheus) RequestsExpired(n int) {
	p.expired.Add(float64(n))
}

// ObserveHTTP registra una petición ya respondida. route es el patrón, no la URL.
func (p *Prometheus) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler expone el registry en formato de texto de Prometheus.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry para tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
