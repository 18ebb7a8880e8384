// Package metrics colectores Prometheus del servicio de accesos.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los colectores registrados.
type Metrics struct {
	// AuditWriteFailures entradas de auditoría que no se pudieron persistir.
	AuditWriteFailures prometheus.Counter
	// AccessDenials denegaciones por motivo (forbidden, limit_exceeded, ...).
	AccessDenials *prometheus.CounterVec
	// SubscriptionsExpired suscripciones vencidas por el barrido.
	SubscriptionsExpired prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics crea y registra los colectores en registry (nil = registro nuevo).
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		AuditWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "access_audit_write_failures_total",
			Help: "Entradas de auditoría descartadas por error de escritura",
		}),
		AccessDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_denials_total",
			Help: "Solicitudes denegadas por la capa de acceso, por motivo",
		}, []string{"reason"}),
		SubscriptionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "access_subscriptions_expired_total",
			Help: "Suscripciones pasadas a expired por el barrido",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "access_http_requests_total",
			Help: "Total de solicitudes HTTP",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "access_http_request_duration_seconds",
			Help:    "Duración de las solicitudes HTTP en segundos",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registry: registry,
	}
	registry.MustRegister(
		m.AuditWriteFailures,
		m.AccessDenials,
		m.SubscriptionsExpired,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDenial cuenta una denegación (implementa authz.DenialObserver).
func (m *Metrics) ObserveDenial(reason string) {
	m.AccessDenials.WithLabelValues(reason).Inc()
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware mide cada solicitud por ruta registrada (no por URL, para acotar la cardinalidad).
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		route := c.Route().Path
		m.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
