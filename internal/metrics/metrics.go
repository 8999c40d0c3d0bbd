package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	TransactionsTotal  *prometheus.CounterVec
	GatewayVerdicts    *prometheus.CounterVec
	SettlementDuration prometheus.Histogram
	ReconcileRuns      prometheus.Counter
}

// New builds a registry with process collectors plus the domain instruments.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		TransactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rechargehub_transactions_total",
			Help: "Transactions by kind and terminal or parked status.",
		}, []string{"kind", "status"}),
		GatewayVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rechargehub_gateway_verdicts_total",
			Help: "Gateway verdicts including transport faults.",
		}, []string{"verdict"}),
		SettlementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rechargehub_settlement_duration_seconds",
			Help:    "Time from submission to resolution of the gateway call.",
			Buckets: prometheus.DefBuckets,
		}),
		ReconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rechargehub_reconcile_runs_total",
			Help: "Reconciliation sweep executions.",
		}),
	}
	registry.MustRegister(m.TransactionsTotal, m.GatewayVerdicts, m.SettlementDuration, m.ReconcileRuns)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
