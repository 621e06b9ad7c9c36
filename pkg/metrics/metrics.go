package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_applied_total",
		Help: "Transacciones de consumo aplicadas",
	}, []string{"kind"})

	TransactionsRevertedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_reverted_total",
		Help: "Transacciones de consumo revertidas",
	}, []string{"kind"})

	TransactionsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_failed_total",
		Help: "Aplicaciones/reversiones fallidas por motivo",
	}, []string{"kind", "reason"})

	ApplyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_apply_latency_seconds",
		Help:    "Latencia de Apply incluyendo espera de bloqueos",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	MovementsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_movements_recorded_total",
		Help: "Movimientos de stock registrados por tipo de ítem",
	}, []string{"entity_kind"})

	LowStockEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_low_stock_events_total",
		Help: "Eventos de stock bajo emitidos",
	}, []string{"entity_kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
