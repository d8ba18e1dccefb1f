package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var LedgerWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "compliance_ledger_writes_total",
	Help: "The total number of committed ledger writes",
}, []string{"operation"})

var LedgerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "compliance_ledger_rejections_total",
	Help: "The total number of ledger writes rejected before or during commit",
}, []string{"operation", "kind"})

var IDAllocationRetries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "compliance_ledger_id_allocation_retries_total",
	Help: "The total number of inserts retried after an id collision",
})

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "compliance_ledger_http_request_duration_seconds",
	Help:    "Duration of HTTP requests by route and status",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})
