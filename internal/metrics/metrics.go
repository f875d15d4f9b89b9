// Package metrics exposes Prometheus instruments for the ledger service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Mutations counts successful writes by operation.
var Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "classroom",
	Subsystem: "ledger",
	Name:      "mutations_total",
	Help:      "Successful ledger mutations by operation.",
}, []string{"operation"})

// MutationErrors counts failed writes by operation.
var MutationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "classroom",
	Subsystem: "ledger",
	Name:      "mutation_errors_total",
	Help:      "Failed ledger mutations by operation.",
}, []string{"operation"})

// Outstanding is the total unpaid debt as of the last overview.
var Outstanding = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "classroom",
	Subsystem: "ledger",
	Name:      "outstanding_debt",
	Help:      "Total unpaid debt across students at the last overview.",
})

// Balance is income minus expenses as of the last overview.
var Balance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "classroom",
	Subsystem: "ledger",
	Name:      "balance",
	Help:      "Income minus expenses at the last overview.",
})

var ChangeEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "classroom",
	Subsystem: "amqp",
	Name:      "change_events_total",
	Help:      "Ledger change notifications by publish result.",
}, []string{"result"})

var Exports = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "classroom",
	Subsystem: "sheets",
	Name:      "exports_total",
	Help:      "Spreadsheet exports by result.",
}, []string{"result"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "classroom",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
})

// SetTotals records the latest dashboard aggregates.
func SetTotals(outstanding, balance decimal.Decimal) {
	Outstanding.Set(outstanding.InexactFloat64())
	Balance.Set(balance.InexactFloat64())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
