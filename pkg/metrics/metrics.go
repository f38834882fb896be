package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts commit outcomes. Failure reasons are the engine's
// error taxonomy: empty_cart, insufficient_stock, persistence.
type CheckoutMetrics struct {
	SalesCommitted prometheus.Counter
	SalesFailed    *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	committed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "sales_committed_total",
		Help:      "Total number of successfully committed sales.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "sales_failed_total",
		Help:      "Total number of failed commit attempts by reason.",
	}, []string{"reason"})

	reg.MustRegister(committed, failed)
	return &CheckoutMetrics{SalesCommitted: committed, SalesFailed: failed}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
