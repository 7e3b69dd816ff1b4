package observ

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRefused   = "refused"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

var (
	cartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart mutations by action",
		},
		[]string{"action"},
	)

	checkoutSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_submissions_total",
			Help: "Checkout submissions by outcome",
		},
		[]string{"outcome"},
	)

	ordersCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_completed_total",
			Help: "Orders whose checkout sequence finished",
		},
		[]string{"order_type"},
	)

	orderRevenue = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_order_revenue_pesos_total",
			Help: "Sum of completed order totals",
		},
	)
)

func CartMutation(action string) { cartMutations.WithLabelValues(action).Inc() }

func CheckoutSubmission(outcome string) { checkoutSubmissions.WithLabelValues(outcome).Inc() }

func OrderCompleted(orderType string, total int64) {
	ordersCompleted.WithLabelValues(orderType).Inc()
	orderRevenue.Add(float64(total))
}

// RegisterSessionGauge exposes the live session count. Registering twice is
// a no-op.
func RegisterSessionGauge(count func() int) {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "storefront_active_sessions",
		Help: "Sessions currently held in memory",
	}, func() float64 { return float64(count()) })
	if err := prometheus.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
	}
}
