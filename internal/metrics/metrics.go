package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_initiated_total",
		Help: "Charge attempts accepted by the provider, by provider name.",
	}, []string{"provider"})

	PaymentCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Provider callbacks received, by handling outcome.",
	}, []string{"outcome"})

	PaymentReconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payments moved to a terminal status, by final status.",
	}, []string{"status"})

	OrderReconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_reconciliations_total",
		Help: "Orders reconciled from checkout webhooks, by payment status.",
	}, []string{"status"})
)
