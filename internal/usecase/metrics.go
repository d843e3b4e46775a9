package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted by checkout",
	})

	orderCharges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_charges_total",
			Help: "Charge attempts against orders by result",
		},
		[]string{"result"},
	)
)
