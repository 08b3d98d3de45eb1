package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module.
type Metrics struct {
	Confirmed          prometheus.Counter
	AlreadyRegistered  prometheus.Counter
	Cancelled          prometheus.Counter
	CapacityRejections prometheus.Counter
}

// New creates a new Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		Confirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_registrations_confirmed_total",
			Help: "Total number of registrations confirmed, revivals included",
		}),
		AlreadyRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_registrations_already_registered_total",
			Help: "Total number of register calls that found an existing active registration",
		}),
		Cancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_registrations_cancelled_total",
			Help: "Total number of registrations transitioned to cancelled",
		}),
		CapacityRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_registrations_capacity_rejections_total",
			Help: "Total number of register calls rejected because the event was full",
		}),
	}
}
