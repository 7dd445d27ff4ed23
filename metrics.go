package sluice

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	depth          prometheus.Gauge
	itemsPushed    prometheus.Counter
	itemsDelivered prometheus.Counter
	pushErrors     prometheus.Counter
	shiftErrors    prometheus.Counter
}

func newMetrics(registerer prometheus.Registerer, namespace, subsystem string) *metrics {
	registerer = prometheus.WrapRegistererWith(
		prometheus.Labels{"component": "sluice"},
		registerer,
	)

	m := metrics{
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "depth",
			Help:      "Number of items currently buffered",
		}),
		itemsPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_pushed",
			Help:      "Number of items drained from the source into the buffer",
		}),
		itemsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_delivered",
			Help:      "Number of items shifted out of the buffer and delivered",
		}),
		pushErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "push_errors",
			Help:      "Number of errors occurred while pushing into the buffer",
		}),
		shiftErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "shift_errors",
			Help:      "Number of errors occurred while shifting from the buffer",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.depth,
			m.itemsPushed,
			m.itemsDelivered,
			m.pushErrors,
			m.shiftErrors,
		)
	}

	return &m
}
