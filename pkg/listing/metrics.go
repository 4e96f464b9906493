package listing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ViewUpdates counts read model recomputations.
	ViewUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_listing_view_updates_total",
			Help: "Total number of list view recomputations",
		},
	)

	// CurrentStatus is 1 for the status of the most recently computed view.
	CurrentStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "directory_listing_status",
			Help: "Current list status (1 for the active status)",
		},
		[]string{"status"},
	)
)

func recordStatus(current Status) {
	ViewUpdates.Inc()
	for _, s := range allStatuses {
		value := 0.0
		if s == current {
			value = 1
		}
		CurrentStatus.WithLabelValues(string(s)).Set(value)
	}
}
