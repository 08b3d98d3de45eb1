package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the content module.
// Tracks resource lifecycle transitions, autosave flush behavior and cache efficiency.
type Metrics struct {
	ResourcesCreated  prometheus.Counter
	SoftDeletes       prometheus.Counter
	Duplicates        prometheus.Counter
	VisibilityChanges prometheus.Counter
	AutosaveFlushes   prometheus.Counter
	AutosaveFailures  prometheus.Counter
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
}

// New creates a new Metrics instance with all content module metrics registered.
func New() *Metrics {
	return &Metrics{
		ResourcesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_resources_created_total",
			Help: "Total number of resources created",
		}),
		SoftDeletes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_resource_soft_deletes_total",
			Help: "Total number of resources soft-deleted",
		}),
		Duplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_resource_duplicates_total",
			Help: "Total number of resources duplicated",
		}),
		VisibilityChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_resource_visibility_changes_total",
			Help: "Total number of public-flag changes",
		}),
		AutosaveFlushes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_autosave_flushes_total",
			Help: "Total number of autosave buffers flushed to the store",
		}),
		AutosaveFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_autosave_flush_failures_total",
			Help: "Total number of autosave flushes that failed and kept their buffer",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_resource_cache_hits_total",
			Help: "Total number of resource reads served from the cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podium_resource_cache_misses_total",
			Help: "Total number of resource reads that fell through to the store",
		}),
	}
}
