// Package metrics holds the prometheus collectors for one matchelo process.
//
// Batch commands have no scrape endpoint, so the registry is dumped in the
// node-exporter textfile format when a metrics file is configured.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Run groups the counters updated by the rating engine, history index and feature builder.
type Run struct {
	reg *prometheus.Registry

	RecordsRated   prometheus.Counter
	RecordsSkipped prometheus.Counter
	PriorLookups   prometheus.Counter
	HistoryBuilds  prometheus.Counter
	HistoryHits    prometheus.Counter
	VectorsBuilt   prometheus.Counter
	RatingPass     prometheus.Histogram
	FeatureBuild   prometheus.Histogram
}

// New returns a Run registered on a fresh private registry.
func New() *Run {
	r := &Run{
		reg: prometheus.NewRegistry(),
		RecordsRated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchelo_records_rated_total",
			Help: "Match records whose ratings were written by the rating engine",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchelo_records_skipped_total",
			Help: "Already-rated records skipped by an incremental pass",
		}),
		PriorLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchelo_prior_rating_lookups_total",
			Help: "Backward history lookups for a competitor's last stored rating",
		}),
		HistoryBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchelo_history_builds_total",
			Help: "Competitor histories loaded from the ledger",
		}),
		HistoryHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchelo_history_cache_hits_total",
			Help: "Competitor history lookups served from the cache",
		}),
		VectorsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchelo_feature_vectors_total",
			Help: "Feature vectors produced (one per match per perspective)",
		}),
		RatingPass: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchelo_rating_pass_seconds",
			Help:    "Duration of a full or incremental rating pass",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		FeatureBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchelo_feature_build_seconds",
			Help:    "Duration of building both perspectives for one match",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	r.reg.MustRegister(
		r.RecordsRated, r.RecordsSkipped, r.PriorLookups,
		r.HistoryBuilds, r.HistoryHits, r.VectorsBuilt,
		r.RatingPass, r.FeatureBuild,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Run) Registry() *prometheus.Registry {
	return r.reg
}

// WriteTextfile writes every collector to path in the prometheus text format.
func (r *Run) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
