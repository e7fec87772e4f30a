// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of one [Coordinator]. A nil
// *Metrics records nothing.
type Metrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
	StaleCommits  *prometheus.CounterVec
}

// NewMetrics registers the cache collectors with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		Hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "comunidad_cache_hits_total",
			Help: "Total number of query cache hits by entity",
		}, []string{"entity"}),
		Misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "comunidad_cache_misses_total",
			Help: "Total number of query cache misses by entity",
		}, []string{"entity"}),
		Invalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "comunidad_cache_invalidations_total",
			Help: "Total number of cache entries invalidated by entity",
		}, []string{"entity"}),
		StaleCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "comunidad_cache_stale_commits_total",
			Help: "Fetch results discarded because an invalidation completed during the fetch",
		}, []string{"entity"}),
	}
}

func (m *Metrics) hit(entity string) {
	if m != nil {
		m.Hits.WithLabelValues(entity).Inc()
	}
}

func (m *Metrics) miss(entity string) {
	if m != nil {
		m.Misses.WithLabelValues(entity).Inc()
	}
}

func (m *Metrics) invalidated(entity string, count int) {
	if m != nil && count > 0 {
		m.Invalidations.WithLabelValues(entity).Add(float64(count))
	}
}

func (m *Metrics) staleCommit(entity string) {
	if m != nil {
		m.StaleCommits.WithLabelValues(entity).Inc()
	}
}
