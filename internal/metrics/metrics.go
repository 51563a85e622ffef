/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package metrics exposes Prometheus counters and histograms for the
// redefinition pipeline, grounded on
// ipiton-alert-history-service/go-app/pkg/metrics's registration style
// (one Collector struct, MustRegister at construction). There is no
// package-level default collector; Noop builds one on a private
// registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every metric the redefinition pipeline updates.
type Collector struct {
	Transactions      *prometheus.CounterVec
	TransactionTime   prometheus.Histogram
	AffectedClasses   prometheus.Histogram
	InstancesMigrated prometheus.Counter
	FullGCsTriggered  prometheus.Counter
	RollbacksTotal    *prometheus.CounterVec
}

// NewCollector builds a Collector registered against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// registry across parallel test binaries.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dcevm",
			Name:      "redefine_transactions_total",
			Help:      "Count of redefine_classes transactions by outcome.",
		}, []string{"outcome"}),
		TransactionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dcevm",
			Name:      "redefine_transaction_seconds",
			Help:      "Wall-clock duration of a redefine_classes transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
		AffectedClasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dcevm",
			Name:      "redefine_affected_classes",
			Help:      "Size of the affected-class set per transaction.",
			Buckets:   prometheus.LinearBuckets(1, 5, 10),
		}),
		InstancesMigrated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dcevm",
			Name:      "redefine_instances_migrated_total",
			Help:      "Count of heap instances whose field image was migrated.",
		}),
		FullGCsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dcevm",
			Name:      "redefine_full_gcs_triggered_total",
			Help:      "Count of full GCs triggered to complete instance migration.",
		}),
		RollbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dcevm",
			Name:      "redefine_rollbacks_total",
			Help:      "Count of rolled-back transactions by error code.",
		}, []string{"code"}),
	}

	reg.MustRegister(
		c.Transactions,
		c.TransactionTime,
		c.AffectedClasses,
		c.InstancesMigrated,
		c.FullGCsTriggered,
		c.RollbacksTotal,
	)
	return c
}

// Noop returns a Collector backed by a private registry, for callers
// (tests, the CLI demo) that need a valid Collector
// but do not care about its values or want them surfaced anywhere.
func Noop() *Collector {
	return NewCollector(prometheus.NewRegistry())
}
