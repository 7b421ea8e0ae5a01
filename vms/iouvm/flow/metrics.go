// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/iouledger/utils/metric"
	"github.com/ava-labs/iouledger/utils/wrappers"
)

const (
	outcomeFinalized = "finalized"
	outcomeRejected  = "rejected"
)

type metrics struct {
	outcomes              *prometheus.CounterVec
	duration              prometheus.Histogram
	communicationFailures prometheus.Counter
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes",
			Help:      "Number of agreement instances that reached a terminal status",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duration",
			Help:      "Time from starting an agreement instance to its terminal status in milliseconds",
			Buckets:   metric.MillisecondsBuckets,
		}),
		communicationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "communication_failures",
			Help:      "Number of round trips to a counterparty or the notary that did not complete",
		}),
	}

	m.outcomes.WithLabelValues(outcomeFinalized)
	m.outcomes.WithLabelValues(outcomeRejected)

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.outcomes),
		registerer.Register(m.duration),
		registerer.Register(m.communicationFailures),
	)
	return m, errs.Err
}

func (m *metrics) observe(outcome string, start time.Time) {
	m.outcomes.WithLabelValues(outcome).Inc()
	m.duration.Observe(float64(time.Since(start).Milliseconds()))
}
