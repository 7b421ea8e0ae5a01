// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notary

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/iouledger/utils/wrappers"
)

type metrics struct {
	numNotarized, numConflicts, numRejected prometheus.Counter
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		numNotarized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notarized",
			Help:      "Number of transactions notarized",
		}),
		numConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts",
			Help:      "Number of transactions refused because an input was already consumed",
		}),
		numRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected",
			Help:      "Number of malformed or insufficiently signed transactions refused",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.numNotarized),
		registerer.Register(m.numConflicts),
		registerer.Register(m.numRejected),
	)
	return m, errs.Err
}
