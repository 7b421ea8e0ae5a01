// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/iouledger/utils/wrappers"
)

type metrics struct {
	numCash, numDebts prometheus.Gauge
	numRecordedTxs    prometheus.Counter
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		numCash: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cash_states",
			Help:      "Number of current cash states held in the vault",
		}),
		numDebts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "debt_states",
			Help:      "Number of current debt states held in the vault",
		}),
		numRecordedTxs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorded_txs",
			Help:      "Number of finalized transactions recorded by the vault",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.numCash),
		registerer.Register(m.numDebts),
		registerer.Register(m.numRecordedTxs),
	)
	return m, errs.Err
}
