// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Endpoint is the route the prometheus metrics are served under.
const Endpoint = "metrics"

// NewHandler returns a handler exposing every metric registered on
// [registry], including the handler's own request metrics.
func NewHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.InstrumentMetricHandler(
		registry,
		promhttp.HandlerFor(
			registry,
			promhttp.HandlerOpts{},
		),
	)
}
