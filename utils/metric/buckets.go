// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

// MillisecondsBuckets are latency buckets for operations that span network
// round trips.
var MillisecondsBuckets = []float64{
	10,    // 10 ms is ~ instant
	100,   // 100 ms
	250,   // 250 ms
	500,   // 500 ms
	1000,  // 1 second
	2000,  // 2 seconds
	5000,  // 5 seconds
	10000, // 10 seconds
	30000, // 30 seconds
	// anything larger than 30 seconds will be bucketed together
}
