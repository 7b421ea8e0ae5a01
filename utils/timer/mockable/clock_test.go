// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mockable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockSet(t *testing.T) {
	require := require.New(t)

	clock := Clock{}
	time := time.Unix(1000000, 0)
	clock.Set(time)
	require.True(clock.faked)
	require.Equal(time, clock.Time())
	require.Equal(uint64(1000000), clock.Unix())
}

func TestClockSync(t *testing.T) {
	require := require.New(t)

	clock := Clock{true, time.Unix(0, 0)}
	clock.Sync()
	require.False(clock.faked)
	require.NotEqual(time.Unix(0, 0), clock.Time())
}

func TestClockUnixClampsNegative(t *testing.T) {
	clock := Clock{}
	clock.Set(time.Unix(-10, 0))
	require.Zero(t, clock.Unix())
}
