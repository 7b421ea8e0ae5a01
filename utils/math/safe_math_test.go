// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const maxUint64 uint64 = math.MaxUint64

func TestMax(t *testing.T) {
	require := require.New(t)

	require.Equal(maxUint64, Max(0, maxUint64))
	require.Equal(uint64(3), Max(uint64(1), 2, 3, 2))
}

func TestMin(t *testing.T) {
	require := require.New(t)

	require.Zero(Min(0, maxUint64))
	require.Equal(uint64(1), Min(uint64(3), 2, 1, 2))
}

func TestAdd(t *testing.T) {
	require := require.New(t)

	sum, err := Add(0, maxUint64)
	require.NoError(err)
	require.Equal(maxUint64, sum)

	sum, err = Add(uint64(1<<62), 1<<62)
	require.NoError(err)
	require.Equal(uint64(1<<63), sum)

	_, err = Add(1, maxUint64)
	require.ErrorIs(err, ErrOverflow)

	_, err = Add(maxUint64, maxUint64)
	require.ErrorIs(err, ErrOverflow)
}

func TestSub(t *testing.T) {
	require := require.New(t)

	got, err := Sub(uint64(2), 1)
	require.NoError(err)
	require.Equal(uint64(1), got)

	got, err = Sub(maxUint64, maxUint64)
	require.NoError(err)
	require.Zero(got)

	_, err = Sub(uint64(1), 2)
	require.ErrorIs(err, ErrUnderflow)
}

func TestSum(t *testing.T) {
	require := require.New(t)

	total, err := Sum[uint64]()
	require.NoError(err)
	require.Zero(total)

	total, err = Sum(uint64(1), 2, 3)
	require.NoError(err)
	require.Equal(uint64(6), total)

	_, err = Sum(maxUint64, 1)
	require.ErrorIs(err, ErrOverflow)
}
