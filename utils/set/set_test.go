// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package set

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	require := require.New(t)
	id1 := 1

	s := Set[int]{id1: struct{}{}}

	s.Add(id1)
	require.True(s.Contains(id1))

	s.Remove(id1)
	require.False(s.Contains(id1))

	s.Add(id1)
	require.True(s.Contains(id1))
	require.Len(s.List(), 1)
	require.Equal(id1, s.List()[0])

	s.Clear()
	require.False(s.Contains(id1))

	s.Add(id1)

	s2 := Set[int]{}

	require.False(s.Overlaps(s2))

	s2.Union(s)
	require.True(s2.Contains(id1))
	require.True(s.Overlaps(s2))

	s2.Difference(s)
	require.False(s2.Contains(id1))
	require.False(s.Overlaps(s2))
}

func TestOf(t *testing.T) {
	tests := []struct {
		name     string
		elements []int
		expected []int
	}{
		{
			name:     "nil",
			elements: nil,
			expected: []int{},
		},
		{
			name:     "one",
			elements: []int{1},
			expected: []int{1},
		},
		{
			name:     "duplicates",
			elements: []int{1, 2, 1},
			expected: []int{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			s := Of(tt.elements...)

			require.Equal(len(tt.expected), s.Len())
			for _, expected := range tt.expected {
				require.True(s.Contains(expected))
			}
		})
	}
}

func TestSetEquals(t *testing.T) {
	require := require.New(t)

	require.True(Of[int]().Equals(nil))
	require.True(Of(1, 2).Equals(Of(2, 1)))
	require.False(Of(1, 2).Equals(Of(1, 3)))
	require.False(Of(1).Equals(Of(1, 2)))
}

func TestQueryUnaddressableSet(t *testing.T) {
	require := require.New(t)

	require.True(Of(1, 2).Contains(1))
	require.False(Of(1, 2).Contains(3))
	require.True(Of(1, 2).Overlaps(Of(2, 3)))
	require.False(Of(1).Overlaps(Of(2, 3)))
}
