// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package math

import (
	"errors"

	"golang.org/x/exp/constraints"
)

var (
	ErrOverflow  = errors.New("overflow")
	ErrUnderflow = errors.New("underflow")
)

// MaxUint returns the largest value representable by T.
func MaxUint[T constraints.Unsigned]() T {
	return ^T(0)
}

func Max[T constraints.Ordered](max T, nums ...T) T {
	for _, num := range nums {
		if num > max {
			max = num
		}
	}
	return max
}

func Min[T constraints.Ordered](min T, nums ...T) T {
	for _, num := range nums {
		if num < min {
			min = num
		}
	}
	return min
}

// Add returns:
// 1) a + b
// 2) If there is overflow, an error
func Add[T constraints.Unsigned](a, b T) (T, error) {
	if a > MaxUint[T]()-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub returns:
// 1) a - b
// 2) If there is underflow, an error
func Sub[T constraints.Unsigned](a, b T) (T, error) {
	if a < b {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Sum returns the total of [nums] or ErrOverflow.
func Sum[T constraints.Unsigned](nums ...T) (T, error) {
	var (
		total T
		err   error
	)
	for _, num := range nums {
		total, err = Add(total, num)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
