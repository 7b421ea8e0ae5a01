// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package builder

import (
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfDealing       = errors.New("counterparty must be a different party")
	ErrOwnershipMismatch = errors.New("state is not owned by the paying party")
	ErrOverpayment       = errors.New("payment exceeds the outstanding debt")
	ErrZeroAmount        = errors.New("amount must be positive")
	ErrWrongStateType    = errors.New("unexpected state type")
)

// BuildError reports why a transaction could not be assembled. No network
// interaction happens before a build succeeds.
type BuildError struct {
	// Op is the operation that was being built.
	Op string
	// Ref is the input that caused the failure, if any.
	Ref *states.Ref
	Err error
}

func (e *BuildError) Error() string {
	if e.Ref != nil {
		return fmt.Sprintf("couldn't build %s with %s: %s", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("couldn't build %s: %s", e.Op, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
