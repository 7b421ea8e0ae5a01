// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

var (
	ErrPolicyViolation = errors.New("policy violation")

	_ Policy = MaxDebtAmount(0)
	_ Policy = Policies(nil)
)

// Policy is a business check a party applies, on top of validation, before
// countersigning.
type Policy interface {
	Check(tx *txs.Tx) error
}

// Policies requires every contained policy to pass.
type Policies []Policy

func (p Policies) Check(tx *txs.Tx) error {
	for _, policy := range p {
		if err := policy.Check(tx); err != nil {
			return err
		}
	}
	return nil
}

// MaxDebtAmount refuses transactions producing a debt above the ceiling.
type MaxDebtAmount uint64

func (m MaxDebtAmount) Check(tx *txs.Tx) error {
	for _, debt := range states.Debts(tx.Unsigned.Outs) {
		if debt.Amount > uint64(m) {
			return fmt.Errorf("%w: debt %s of %d exceeds ceiling %d",
				ErrPolicyViolation,
				debt.ID,
				debt.Amount,
				uint64(m),
			)
		}
	}
	return nil
}
