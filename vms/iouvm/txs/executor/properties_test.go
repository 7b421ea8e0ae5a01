// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

const maxAmount = 1 << 40

// TestConservationProperties checks that no non-issuing command can create
// or destroy cash.
func TestConservationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("split transfers conserve cash", prop.ForAll(
		func(total, moved uint64, delta int64) string {
			if moved >= total {
				moved = total - 1
			}
			if moved == 0 {
				return ""
			}
			ins := []*states.Output{input(cash(total, alice))}
			signers := set.Of(alice, bob)

			valid := []states.State{cash(moved, bob), cash(total-moved, alice)}
			if err := Verify(testConfig, &txs.TransferPartial{}, ins, valid, signers); err != nil {
				return fmt.Sprintf("expected conserving transfer to pass, got %v", err)
			}

			change := int64(total-moved) + delta
			if delta == 0 || change <= 0 {
				return ""
			}
			skewed := []states.State{cash(moved, bob), cash(uint64(change), alice)}
			err := Verify(testConfig, &txs.TransferPartial{}, ins, skewed, signers)
			if !errors.Is(err, ErrValidation) {
				return fmt.Sprintf("expected skewed transfer to fail, got %v", err)
			}
			return ""
		},
		gen.UInt64Range(2, maxAmount),
		gen.UInt64Range(1, maxAmount),
		gen.Int64Range(-1000, 1000),
	))

	properties.Property("debt creation conserves cash", prop.ForAll(
		func(amount, extra, skew uint64) string {
			debtID := uuid.New()
			ins := []*states.Output{input(cash(amount+extra, alice))}
			outs := []states.State{debt(debtID, amount), cash(amount, bob)}
			movement := txs.FullMovement
			if extra > 0 {
				outs = append(outs, cash(extra+skew, alice))
				movement = txs.SplitMovement
			}

			err := Verify(testConfig, &txs.Create{Movement: movement}, ins, outs, set.Of(alice, bob))
			switch {
			case extra == 0 || skew == 0:
				if err != nil {
					return fmt.Sprintf("expected create to pass, got %v", err)
				}
			case !errors.Is(err, ErrValidation):
				return fmt.Sprintf("expected inflating create to fail, got %v", err)
			}
			return ""
		},
		gen.UInt64Range(1, maxAmount),
		gen.UInt64Range(0, maxAmount),
		gen.UInt64Range(0, 10),
	))

	properties.TestingRun(t)
}

// TestDebtMonotonicityProperties checks that a partial payment is accepted
// only when the debt strictly decreases and stays positive.
func TestDebtMonotonicityProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("partial pay strictly decreases", prop.ForAll(
		func(before, after uint64) string {
			debtID := uuid.New()
			paid := uint64(1)
			if after < before {
				paid = before - after
			}
			ins := []*states.Output{
				input(debt(debtID, before)),
				input(cash(paid, bob)),
			}
			outs := []states.State{debt(debtID, after), cash(paid, alice)}

			err := Verify(testConfig, &txs.PartialPay{Movement: txs.FullMovement}, ins, outs, set.Of(alice, bob))
			shouldPass := after > 0 && after < before
			switch {
			case shouldPass && err != nil:
				return fmt.Sprintf("%d -> %d should pass, got %v", before, after, err)
			case !shouldPass && !errors.Is(err, ErrValidation):
				return fmt.Sprintf("%d -> %d should fail, got %v", before, after, err)
			}
			return ""
		},
		gen.UInt64Range(1, 1000),
		gen.UInt64Range(0, 1000),
	))

	properties.TestingRun(t)
}

// TestSignerCompletenessProperties checks that dropping any participant from
// the signer set of an otherwise valid transaction rejects it.
func TestSignerCompletenessProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every participant must sign", prop.ForAll(
		func(amount uint64, dropLender bool) string {
			ins := []*states.Output{input(cash(amount, alice))}
			outs := []states.State{debt(uuid.New(), amount), cash(amount, bob)}
			cmd := &txs.Create{Movement: txs.FullMovement}

			if err := Verify(testConfig, cmd, ins, outs, set.Of(alice, bob)); err != nil {
				return fmt.Sprintf("expected fully signed create to pass, got %v", err)
			}

			dropped := bob
			if dropLender {
				dropped = alice
			}
			signers := set.Of(alice, bob, carol)
			signers.Remove(dropped)

			err := Verify(testConfig, cmd, ins, outs, signers)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Rule != ruleSignersComplete {
				return fmt.Sprintf("expected missing %s to fail signer completeness, got %v", dropped, err)
			}
			return ""
		},
		gen.UInt64Range(1, maxAmount),
		gen.Bool(),
	))

	properties.Property("issuance requires the authority's signature", prop.ForAll(
		func(amount uint64) string {
			outs := []states.State{cash(amount, authority)}
			err := Verify(testConfig, &txs.Issue{}, nil, outs, set.Of[ids.ShortID]())
			if !errors.Is(err, ErrValidation) {
				return fmt.Sprintf("expected unsigned issuance to fail, got %v", err)
			}
			return ""
		},
		gen.UInt64Range(1, maxAmount),
	))

	properties.TestingRun(t)
}
