// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"fmt"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/math"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

const (
	ruleWellFormed        = "every state must be well-formed"
	ruleSignersComplete   = "every participant of every input and output must sign"
	ruleConservation      = "cash must be conserved"
	ruleNoDebts           = "no debt states may be consumed or produced"
	ruleNoDebtInputs      = "no debt may be consumed"
	ruleNoDebtOutputs     = "no debt may be produced"
	ruleOneDebtInput      = "exactly one debt must be consumed"
	ruleOneDebtOutput     = "exactly one debt must be produced"
	ruleDistinctParties   = "lender and borrower must differ"
	rulePositiveDebt      = "debt amount must be positive"
	ruleSameDebt          = "debt identity and parties must not change"
	ruleDebtDecreases     = "debt amount must strictly decrease"
	ruleFunding           = "cash of the exact amount must move from payer to payee"
	ruleOneCashInput      = "exactly one cash state must be consumed"
	ruleOneCashOutput     = "exactly one cash state must be produced"
	ruleTwoCashOutputs    = "exactly two cash states must be produced"
	ruleNewOwner          = "cash must move to a different owner"
	ruleRetainedChange    = "one output must be retained by the original owner"
	rulePositiveAmounts   = "cash amounts must be positive"
	ruleEqualAmounts      = "cash amounts must be equal"
	ruleNoCashInputs      = "no cash may be consumed"
	ruleIssuedToAuthority = "cash must be issued to the issuing authority"
	ruleKnownMovement     = "cash movement must be full or split"
	ruleKnownCommand      = "exactly one known command"
)

type cashInput struct {
	ref  states.Ref
	cash *states.Cash
}

// view is the partition of a transaction's states that the rules inspect.
type view struct {
	cmd      txs.Command
	ins      []*states.Output
	outs     []states.State
	signers  set.Set[ids.ShortID]
	cashIns  []cashInput
	cashOuts []*states.Cash
	debtIns  []*states.Output
	debtOuts []*states.Debt
}

func newView(cmd txs.Command, ins []*states.Output, outs []states.State, signers set.Set[ids.ShortID]) *view {
	v := &view{
		cmd:      cmd,
		ins:      ins,
		outs:     outs,
		signers:  signers,
		cashOuts: states.Cashes(outs),
		debtOuts: states.Debts(outs),
	}
	for _, in := range ins {
		if in == nil {
			continue
		}
		switch st := in.State.(type) {
		case *states.Cash:
			v.cashIns = append(v.cashIns, cashInput{ref: in.Ref, cash: st})
		case *states.Debt:
			v.debtIns = append(v.debtIns, in)
		}
	}
	return v
}

func (v *view) fail(rule string) error {
	return &ValidationError{
		Command: v.cmd.String(),
		Rule:    rule,
	}
}

func (v *view) failRef(rule string, ref states.Ref, err error) error {
	return &ValidationError{
		Command: v.cmd.String(),
		Rule:    rule,
		Ref:     &ref,
		Err:     err,
	}
}

func (v *view) failErr(rule string, err error) error {
	return &ValidationError{
		Command: v.cmd.String(),
		Rule:    rule,
		Err:     err,
	}
}

func (v *view) verifyWellFormed() error {
	for _, in := range v.ins {
		if in == nil || in.State == nil {
			return v.fail(ruleWellFormed)
		}
		if err := in.State.Verify(); err != nil {
			return v.failRef(ruleWellFormed, in.Ref, err)
		}
	}
	for i, out := range v.outs {
		if out == nil {
			return v.failErr(ruleWellFormed, fmt.Errorf("output %d is nil", i))
		}
		if err := out.Verify(); err != nil {
			return v.failErr(ruleWellFormed, fmt.Errorf("output %d: %w", i, err))
		}
	}
	return nil
}

func (v *view) verifySignersComplete() error {
	for _, in := range v.ins {
		for _, party := range in.State.Participants() {
			if !v.signers.Contains(party) {
				return v.failRef(ruleSignersComplete, in.Ref, fmt.Errorf("missing %s", party))
			}
		}
	}
	for i, out := range v.outs {
		for _, party := range out.Participants() {
			if !v.signers.Contains(party) {
				return v.failErr(ruleSignersComplete, fmt.Errorf("missing %s for output %d", party, i))
			}
		}
	}
	return nil
}

func (v *view) verifyConservation() error {
	var inAmounts []uint64
	for _, in := range v.cashIns {
		inAmounts = append(inAmounts, in.cash.Amount)
	}
	var outAmounts []uint64
	for _, out := range v.cashOuts {
		outAmounts = append(outAmounts, out.Amount)
	}

	inSum, err := math.Sum(inAmounts...)
	if err != nil {
		return v.failErr(ruleConservation, err)
	}
	outSum, err := math.Sum(outAmounts...)
	if err != nil {
		return v.failErr(ruleConservation, err)
	}
	if inSum != outSum {
		return v.failErr(ruleConservation, fmt.Errorf("consumed %d, produced %d", inSum, outSum))
	}
	return nil
}

func (v *view) verifyNoDebts() error {
	if len(v.debtIns) != 0 || len(v.debtOuts) != 0 {
		return v.fail(ruleNoDebts)
	}
	return nil
}

func (v *view) verifyMovement(m txs.Movement) error {
	switch m {
	case txs.FullMovement:
		return v.verifyTransfer()
	case txs.SplitMovement:
		return v.verifyTransferPartial()
	default:
		return v.failErr(ruleKnownMovement, fmt.Errorf("%w: movement %s", ErrMalformedCommand, m))
	}
}

// verifyTransfer checks that one cash state moves to a new owner whole.
func (v *view) verifyTransfer() error {
	if len(v.cashIns) != 1 {
		return v.fail(ruleOneCashInput)
	}
	if len(v.cashOuts) != 1 {
		return v.fail(ruleOneCashOutput)
	}

	in := v.cashIns[0]
	out := v.cashOuts[0]
	switch {
	case in.cash.Owner == out.Owner:
		return v.failRef(ruleNewOwner, in.ref, nil)
	case in.cash.Amount == 0 || out.Amount == 0:
		return v.failRef(rulePositiveAmounts, in.ref, nil)
	case in.cash.Amount != out.Amount:
		return v.failRef(ruleEqualAmounts, in.ref, fmt.Errorf("consumed %d, produced %d", in.cash.Amount, out.Amount))
	default:
		return nil
	}
}

// verifyTransferPartial checks that one cash state is split between a new
// owner and the original owner.
func (v *view) verifyTransferPartial() error {
	if len(v.cashIns) != 1 {
		return v.fail(ruleOneCashInput)
	}
	if len(v.cashOuts) != 2 {
		return v.fail(ruleTwoCashOutputs)
	}

	in := v.cashIns[0]
	retained, moved := v.cashOuts[0], v.cashOuts[1]
	if moved.Owner == in.cash.Owner {
		retained, moved = moved, retained
	}
	switch {
	case retained.Owner != in.cash.Owner:
		return v.failRef(ruleRetainedChange, in.ref, nil)
	case moved.Owner == in.cash.Owner:
		return v.failRef(ruleNewOwner, in.ref, nil)
	case retained.Amount == 0 || moved.Amount == 0:
		return v.failRef(rulePositiveAmounts, in.ref, nil)
	}

	outSum, err := math.Add(retained.Amount, moved.Amount)
	if err != nil {
		return v.failRef(ruleConservation, in.ref, err)
	}
	if outSum != in.cash.Amount {
		return v.failRef(ruleConservation, in.ref, fmt.Errorf("consumed %d, produced %d", in.cash.Amount, outSum))
	}
	return nil
}

// verifyFunding checks that some consumed cash belongs to [payer] and some
// produced cash of exactly [amount] belongs to [payee].
func (v *view) verifyFunding(payer, payee ids.ShortID, amount uint64) error {
	paid := false
	for _, in := range v.cashIns {
		if in.cash.Owner == payer {
			paid = true
			break
		}
	}
	if !paid {
		return v.failErr(ruleFunding, fmt.Errorf("no cash consumed from %s", payer))
	}
	for _, out := range v.cashOuts {
		if out.Owner == payee && out.Amount == amount {
			return nil
		}
	}
	return v.failErr(ruleFunding, fmt.Errorf("no cash of %d produced for %s", amount, payee))
}
