// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"fmt"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

var _ txs.Visitor = (*verifier)(nil)

// Verify checks that consuming [ins] and producing [outs] under [cmd], signed
// by [signers], satisfies every rule of [cmd]. It has no side effects.
func Verify(
	cfg Config,
	cmd txs.Command,
	ins []*states.Output,
	outs []states.State,
	signers set.Set[ids.ShortID],
) error {
	if cmd == nil {
		return &ValidationError{
			Command: "<nil>",
			Rule:    ruleKnownCommand,
			Err:     ErrMalformedCommand,
		}
	}
	return cmd.Visit(&verifier{
		cfg:  cfg,
		view: newView(cmd, ins, outs, signers),
	})
}

// VerifyTx checks the structure of [tx] and then runs Verify against its
// declared signers. Signatures are not checked.
func VerifyTx(cfg Config, tx *txs.Tx) error {
	utx := &tx.Unsigned
	if utx.Command == nil {
		return Verify(cfg, nil, nil, nil, nil)
	}
	if err := utx.SyntacticVerify(); err != nil {
		return &ValidationError{
			Command: utx.Command.String(),
			Rule:    "transaction must be well-formed",
			Err:     fmt.Errorf("%w: %w", ErrMalformedCommand, err),
		}
	}
	return Verify(cfg, utx.Command, utx.Ins, utx.Outs, utx.SignerSet())
}

type verifier struct {
	cfg Config
	*view
}

func (v *verifier) Create(cmd *txs.Create) error {
	if len(v.debtIns) != 0 {
		return v.failRef(ruleNoDebtInputs, v.debtIns[0].Ref, nil)
	}
	if len(v.debtOuts) != 1 {
		return v.fail(ruleOneDebtOutput)
	}

	debt := v.debtOuts[0]
	switch {
	case debt.Lender == debt.Borrower:
		return v.fail(ruleDistinctParties)
	case debt.Amount == 0:
		return v.fail(rulePositiveDebt)
	}

	return v.verifyDebtCommand(cmd.Movement, debt.Lender, debt.Borrower, debt.Amount)
}

func (v *verifier) Pay(cmd *txs.Pay) error {
	if len(v.debtOuts) != 0 {
		return v.fail(ruleNoDebtOutputs)
	}
	if len(v.debtIns) != 1 {
		return v.fail(ruleOneDebtInput)
	}

	debtIn := v.debtIns[0]
	debt := debtIn.State.(*states.Debt)
	if debt.Amount == 0 {
		return v.failRef(rulePositiveDebt, debtIn.Ref, nil)
	}

	return v.verifyDebtCommand(cmd.Movement, debt.Borrower, debt.Lender, debt.Amount)
}

func (v *verifier) PartialPay(cmd *txs.PartialPay) error {
	if len(v.debtIns) != 1 {
		return v.fail(ruleOneDebtInput)
	}
	if len(v.debtOuts) != 1 {
		return v.fail(ruleOneDebtOutput)
	}

	debtIn := v.debtIns[0]
	in := debtIn.State.(*states.Debt)
	out := v.debtOuts[0]
	switch {
	case in.ID != out.ID || in.Lender != out.Lender || in.Borrower != out.Borrower:
		return v.failRef(ruleSameDebt, debtIn.Ref, nil)
	case out.Amount >= in.Amount:
		return v.failRef(ruleDebtDecreases, debtIn.Ref, fmt.Errorf("%d -> %d", in.Amount, out.Amount))
	case out.Amount == 0:
		return v.failRef(rulePositiveDebt, debtIn.Ref, nil)
	}

	return v.verifyDebtCommand(cmd.Movement, in.Borrower, in.Lender, in.Amount-out.Amount)
}

func (v *verifier) Issue(*txs.Issue) error {
	if len(v.cashIns) != 0 {
		return v.failRef(ruleNoCashInputs, v.cashIns[0].ref, nil)
	}
	if err := v.verifyNoDebts(); err != nil {
		return err
	}
	if len(v.cashOuts) != 1 {
		return v.fail(ruleOneCashOutput)
	}

	out := v.cashOuts[0]
	switch {
	case out.Owner != v.cfg.IssuingAuthority:
		return v.failErr(ruleIssuedToAuthority, fmt.Errorf("issued to %s", out.Owner))
	case out.Amount == 0:
		return v.fail(rulePositiveAmounts)
	}

	return v.verifyUniversal(false)
}

func (v *verifier) Transfer(*txs.Transfer) error {
	if err := v.verifyNoDebts(); err != nil {
		return err
	}
	if err := v.verifyTransfer(); err != nil {
		return err
	}
	return v.verifyUniversal(true)
}

func (v *verifier) TransferPartial(*txs.TransferPartial) error {
	if err := v.verifyNoDebts(); err != nil {
		return err
	}
	if err := v.verifyTransferPartial(); err != nil {
		return err
	}
	return v.verifyUniversal(true)
}

// verifyDebtCommand applies the rules shared by every command that moves cash
// from [payer] to [payee] to create or settle a debt.
func (v *verifier) verifyDebtCommand(m txs.Movement, payer, payee ids.ShortID, amount uint64) error {
	if err := v.verifyMovement(m); err != nil {
		return err
	}
	if err := v.verifyFunding(payer, payee, amount); err != nil {
		return err
	}
	return v.verifyUniversal(true)
}

func (v *verifier) verifyUniversal(conserve bool) error {
	if err := v.verifyWellFormed(); err != nil {
		return err
	}
	if err := v.verifySignersComplete(); err != nil {
		return err
	}
	if conserve {
		return v.verifyConservation()
	}
	return nil
}
