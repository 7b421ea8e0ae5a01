// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package builder

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

const (
	opCreateDebt   = "create debt"
	opSettleDebt   = "settle debt"
	opIssueCash    = "issue cash"
	opTransferCash = "transfer cash"
)

var _ Builder = (*builder)(nil)

// StateLoader resolves a reference to the state it currently points at.
type StateLoader interface {
	// LoadCurrentState returns states.ErrStaleReference if [ref] has been
	// consumed and states.ErrReferenceNotFound if it was never recorded.
	LoadCurrentState(ref states.Ref) (states.State, error)
}

// Builder turns caller intents into unsigned transactions.
type Builder interface {
	NewCreateDebtTx(CreateDebt) (*txs.Tx, error)
	NewSettleDebtTx(SettleDebt) (*txs.Tx, error)
	NewIssueCashTx(IssueCash) (*txs.Tx, error)
	NewTransferCashTx(TransferCash) (*txs.Tx, error)
}

type builder struct {
	loader StateLoader
	notary ids.ShortID
}

func New(loader StateLoader, notary ids.ShortID) Builder {
	return &builder{
		loader: loader,
		notary: notary,
	}
}

func (b *builder) NewCreateDebtTx(intent CreateDebt) (*txs.Tx, error) {
	switch {
	case intent.Lender == intent.Borrower:
		return nil, &BuildError{Op: opCreateDebt, Err: ErrSelfDealing}
	case intent.Amount == 0:
		return nil, &BuildError{Op: opCreateDebt, Err: ErrZeroAmount}
	}

	in, cash, err := b.loadCash(opCreateDebt, intent.Cash, intent.Lender)
	if err != nil {
		return nil, err
	}
	movement, cashOuts, err := cover(cash, intent.Borrower, intent.Amount)
	if err != nil {
		return nil, &BuildError{Op: opCreateDebt, Ref: &in.Ref, Err: err}
	}

	outs := append(
		[]states.State{states.NewDebt(intent.Amount, intent.Lender, intent.Borrower)},
		cashOuts...,
	)
	return b.newTx(opCreateDebt, []*states.Output{in}, outs, &txs.Create{Movement: movement})
}

func (b *builder) NewSettleDebtTx(intent SettleDebt) (*txs.Tx, error) {
	debtIn, debt, err := b.loadDebt(opSettleDebt, intent.Debt)
	if err != nil {
		return nil, err
	}

	payment := intent.Amount
	switch {
	case payment == 0:
		payment = debt.Amount
	case payment > debt.Amount:
		return nil, &BuildError{
			Op:  opSettleDebt,
			Ref: &debtIn.Ref,
			Err: fmt.Errorf("%w: paying %d of %d", ErrOverpayment, payment, debt.Amount),
		}
	}

	cashIn, cash, err := b.loadCash(opSettleDebt, intent.Cash, debt.Borrower)
	if err != nil {
		return nil, err
	}
	movement, cashOuts, err := cover(cash, debt.Lender, payment)
	if err != nil {
		return nil, &BuildError{Op: opSettleDebt, Ref: &cashIn.Ref, Err: err}
	}

	ins := []*states.Output{debtIn, cashIn}
	if payment == debt.Amount {
		return b.newTx(opSettleDebt, ins, cashOuts, &txs.Pay{Movement: movement})
	}

	outs := append(
		[]states.State{debt.Revise(debt.Amount - payment)},
		cashOuts...,
	)
	return b.newTx(opSettleDebt, ins, outs, &txs.PartialPay{Movement: movement})
}

func (b *builder) NewIssueCashTx(intent IssueCash) (*txs.Tx, error) {
	if intent.Amount == 0 {
		return nil, &BuildError{Op: opIssueCash, Err: ErrZeroAmount}
	}
	outs := []states.State{
		&states.Cash{
			Amount: intent.Amount,
			Owner:  intent.Owner,
		},
	}
	return b.newTx(opIssueCash, nil, outs, &txs.Issue{})
}

func (b *builder) NewTransferCashTx(intent TransferCash) (*txs.Tx, error) {
	switch {
	case intent.From == intent.To:
		return nil, &BuildError{Op: opTransferCash, Err: ErrSelfDealing}
	case intent.Amount == 0:
		return nil, &BuildError{Op: opTransferCash, Err: ErrZeroAmount}
	}

	in, cash, err := b.loadCash(opTransferCash, intent.Cash, intent.From)
	if err != nil {
		return nil, err
	}
	movement, outs, err := cover(cash, intent.To, intent.Amount)
	if err != nil {
		return nil, &BuildError{Op: opTransferCash, Ref: &in.Ref, Err: err}
	}

	var cmd txs.Command = &txs.Transfer{}
	if movement == txs.SplitMovement {
		cmd = &txs.TransferPartial{}
	}
	return b.newTx(opTransferCash, []*states.Output{in}, outs, cmd)
}

// cover pays [required] out of [cash] to [payee]. Any change is returned to
// the original owner as a second output.
func cover(cash *states.Cash, payee ids.ShortID, required uint64) (txs.Movement, []states.State, error) {
	if cash.Amount < required {
		return 0, nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, cash.Amount, required)
	}

	payment := &states.Cash{
		Amount: required,
		Owner:  payee,
	}
	change := cash.Amount - required
	if change == 0 {
		return txs.FullMovement, []states.State{payment}, nil
	}
	return txs.SplitMovement, []states.State{
		payment,
		&states.Cash{
			Amount: change,
			Owner:  cash.Owner,
		},
	}, nil
}

func (b *builder) load(op string, ref states.Ref) (*states.Output, error) {
	st, err := b.loader.LoadCurrentState(ref)
	if err != nil {
		return nil, &BuildError{Op: op, Ref: &ref, Err: err}
	}
	return &states.Output{
		Ref:   ref,
		State: st,
	}, nil
}

func (b *builder) loadCash(op string, ref states.Ref, owner ids.ShortID) (*states.Output, *states.Cash, error) {
	in, err := b.load(op, ref)
	if err != nil {
		return nil, nil, err
	}
	cash, ok := in.State.(*states.Cash)
	if !ok {
		return nil, nil, &BuildError{
			Op:  op,
			Ref: &ref,
			Err: fmt.Errorf("%w: expected cash, found %s", ErrWrongStateType, in.State.Type()),
		}
	}
	if cash.Owner != owner {
		return nil, nil, &BuildError{
			Op:  op,
			Ref: &ref,
			Err: fmt.Errorf("%w: owned by %s, not %s", ErrOwnershipMismatch, cash.Owner, owner),
		}
	}
	return in, cash, nil
}

func (b *builder) loadDebt(op string, ref states.Ref) (*states.Output, *states.Debt, error) {
	in, err := b.load(op, ref)
	if err != nil {
		return nil, nil, err
	}
	debt, ok := in.State.(*states.Debt)
	if !ok {
		return nil, nil, &BuildError{
			Op:  op,
			Ref: &ref,
			Err: fmt.Errorf("%w: expected debt, found %s", ErrWrongStateType, in.State.Type()),
		}
	}
	return in, debt, nil
}

func (b *builder) newTx(op string, ins []*states.Output, outs []states.State, cmd txs.Command) (*txs.Tx, error) {
	var salt ids.ID
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, &BuildError{Op: op, Err: err}
	}

	utx := txs.UnsignedTx{
		Salt:    salt,
		Ins:     ins,
		Outs:    outs,
		Command: cmd,
		Notary:  b.notary,
	}
	utx.Signers = sortedSigners(utx.Participants())

	tx, err := txs.NewTx(utx)
	if err != nil {
		return nil, &BuildError{Op: op, Err: err}
	}
	return tx, nil
}

func sortedSigners(parties set.Set[ids.ShortID]) []ids.ShortID {
	signers := parties.List()
	slices.SortFunc(signers, func(a, b ids.ShortID) bool {
		return a.Compare(b) < 0
	})
	return signers
}
