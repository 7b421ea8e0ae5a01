// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package states

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ava-labs/iouledger/ids"
)

var (
	_ State = (*Debt)(nil)

	errNilDebt     = errors.New("nil debt")
	errEmptyDebtID = errors.New("debt has no linear id")
	errZeroDebt    = errors.New("debt amount must be positive")
	errSelfDebt    = errors.New("lender and borrower must differ")
)

// Debt is an obligation of [Borrower] to repay [Amount] to [Lender]. Partial
// repayments produce a successor with the same ID and a smaller Amount.
type Debt struct {
	ID       uuid.UUID   `json:"id"`
	Amount   uint64      `json:"amount"`
	Lender   ids.ShortID `json:"lender"`
	Borrower ids.ShortID `json:"borrower"`
}

// NewDebt returns a debt with a fresh linear ID.
func NewDebt(amount uint64, lender, borrower ids.ShortID) *Debt {
	return &Debt{
		ID:       uuid.New(),
		Amount:   amount,
		Lender:   lender,
		Borrower: borrower,
	}
}

func (*Debt) Type() Type {
	return DebtType
}

func (d *Debt) Participants() []ids.ShortID {
	return []ids.ShortID{d.Lender, d.Borrower}
}

// Revise returns the successor of this debt with the outstanding amount
// replaced.
func (d *Debt) Revise(amount uint64) *Debt {
	return &Debt{
		ID:       d.ID,
		Amount:   amount,
		Lender:   d.Lender,
		Borrower: d.Borrower,
	}
}

func (d *Debt) Equal(other State) bool {
	o, ok := other.(*Debt)
	if !ok || d == nil || o == nil {
		return ok && d == o
	}
	return *d == *o
}

func (d *Debt) Verify() error {
	switch {
	case d == nil:
		return errNilDebt
	case d.ID == uuid.Nil:
		return errEmptyDebtID
	case d.Amount == 0:
		return errZeroDebt
	case d.Lender == d.Borrower:
		return errSelfDebt
	default:
		return nil
	}
}

func (d *Debt) String() string {
	return fmt.Sprintf("Debt(%s, %d, %s -> %s)", d.ID, d.Amount, d.Lender, d.Borrower)
}
