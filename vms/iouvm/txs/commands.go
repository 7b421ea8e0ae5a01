// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"fmt"
)

var (
	_ Command = (*Create)(nil)
	_ Command = (*Pay)(nil)
	_ Command = (*PartialPay)(nil)
	_ Command = (*Issue)(nil)
	_ Command = (*Transfer)(nil)
	_ Command = (*TransferPartial)(nil)

	errUnknownMovement = errors.New("unknown cash movement")
)

// Command is the single intent a transaction carries. Its concrete type
// selects the rules that the transaction must satisfy.
type Command interface {
	fmt.Stringer

	Visit(Visitor) error
}

// Movement describes how the cash attached to a debt command moves.
type Movement byte

const (
	// FullMovement moves one cash state to a new owner in its entirety.
	FullMovement Movement = iota + 1
	// SplitMovement moves part of one cash state to a new owner and returns
	// the change to the original owner.
	SplitMovement
)

func (m Movement) String() string {
	switch m {
	case FullMovement:
		return "full"
	case SplitMovement:
		return "split"
	default:
		return fmt.Sprintf("unknown(%d)", byte(m))
	}
}

func (m Movement) Verify() error {
	switch m {
	case FullMovement, SplitMovement:
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownMovement, m)
	}
}

// Create issues a new debt funded by the lender's cash.
type Create struct {
	Movement Movement `json:"movement"`
}

func (c *Create) Visit(v Visitor) error {
	return v.Create(c)
}

func (*Create) String() string {
	return "Create"
}

// Pay retires a debt in full.
type Pay struct {
	Movement Movement `json:"movement"`
}

func (p *Pay) Visit(v Visitor) error {
	return v.Pay(p)
}

func (*Pay) String() string {
	return "Pay"
}

// PartialPay reduces the outstanding amount of a debt.
type PartialPay struct {
	Movement Movement `json:"movement"`
}

func (p *PartialPay) Visit(v Visitor) error {
	return v.PartialPay(p)
}

func (*PartialPay) String() string {
	return "PartialPay"
}

// Issue mints new cash to the issuing authority.
type Issue struct{}

func (i *Issue) Visit(v Visitor) error {
	return v.Issue(i)
}

func (*Issue) String() string {
	return "Issue"
}

// Transfer moves a cash state to a new owner in its entirety.
type Transfer struct{}

func (t *Transfer) Visit(v Visitor) error {
	return v.Transfer(t)
}

func (*Transfer) String() string {
	return "Transfer"
}

// TransferPartial moves part of a cash state to a new owner.
type TransferPartial struct{}

func (t *TransferPartial) Visit(v Visitor) error {
	return v.TransferPartial(t)
}

func (*TransferPartial) String() string {
	return "TransferPartial"
}

// MovementOf returns the cash movement embedded in a debt command.
func MovementOf(cmd Command) (Movement, bool) {
	switch cmd := cmd.(type) {
	case *Create:
		return cmd.Movement, true
	case *Pay:
		return cmd.Movement, true
	case *PartialPay:
		return cmd.Movement, true
	default:
		return 0, false
	}
}
