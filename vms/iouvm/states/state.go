// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package states

import (
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/ids"
)

var (
	ErrStaleReference    = errors.New("reference has already been consumed")
	ErrReferenceNotFound = errors.New("reference not found")

	errUnknownStateType = errors.New("unknown state type")
)

// Type tags the concrete kind of a State in its serialized form.
type Type byte

const (
	CashType Type = iota + 1
	DebtType
)

func (t Type) String() string {
	switch t {
	case CashType:
		return "cash"
	case DebtType:
		return "debt"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// State is an immutable ledger record. A state is never modified in place; a
// transaction consumes it and produces its successor.
type State interface {
	fmt.Stringer

	Type() Type

	// Participants returns the parties that must sign any transaction that
	// consumes or produces this state.
	Participants() []ids.ShortID

	// Equal reports whether the two states are structurally identical.
	Equal(State) bool

	// Verify performs the checks that do not depend on any other state.
	Verify() error
}

// Cashes returns the Cash states found in [sts], in order.
func Cashes(sts []State) []*Cash {
	var cash []*Cash
	for _, st := range sts {
		if c, ok := st.(*Cash); ok {
			cash = append(cash, c)
		}
	}
	return cash
}

// Debts returns the Debt states found in [sts], in order.
func Debts(sts []State) []*Debt {
	var debts []*Debt
	for _, st := range sts {
		if d, ok := st.(*Debt); ok {
			debts = append(debts, d)
		}
	}
	return debts
}

// IsParticipant reports whether [party] is one of [st]'s participants.
func IsParticipant(st State, party ids.ShortID) bool {
	for _, p := range st.Participants() {
		if p == party {
			return true
		}
	}
	return false
}
