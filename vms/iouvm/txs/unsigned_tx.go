// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/utils/wrappers"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

var (
	errNilCommand      = errors.New("nil command")
	errNoStates        = errors.New("transaction has no inputs or outputs")
	errNilState        = errors.New("nil state")
	errDuplicateInput  = errors.New("duplicate input")
	errDuplicateSigner = errors.New("duplicate signer")
	errNoSigners       = errors.New("transaction declares no signers")
	errNoNotary        = errors.New("transaction names no notary")
)

// UnsignedTx is the content every required signer commits to.
type UnsignedTx struct {
	// Salt makes otherwise identical transactions distinct.
	Salt ids.ID
	// Ins are the resolved states consumed by this transaction.
	Ins []*states.Output
	// Outs are the states produced by this transaction. The i-th output is
	// referenced by (txID, i).
	Outs    []states.State
	Command Command
	// Signers are the parties whose signatures are required.
	Signers []ids.ShortID
	Notary  ids.ShortID
}

// Bytes returns the canonical encoding of the unsigned transaction.
func (utx *UnsignedTx) Bytes() ([]byte, error) {
	p := wrappers.Packer{MaxSize: MaxTxSize}
	packUnsigned(&p, utx)
	return p.Bytes, p.Err
}

// InputStates returns the states consumed by this transaction.
func (utx *UnsignedTx) InputStates() []states.State {
	sts := make([]states.State, len(utx.Ins))
	for i, in := range utx.Ins {
		sts[i] = in.State
	}
	return sts
}

// Participants returns every participant of every input and output state.
func (utx *UnsignedTx) Participants() set.Set[ids.ShortID] {
	var parties set.Set[ids.ShortID]
	for _, in := range utx.Ins {
		parties.Add(in.State.Participants()...)
	}
	for _, out := range utx.Outs {
		parties.Add(out.Participants()...)
	}
	return parties
}

// SignerSet returns the declared signers as a set.
func (utx *UnsignedTx) SignerSet() set.Set[ids.ShortID] {
	return set.Of(utx.Signers...)
}

// SyntacticVerify performs the structural checks that do not depend on the
// command's rules.
func (utx *UnsignedTx) SyntacticVerify() error {
	switch {
	case utx.Command == nil:
		return errNilCommand
	case len(utx.Ins) == 0 && len(utx.Outs) == 0:
		return errNoStates
	case len(utx.Ins) > MaxInputs:
		return fmt.Errorf("%w: %d > %d", errTooManyInputs, len(utx.Ins), MaxInputs)
	case len(utx.Outs) > MaxOutputs:
		return fmt.Errorf("%w: %d > %d", errTooManyOutputs, len(utx.Outs), MaxOutputs)
	case len(utx.Signers) == 0:
		return errNoSigners
	case len(utx.Signers) > MaxSigners:
		return fmt.Errorf("%w: %d > %d", errTooManySigners, len(utx.Signers), MaxSigners)
	case utx.Notary == ids.ShortEmpty:
		return errNoNotary
	}

	if movement, ok := MovementOf(utx.Command); ok {
		if err := movement.Verify(); err != nil {
			return err
		}
	}

	refs := set.NewSet[states.Ref](len(utx.Ins))
	for i, in := range utx.Ins {
		if in == nil || in.State == nil {
			return fmt.Errorf("%w: input %d", errNilState, i)
		}
		if refs.Contains(in.Ref) {
			return fmt.Errorf("%w: %s", errDuplicateInput, in.Ref)
		}
		refs.Add(in.Ref)
	}
	for i, out := range utx.Outs {
		if out == nil {
			return fmt.Errorf("%w: output %d", errNilState, i)
		}
	}

	signers := set.NewSet[ids.ShortID](len(utx.Signers))
	for _, signer := range utx.Signers {
		if signers.Contains(signer) {
			return fmt.Errorf("%w: %s", errDuplicateSigner, signer)
		}
		signers.Add(signer)
	}
	return nil
}
