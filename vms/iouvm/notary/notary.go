// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notary

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

var (
	ErrDoubleSpend  = errors.New("input already consumed")
	ErrNotNotarized = errors.New("transaction has not been notarized")
	ErrWrongNotary  = errors.New("transaction names a different notary")
	ErrUnknownInput = errors.New("input was not produced by a notarized transaction")
)

// Notary guarantees that every state reference is consumed by at most one
// transaction.
type Notary interface {
	// Notarize atomically consumes every input of [tx] and returns the
	// notary's finality attestation. If any input was already consumed a
	// *DoubleSpendError is returned and nothing is consumed. Inputs that no
	// notarized transaction produced are refused with ErrUnknownInput.
	Notarize(ctx context.Context, tx *txs.Tx) (*txs.Finality, error)

	// Finality returns the attestation for a previously notarized
	// transaction, or ErrNotNotarized.
	Finality(ctx context.Context, txID ids.ID) (*txs.Finality, error)
}

// DoubleSpendError reports that an input was consumed by another
// transaction. It is never retried.
type DoubleSpendError struct {
	// Ref is the conflicting input. It is nil if the transaction has no
	// inputs and was itself notarized before.
	Ref             *states.Ref
	ConflictingTxID ids.ID
}

func (e *DoubleSpendError) Error() string {
	if e.Ref == nil {
		return fmt.Sprintf("%s: already notarized as %s", ErrDoubleSpend, e.ConflictingTxID)
	}
	return fmt.Sprintf("%s: %s consumed by %s", ErrDoubleSpend, e.Ref, e.ConflictingTxID)
}

func (*DoubleSpendError) Unwrap() error {
	return ErrDoubleSpend
}
