// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/builder"
)

// Vault is the party's view of current states.
type Vault interface {
	builder.StateLoader

	IsCurrent(ref states.Ref) bool
	HasTx(txID ids.ID) (bool, error)
	GetTx(txID ids.ID) (*txs.Tx, error)

	// RecordFinalized atomically retires the inputs of [tx] and installs its
	// outputs. It must be idempotent.
	RecordFinalized(tx *txs.Tx) error
}
