// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"context"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

// Response is a counterparty's answer to a proposal. If Accepted is false
// Reason explains the refusal.
type Response struct {
	Accepted bool
	Sig      [secp256k1.SignatureLen]byte
	Reason   string
}

// Counterparty is a private channel to other parties, addressed by their
// identity.
type Counterparty interface {
	// Propose asks [party] to countersign [tx].
	Propose(ctx context.Context, party ids.ShortID, tx *txs.Tx) (*Response, error)

	// Finalize delivers the notarized [tx] to [party].
	Finalize(ctx context.Context, party ids.ShortID, tx *txs.Tx) error
}

// Handler answers the messages a Counterparty delivers to one party.
type Handler interface {
	Propose(ctx context.Context, tx *txs.Tx) (*Response, error)
	Finalize(ctx context.Context, tx *txs.Tx) error
}
