// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"context"
	"time"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
)

const (
	DefaultProposeTimeout  = 10 * time.Second
	DefaultNotarizeTimeout = 10 * time.Second
)

type Config struct {
	executor.Config `json:"executor"`

	// Notary is the only notary whose finality is accepted.
	Notary ids.ShortID `json:"notary"`

	// ProposeTimeout bounds every round trip to a counterparty. Zero
	// disables the bound.
	ProposeTimeout time.Duration `json:"proposeTimeout"`

	// NotarizeTimeout bounds every round trip to the notary. Zero disables
	// the bound.
	NotarizeTimeout time.Duration `json:"notarizeTimeout"`
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
