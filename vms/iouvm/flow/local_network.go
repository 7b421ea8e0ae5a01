// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

var _ Counterparty = (*LocalNetwork)(nil)

// LocalNetwork delivers messages between parties hosted in one process.
// Transactions are copied through their serialized form so that no memory is
// shared between the sender and the receiver.
type LocalNetwork struct {
	lock     sync.RWMutex
	handlers map[ids.ShortID]Handler
}

func NewLocalNetwork() *LocalNetwork {
	return &LocalNetwork{
		handlers: make(map[ids.ShortID]Handler),
	}
}

// Register routes messages for [party] to [handler].
func (n *LocalNetwork) Register(party ids.ShortID, handler Handler) {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.handlers[party] = handler
}

// Disconnect makes [party] unreachable until it is registered again.
func (n *LocalNetwork) Disconnect(party ids.ShortID) {
	n.lock.Lock()
	defer n.lock.Unlock()

	delete(n.handlers, party)
}

func (n *LocalNetwork) Propose(ctx context.Context, party ids.ShortID, tx *txs.Tx) (*Response, error) {
	handler, cpy, err := n.route(ctx, party, tx)
	if err != nil {
		return nil, err
	}
	return handler.Propose(ctx, cpy)
}

func (n *LocalNetwork) Finalize(ctx context.Context, party ids.ShortID, tx *txs.Tx) error {
	handler, cpy, err := n.route(ctx, party, tx)
	if err != nil {
		return err
	}
	return handler.Finalize(ctx, cpy)
}

func (n *LocalNetwork) route(ctx context.Context, party ids.ShortID, tx *txs.Tx) (Handler, *txs.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	n.lock.RLock()
	handler, ok := n.handlers[party]
	n.lock.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnreachable, party)
	}

	b, err := tx.Bytes()
	if err != nil {
		return nil, nil, err
	}
	cpy, err := txs.Parse(b)
	return handler, cpy, err
}
