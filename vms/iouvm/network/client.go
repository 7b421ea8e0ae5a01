// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/iouledger/api/server"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/cb58"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/rpc"
	"github.com/ava-labs/iouledger/vms/iouvm/flow"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

var (
	_ flow.Counterparty = (*Client)(nil)

	errInvalidSignatureLen = errors.New("invalid countersignature length")
	errNotRecorded         = errors.New("party did not record the transaction")
)

// Client reaches other parties over JSON-RPC. Peers are addressed through a
// static directory mapping each party to the URI of its node.
type Client struct {
	lock       sync.RWMutex
	requesters map[ids.ShortID]rpc.EndpointRequester
}

// NewClient returns a client for the parties in [peers], which maps each
// party to a URI such as "http://127.0.0.1:9650".
func NewClient(peers map[ids.ShortID]string) *Client {
	c := &Client{
		requesters: make(map[ids.ShortID]rpc.EndpointRequester, len(peers)),
	}
	for party, uri := range peers {
		c.AddPeer(party, uri)
	}
	return c
}

// AddPeer routes messages for [party] to the node at [uri].
func (c *Client) AddPeer(party ids.ShortID, uri string) {
	requester := rpc.NewEndpointRequester(
		fmt.Sprintf("%s%s/%s", uri, server.BaseURL, Endpoint),
		Endpoint,
	)

	c.lock.Lock()
	defer c.lock.Unlock()

	c.requesters[party] = requester
}

func (c *Client) Propose(ctx context.Context, party ids.ShortID, tx *txs.Tx) (*flow.Response, error) {
	requester, err := c.requester(party)
	if err != nil {
		return nil, err
	}

	reply := &ProposeReply{}
	err = requester.SendRequest(ctx, "propose", &TxArgs{
		Tx: tx,
	}, reply)
	if err != nil {
		return nil, err
	}

	resp := &flow.Response{
		Accepted: reply.Accepted,
		Reason:   reply.Reason,
	}
	if !reply.Accepted {
		return resp, nil
	}

	sig, err := cb58.Decode(reply.Signature)
	if err != nil {
		return nil, err
	}
	if len(sig) != secp256k1.SignatureLen {
		return nil, fmt.Errorf("%w: %d", errInvalidSignatureLen, len(sig))
	}
	copy(resp.Sig[:], sig)
	return resp, nil
}

func (c *Client) Finalize(ctx context.Context, party ids.ShortID, tx *txs.Tx) error {
	requester, err := c.requester(party)
	if err != nil {
		return err
	}

	reply := &FinalizeReply{}
	err = requester.SendRequest(ctx, "finalize", &TxArgs{
		Tx: tx,
	}, reply)
	if err != nil {
		return err
	}
	if !reply.Recorded {
		return fmt.Errorf("%w: %s", errNotRecorded, party)
	}
	return nil
}

func (c *Client) requester(party ids.ShortID) (rpc.EndpointRequester, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	requester, ok := c.requesters[party]
	if !ok {
		return nil, fmt.Errorf("%w: %s", flow.ErrUnreachable, party)
	}
	return requester, nil
}
