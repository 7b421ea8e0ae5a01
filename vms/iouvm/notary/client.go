// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notary

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/api/server"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/cb58"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/rpc"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

var (
	_ Notary = (*Client)(nil)

	errInvalidSignatureLen = errors.New("invalid finality signature length")
)

// Client talks to a remote notary over JSON-RPC.
type Client struct {
	requester rpc.EndpointRequester
}

// NewClient returns a client for the notary served at [uri], for example
// "http://127.0.0.1:9650".
func NewClient(uri string) *Client {
	return &Client{
		requester: rpc.NewEndpointRequester(
			fmt.Sprintf("%s%s/%s", uri, server.BaseURL, Endpoint),
			Endpoint,
		),
	}
}

func (c *Client) Notarize(ctx context.Context, tx *txs.Tx) (*txs.Finality, error) {
	reply := &NotarizeReply{}
	err := c.requester.SendRequest(ctx, "notarize", &NotarizeArgs{
		Tx: tx,
	}, reply)
	if err != nil {
		return nil, err
	}
	if !reply.Notarized {
		return nil, &DoubleSpendError{
			Ref:             reply.ConflictingRef,
			ConflictingTxID: reply.ConflictingTxID,
		}
	}
	return parseFinalityReply(reply.Timestamp, reply.Signature)
}

func (c *Client) Finality(ctx context.Context, txID ids.ID) (*txs.Finality, error) {
	reply := &FinalityReply{}
	err := c.requester.SendRequest(ctx, "finality", &FinalityArgs{
		TxID: txID,
	}, reply)
	if err != nil {
		return nil, err
	}
	if !reply.Notarized {
		return nil, fmt.Errorf("%w: %s", ErrNotNotarized, txID)
	}
	return parseFinalityReply(reply.Timestamp, reply.Signature)
}

func parseFinalityReply(timestamp int64, signature string) (*txs.Finality, error) {
	sig, err := cb58.Decode(signature)
	if err != nil {
		return nil, err
	}
	if len(sig) != secp256k1.SignatureLen {
		return nil, fmt.Errorf("%w: %d", errInvalidSignatureLen, len(sig))
	}
	f := &txs.Finality{Timestamp: timestamp}
	copy(f.Sig[:], sig)
	return f, nil
}
