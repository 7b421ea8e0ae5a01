// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"fmt"

	"github.com/ava-labs/iouledger/api/server"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/rpc"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

// Client issues caller operations against a running node.
type Client struct {
	requester rpc.EndpointRequester
}

// NewClient returns a client for the node at [uri], such as
// "http://127.0.0.1:9650".
func NewClient(uri string) *Client {
	return &Client{
		requester: rpc.NewEndpointRequester(
			fmt.Sprintf("%s%s/%s", uri, server.BaseURL, Endpoint),
			Endpoint,
		),
	}
}

func (c *Client) CreateDebt(ctx context.Context, amount uint64, borrower ids.ShortID, options ...rpc.Option) (ids.ID, error) {
	reply := &TxIDReply{}
	err := c.requester.SendRequest(ctx, "createDebt", &CreateDebtArgs{
		Amount:   amount,
		Borrower: borrower,
	}, reply, options...)
	return reply.TxID, err
}

func (c *Client) SettleDebt(ctx context.Context, debt states.Ref, amount uint64, options ...rpc.Option) (ids.ID, error) {
	reply := &TxIDReply{}
	err := c.requester.SendRequest(ctx, "settleDebt", &SettleDebtArgs{
		Debt:   debt,
		Amount: amount,
	}, reply, options...)
	return reply.TxID, err
}

func (c *Client) IssueCash(ctx context.Context, amount uint64, options ...rpc.Option) (ids.ID, error) {
	reply := &TxIDReply{}
	err := c.requester.SendRequest(ctx, "issueCash", &AmountArgs{
		Amount: amount,
	}, reply, options...)
	return reply.TxID, err
}

func (c *Client) TransferCash(ctx context.Context, amount uint64, to ids.ShortID, options ...rpc.Option) (ids.ID, error) {
	reply := &TxIDReply{}
	err := c.requester.SendRequest(ctx, "transferCash", &TransferCashArgs{
		Amount: amount,
		To:     to,
	}, reply, options...)
	return reply.TxID, err
}

func (c *Client) Debts(ctx context.Context, options ...rpc.Option) ([]*states.Output, error) {
	reply := &OutputsReply{}
	err := c.requester.SendRequest(ctx, "debts", &struct{}{}, reply, options...)
	return reply.Outputs, err
}

func (c *Client) Cash(ctx context.Context, options ...rpc.Option) ([]*states.Output, error) {
	reply := &OutputsReply{}
	err := c.requester.SendRequest(ctx, "cash", &struct{}{}, reply, options...)
	return reply.Outputs, err
}

// Balance returns the node's party and the total cash it owns.
func (c *Client) Balance(ctx context.Context, options ...rpc.Option) (ids.ShortID, uint64, error) {
	reply := &BalanceReply{}
	err := c.requester.SendRequest(ctx, "balance", &struct{}{}, reply, options...)
	return reply.Party, reply.Balance, err
}

// Resume returns the number of agreements still suspended afterwards.
func (c *Client) Resume(ctx context.Context, options ...rpc.Option) (int, error) {
	reply := &PendingReply{}
	err := c.requester.SendRequest(ctx, "resume", &struct{}{}, reply, options...)
	return reply.Pending, err
}
