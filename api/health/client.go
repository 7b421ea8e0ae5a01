// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/ava-labs/iouledger/api/server"
	"github.com/ava-labs/iouledger/utils/rpc"
)

type Client struct {
	requester rpc.EndpointRequester
}

// NewClient returns a client for the health service of the process at
// [uri], such as "http://127.0.0.1:9650".
func NewClient(uri string) *Client {
	return &Client{
		requester: rpc.NewEndpointRequester(
			fmt.Sprintf("%s%s/%s", uri, server.BaseURL, Endpoint),
			Endpoint,
		),
	}
}

// Readiness returns if the process has finished initialization
func (c *Client) Readiness(ctx context.Context, options ...rpc.Option) (*APIReply, error) {
	res := &APIReply{}
	err := c.requester.SendRequest(ctx, "readiness", &struct{}{}, res, options...)
	return res, err
}

// Health returns a summation of the health of the process
func (c *Client) Health(ctx context.Context, options ...rpc.Option) (*APIReply, error) {
	res := &APIReply{}
	err := c.requester.SendRequest(ctx, "health", &struct{}{}, res, options...)
	return res, err
}

// AwaitReady polls the process every [freq] until it reports ready.
// Only returns an error if [ctx] returns an error.
func AwaitReady(ctx context.Context, c *Client, freq time.Duration, options ...rpc.Option) (bool, error) {
	return await(ctx, freq, c.Readiness, options...)
}

// AwaitHealthy polls the process every [freq] until it reports healthy.
// Only returns an error if [ctx] returns an error.
func AwaitHealthy(ctx context.Context, c *Client, freq time.Duration, options ...rpc.Option) (bool, error) {
	return await(ctx, freq, c.Health, options...)
}

func await(
	ctx context.Context,
	freq time.Duration,
	check func(ctx context.Context, options ...rpc.Option) (*APIReply, error),
	options ...rpc.Option,
) (bool, error) {
	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		res, err := check(ctx, options...)
		if err == nil && res.Healthy {
			return true, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
