// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

var (
	// ErrTransport marks failures where the request may not have reached the
	// remote handler, or its reply was lost.
	ErrTransport = errors.New("transport failure")

	_ EndpointRequester = (*endpointRequester)(nil)
)

type EndpointRequester interface {
	SendRequest(ctx context.Context, method string, params interface{}, reply interface{}, options ...Option) error
}

type endpointRequester struct {
	client *http.Client
	uri    string
	base   string
}

// NewEndpointRequester returns a requester that issues [base].[method] calls
// against [uri].
func NewEndpointRequester(uri, base string) EndpointRequester {
	return &endpointRequester{
		client: &http.Client{Timeout: defaultRequestTimeout},
		uri:    strings.TrimSuffix(uri, "/"),
		base:   base,
	}
}

func (e *endpointRequester) SendRequest(
	ctx context.Context,
	method string,
	params interface{},
	reply interface{},
	options ...Option,
) error {
	uri, err := url.Parse(e.uri)
	if err != nil {
		return err
	}
	return SendJSONRequest(
		ctx,
		e.client,
		uri,
		fmt.Sprintf("%s.%s", e.base, method),
		params,
		reply,
		options...,
	)
}
