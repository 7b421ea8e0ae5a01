// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/api/server"
	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/metric"
	"github.com/ava-labs/iouledger/vms/iouvm/flow"
	"github.com/ava-labs/iouledger/vms/iouvm/network"
	"github.com/ava-labs/iouledger/vms/iouvm/notary"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
)

// serveNodes runs a notary, a bank and a customer behind their own HTTP
// servers and returns caller clients for the bank and the customer.
func serveNodes(t *testing.T) (*Client, *Client) {
	require := require.New(t)

	bankKey, customerKey, notaryKey := keys[0], keys[1], keys[2]
	uniqueness, err := notary.NewUniqueness(logging.NoLog{}, executor.Config{IssuingAuthority: bankKey.Address()}, notaryKey, memdb.New(), "", prometheus.NewRegistry())
	require.NoError(err)

	notaryServer := server.New(logging.NoLog{}, "127.0.0.1", 0, nil, notaryKey.Address(), nil)
	notaryHandler, err := notary.NewHandler(notary.NewService(logging.NoLog{}, uniqueness), nil)
	require.NoError(err)
	require.NoError(notaryServer.AddRoute(
		&server.HTTPHandler{LockOptions: server.NoLock, Handler: notaryHandler},
		&sync.RWMutex{},
		notary.Endpoint,
		"",
	))
	notarySrv := httptest.NewServer(notaryServer.Handler())
	t.Cleanup(notarySrv.Close)

	cfg := Config{
		Config: flow.Config{
			Config: executor.Config{
				IssuingAuthority: bankKey.Address(),
			},
			Notary:          notaryKey.Address(),
			ProposeTimeout:  flow.DefaultProposeTimeout,
			NotarizeTimeout: flow.DefaultNotarizeTimeout,
		},
	}

	peers := network.NewClient(nil)
	clients := make([]*Client, 2)
	for i, key := range []*secp256k1.PrivateKey{bankKey, customerKey} {
		registerer := prometheus.NewRegistry()
		n, err := New(logging.NoLog{}, cfg, key, memdb.New(), notary.NewClient(notarySrv.URL), peers, registerer)
		require.NoError(err)

		interceptor, err := metric.NewAPIInterceptor("api", registerer)
		require.NoError(err)

		s := server.New(logging.NoLog{}, "127.0.0.1", 0, nil, n.ID(), nil)
		require.NoError(n.RegisterRoutes(s, interceptor))

		srv := httptest.NewServer(s.Handler())
		t.Cleanup(srv.Close)

		peers.AddPeer(n.ID(), srv.URL)
		clients[i] = NewClient(srv.URL)
	}
	return clients[0], clients[1]
}

func TestServiceLendAndRepay(t *testing.T) {
	require := require.New(t)

	bank, customer := serveNodes(t)
	ctx := context.Background()

	bankID, balance, err := bank.Balance(ctx)
	require.NoError(err)
	require.Equal(keys[0].Address(), bankID)
	require.Zero(balance)

	_, err = bank.IssueCash(ctx, 100)
	require.NoError(err)

	customerID, _, err := customer.Balance(ctx)
	require.NoError(err)
	_, err = bank.CreateDebt(ctx, 60, customerID)
	require.NoError(err)

	debts, err := customer.Debts(ctx)
	require.NoError(err)
	require.Len(debts, 1)
	debt, ok := debts[0].State.(*states.Debt)
	require.True(ok)
	require.Equal(uint64(60), debt.Amount)
	require.Equal(bankID, debt.Lender)

	_, err = customer.SettleDebt(ctx, debts[0].Ref, 0)
	require.NoError(err)

	debts, err = bank.Debts(ctx)
	require.NoError(err)
	require.Empty(debts)

	_, balance, err = bank.Balance(ctx)
	require.NoError(err)
	require.Equal(uint64(100), balance)

	cash, err := customer.Cash(ctx)
	require.NoError(err)
	require.Empty(cash)
}

func TestServiceTransferAndResume(t *testing.T) {
	require := require.New(t)

	bank, customer := serveNodes(t)
	ctx := context.Background()

	_, err := bank.IssueCash(ctx, 10)
	require.NoError(err)
	customerID, _, err := customer.Balance(ctx)
	require.NoError(err)
	_, err = bank.TransferCash(ctx, 4, customerID)
	require.NoError(err)

	_, balance, err := customer.Balance(ctx)
	require.NoError(err)
	require.Equal(uint64(4), balance)

	pending, err := bank.Resume(ctx)
	require.NoError(err)
	require.Zero(pending)
}

func TestServiceReportsBuildErrors(t *testing.T) {
	bank, customer := serveNodes(t)

	customerID, _, err := customer.Balance(context.Background())
	require.NoError(t, err)
	_, err = bank.CreateDebt(context.Background(), 10, customerID)
	require.ErrorContains(t, err, "no cash")
}
