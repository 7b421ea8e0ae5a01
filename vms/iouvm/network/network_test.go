// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/api/server"
	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/metric"
	"github.com/ava-labs/iouledger/utils/rpc"
	"github.com/ava-labs/iouledger/vms/iouvm/flow"
	"github.com/ava-labs/iouledger/vms/iouvm/notary"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/builder"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
	"github.com/ava-labs/iouledger/vms/iouvm/vault"
)

var (
	keys = secp256k1.TestKeys()

	lenderKey   = keys[0]
	borrowerKey = keys[1]
	notaryKey   = keys[2]

	lender   = lenderKey.Address()
	borrower = borrowerKey.Address()
)

func testConfig() flow.Config {
	return flow.Config{
		Config: executor.Config{
			IssuingAuthority: lender,
		},
		Notary:          notaryKey.Address(),
		ProposeTimeout:  flow.DefaultProposeTimeout,
		NotarizeTimeout: flow.DefaultNotarizeTimeout,
	}
}

func newVault(t *testing.T, party ids.ShortID) *vault.Vault {
	v, err := vault.New(logging.NoLog{}, memdb.New(), []ids.ShortID{party}, "", prometheus.NewRegistry())
	require.NoError(t, err)
	return v
}

// serve exposes [handler] over a test HTTP server and returns its URI.
func serve(t *testing.T, handler flow.Handler) string {
	require := require.New(t)

	interceptor, err := metric.NewAPIInterceptor("", prometheus.NewRegistry())
	require.NoError(err)
	h, err := NewHandler(NewService(logging.NoLog{}, handler), interceptor)
	require.NoError(err)

	s := server.New(logging.NoLog{}, "127.0.0.1", 0, nil, ids.ShortEmpty, nil)
	require.NoError(s.AddRoute(
		&server.HTTPHandler{LockOptions: server.NoLock, Handler: h},
		&sync.RWMutex{},
		Endpoint,
		"",
	))

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

// newLender returns the lender's initiator reaching the borrower's
// [responder] over JSON-RPC.
func newLender(t *testing.T, responder *flow.Responder) (*flow.Initiator, *vault.Vault) {
	require := require.New(t)

	n, err := notary.NewUniqueness(logging.NoLog{}, testConfig().Config, notaryKey, memdb.New(), "", prometheus.NewRegistry())
	require.NoError(err)

	client := NewClient(map[ids.ShortID]string{
		borrower: serve(t, responder),
	})

	v := newVault(t, lender)
	initiator, err := flow.NewInitiator(logging.NoLog{}, testConfig(), lenderKey, v, n, client, "", prometheus.NewRegistry())
	require.NoError(err)
	return initiator, v
}

func lend(t *testing.T, initiator *flow.Initiator, amount uint64) *flow.Instance {
	require := require.New(t)

	issue := initiator.NewInstance(func(b builder.Builder) (*txs.Tx, error) {
		return b.NewIssueCashTx(builder.IssueCash{
			Owner:  lender,
			Amount: amount,
		})
	})
	_, err := issue.Run(context.Background())
	require.NoError(err)
	cash := issue.Tx().Outputs()[0].Ref

	return initiator.NewInstance(func(b builder.Builder) (*txs.Tx, error) {
		return b.NewCreateDebtTx(builder.CreateDebt{
			Lender:   lender,
			Borrower: borrower,
			Amount:   amount,
			Cash:     cash,
		})
	})
}

func TestAgreementOverRPC(t *testing.T) {
	require := require.New(t)

	borrowerVault := newVault(t, borrower)
	responder := flow.NewResponder(logging.NoLog{}, testConfig(), borrowerKey, borrowerVault, nil)
	initiator, lenderVault := newLender(t, responder)

	inst := lend(t, initiator, 50)
	txID, err := inst.Run(context.Background())
	require.NoError(err)
	require.Equal(flow.Finalized, inst.Status())

	for _, v := range []*vault.Vault{lenderVault, borrowerVault} {
		recorded, err := v.HasTx(txID)
		require.NoError(err)
		require.True(recorded)
		require.Len(v.Debts(borrower), 1)
	}
}

func TestRefusalOverRPC(t *testing.T) {
	require := require.New(t)

	borrowerVault := newVault(t, borrower)
	responder := flow.NewResponder(logging.NoLog{}, testConfig(), borrowerKey, borrowerVault, flow.MaxDebtAmount(100))
	initiator, lenderVault := newLender(t, responder)

	inst := lend(t, initiator, 150)
	_, err := inst.Run(context.Background())
	require.ErrorIs(err, flow.ErrRejected)
	require.False(flow.IsRecoverable(err))

	var rejected *flow.RejectedError
	require.ErrorAs(err, &rejected)
	require.Equal(borrower, rejected.Party)
	require.Contains(rejected.Reason, flow.ErrPolicyViolation.Error())

	require.Empty(lenderVault.Debts(lender))
	require.Empty(borrowerVault.Debts(borrower))
}

func TestClientUnknownPeer(t *testing.T) {
	client := NewClient(nil)

	_, err := client.Propose(context.Background(), borrower, nil)
	require.ErrorIs(t, err, flow.ErrUnreachable)
	require.ErrorIs(t, client.Finalize(context.Background(), borrower, nil), flow.ErrUnreachable)
}

func TestClientTransportFailureIsRecoverable(t *testing.T) {
	require := require.New(t)

	srv := httptest.NewServer(nil)
	uri := srv.URL
	srv.Close()

	n, err := notary.NewUniqueness(logging.NoLog{}, testConfig().Config, notaryKey, memdb.New(), "", prometheus.NewRegistry())
	require.NoError(err)
	client := NewClient(map[ids.ShortID]string{borrower: uri})
	initiator, err := flow.NewInitiator(logging.NoLog{}, testConfig(), lenderKey, newVault(t, lender), n, client, "", prometheus.NewRegistry())
	require.NoError(err)

	inst := lend(t, initiator, 10)
	_, err = inst.Run(context.Background())
	require.ErrorIs(err, rpc.ErrTransport)
	require.True(flow.IsRecoverable(err))
	require.Equal(flow.AwaitingCountersignature, inst.Status())
}

func TestFinalizeErrorOverRPC(t *testing.T) {
	require := require.New(t)

	responder := flow.NewResponder(logging.NoLog{}, testConfig(), borrowerKey, newVault(t, borrower), nil)
	client := NewClient(map[ids.ShortID]string{
		borrower: serve(t, responder),
	})

	tx, err := txs.NewTx(txs.UnsignedTx{
		Salt:    ids.GenerateTestID(),
		Outs:    []states.State{&states.Cash{Amount: 1, Owner: lender}},
		Command: &txs.Issue{},
		Signers: []ids.ShortID{lender},
		Notary:  notaryKey.Address(),
	})
	require.NoError(err)

	// Without finality the borrower refuses to record it.
	err = client.Finalize(context.Background(), borrower, tx)
	require.ErrorContains(err, txs.ErrMissingFinality.Error())
	require.NotErrorIs(err, rpc.ErrTransport)
}
