// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/database/prefixdb"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

var (
	keys      = secp256k1.TestKeys()
	alice     = keys[0].Address()
	bob       = keys[1].Address()
	notaryKey = keys[2]
)

func newVault(t *testing.T, db database.Database, parties ...ids.ShortID) *Vault {
	v, err := New(logging.NoLog{}, db, parties, "", prometheus.NewRegistry())
	require.NoError(t, err)
	return v
}

func finalize(t *testing.T, ins []*states.Output, outs []states.State, cmd txs.Command) *txs.Tx {
	require := require.New(t)

	utx := txs.UnsignedTx{
		Salt:    ids.GenerateTestID(),
		Ins:     ins,
		Outs:    outs,
		Command: cmd,
		Notary:  notaryKey.Address(),
	}
	utx.Signers = utx.Participants().List()
	tx, err := txs.NewTx(utx)
	require.NoError(err)

	tx.Finality, err = txs.NewFinality(notaryKey, tx.ID(), 1)
	require.NoError(err)
	return tx
}

func issue(t *testing.T, v *Vault, amount uint64, owner ids.ShortID) *states.Output {
	tx := finalize(t, nil, []states.State{&states.Cash{Amount: amount, Owner: owner}}, &txs.Issue{})
	require.NoError(t, v.RecordFinalized(tx))
	return tx.Outputs()[0]
}

func TestRecordFinalized(t *testing.T) {
	require := require.New(t)

	v := newVault(t, memdb.New(), alice)
	cash := issue(t, v, 100, alice)

	st, err := v.LoadCurrentState(cash.Ref)
	require.NoError(err)
	require.True(cash.State.Equal(st))
	require.True(v.IsCurrent(cash.Ref))

	debt := states.NewDebt(40, alice, bob)
	tx := finalize(t,
		[]*states.Output{cash},
		[]states.State{
			debt,
			&states.Cash{Amount: 40, Owner: bob},
			&states.Cash{Amount: 60, Owner: alice},
		},
		&txs.Create{Movement: txs.SplitMovement},
	)
	require.NoError(v.RecordFinalized(tx))

	_, err = v.LoadCurrentState(cash.Ref)
	require.ErrorIs(err, states.ErrStaleReference)
	require.False(v.IsCurrent(cash.Ref))

	outs := tx.Outputs()
	require.True(v.IsCurrent(outs[0].Ref))
	require.False(v.IsCurrent(outs[1].Ref)) // bob's cash is not ours
	require.True(v.IsCurrent(outs[2].Ref))

	balance, err := v.Balance(alice)
	require.NoError(err)
	require.Equal(uint64(60), balance)

	debts := v.Debts(alice)
	require.Len(debts, 1)
	require.Equal(outs[0].Ref, debts[0].Ref)
	require.Equal(debts, v.Debts(bob))

	byID, err := v.DebtByID(debt.ID)
	require.NoError(err)
	require.Equal(outs[0].Ref, byID.Ref)

	has, err := v.HasTx(tx.ID())
	require.NoError(err)
	require.True(has)

	stored, err := v.GetTx(tx.ID())
	require.NoError(err)
	require.Equal(tx.ID(), stored.ID())
	require.NotNil(stored.Finality)
}

func TestRecordFinalizedIsIdempotent(t *testing.T) {
	require := require.New(t)

	registry := prometheus.NewRegistry()
	v, err := New(logging.NoLog{}, memdb.New(), []ids.ShortID{alice}, "vault", registry)
	require.NoError(err)

	tx := finalize(t, nil, []states.State{&states.Cash{Amount: 5, Owner: alice}}, &txs.Issue{})
	require.NoError(v.RecordFinalized(tx))
	require.NoError(v.RecordFinalized(tx))

	require.Len(v.Cash(alice), 1)
	require.Equal(float64(1), testutil.ToFloat64(v.metrics.numRecordedTxs))
	require.Equal(float64(1), testutil.ToFloat64(v.metrics.numCash))
	require.Equal(float64(0), testutil.ToFloat64(v.metrics.numDebts))
}

func TestRecordRequiresFinality(t *testing.T) {
	require := require.New(t)

	v := newVault(t, memdb.New(), alice)
	tx := finalize(t, nil, []states.State{&states.Cash{Amount: 5, Owner: alice}}, &txs.Issue{})
	tx.Finality = nil

	err := v.RecordFinalized(tx)
	require.ErrorIs(err, errNotFinalized)
	require.Empty(v.Cash(alice))
}

func TestLoadUnknownRef(t *testing.T) {
	require := require.New(t)

	v := newVault(t, memdb.New(), alice)
	_, err := v.LoadCurrentState(states.Ref{TxID: ids.GenerateTestID()})
	require.ErrorIs(err, states.ErrReferenceNotFound)

	_, err = v.DebtByID(states.NewDebt(1, alice, bob).ID)
	require.ErrorIs(err, states.ErrReferenceNotFound)
}

func TestReopenRebuildsIndex(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	db := prefixdb.New([]byte("vault"), base)
	v := newVault(t, db, alice)
	first := issue(t, v, 10, alice)
	second := issue(t, v, 20, alice)

	tx := finalize(t,
		[]*states.Output{first},
		[]states.State{&states.Cash{Amount: 10, Owner: bob}},
		&txs.Transfer{},
	)
	require.NoError(v.RecordFinalized(tx))

	reopened := newVault(t, prefixdb.New([]byte("vault"), base), alice)
	require.Equal(v.Cash(alice), reopened.Cash(alice))
	require.True(reopened.IsCurrent(second.Ref))

	_, err := reopened.LoadCurrentState(first.Ref)
	require.ErrorIs(err, states.ErrStaleReference)
}

func TestSelectCash(t *testing.T) {
	require := require.New(t)

	v := newVault(t, memdb.New(), alice)
	_, err := v.SelectCash(alice, 1)
	require.ErrorIs(err, ErrNoCash)

	small := issue(t, v, 10, alice)
	medium := issue(t, v, 25, alice)
	large := issue(t, v, 50, alice)

	tests := []struct {
		amount   uint64
		expected *states.Output
	}{
		{amount: 5, expected: small},
		{amount: 10, expected: small},
		{amount: 11, expected: medium},
		{amount: 30, expected: large},
		{amount: 51, expected: large},
	}
	for _, test := range tests {
		selected, err := v.SelectCash(alice, test.amount)
		require.NoError(err)
		require.Equal(test.expected.Ref, selected.Ref)
	}

	_, err = v.SelectCash(bob, 1)
	require.ErrorIs(err, ErrNoCash)
}
