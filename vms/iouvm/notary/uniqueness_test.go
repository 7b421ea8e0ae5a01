// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notary

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
)

var (
	keys = secp256k1.TestKeys()

	authorityKey = keys[0]
	recipientKey = keys[1]
	notaryKey    = keys[2]

	authority = authorityKey.Address()
	recipient = recipientKey.Address()

	testConfig = executor.Config{IssuingAuthority: authority}
)

func newUniquenessWithDB(t *testing.T, db database.Database) *Uniqueness {
	u, err := NewUniqueness(
		logging.NoLog{},
		testConfig,
		notaryKey,
		db,
		"",
		prometheus.NewRegistry(),
	)
	require.NoError(t, err)
	return u
}

func newUniqueness(t *testing.T) *Uniqueness {
	return newUniquenessWithDB(t, memdb.New())
}

// newIssueTx mints [amount] to the issuing authority.
func newIssueTx(t *testing.T, amount uint64, notary ids.ShortID) *txs.Tx {
	require := require.New(t)

	tx, err := txs.NewTx(txs.UnsignedTx{
		Salt:    ids.GenerateTestID(),
		Outs:    []states.State{&states.Cash{Amount: amount, Owner: authority}},
		Command: &txs.Issue{},
		Signers: []ids.ShortID{authority},
		Notary:  notary,
	})
	require.NoError(err)
	require.NoError(tx.Sign(authorityKey))
	return tx
}

// issue notarizes a new issuance of [amount] and returns the cash it
// produced.
func issue(t *testing.T, u *Uniqueness, amount uint64) *states.Output {
	tx := newIssueTx(t, amount, u.ID())
	_, err := u.Notarize(context.Background(), tx)
	require.NoError(t, err)
	return tx.Outputs()[0]
}

// newTransferTx moves all of the authority's cash [in] to the recipient and
// signs it.
func newTransferTx(t *testing.T, in *states.Output, notary ids.ShortID) *txs.Tx {
	require := require.New(t)

	cash := in.State.(*states.Cash)
	tx, err := txs.NewTx(txs.UnsignedTx{
		Salt: ids.GenerateTestID(),
		Ins:  []*states.Output{in},
		Outs: []states.State{
			&states.Cash{Amount: cash.Amount, Owner: recipient},
		},
		Command: &txs.Transfer{},
		Signers: []ids.ShortID{authority, recipient},
		Notary:  notary,
	})
	require.NoError(err)
	require.NoError(tx.Sign(authorityKey))
	require.NoError(tx.Sign(recipientKey))
	return tx
}

// unknownCash is authority owned cash that no notarized transaction
// produced.
func unknownCash(amount uint64) *states.Output {
	return &states.Output{
		Ref: states.Ref{
			TxID:        ids.GenerateTestID(),
			OutputIndex: 1,
		},
		State: &states.Cash{Amount: amount, Owner: authority},
	}
}

func TestNotarize(t *testing.T) {
	require := require.New(t)

	u := newUniqueness(t)
	now := time.Unix(1_700_000_000, 0)
	u.clock.Set(now)

	tx := newTransferTx(t, issue(t, u, 10), u.ID())
	finality, err := u.Notarize(context.Background(), tx)
	require.NoError(err)
	require.Equal(now.Unix(), finality.Timestamp)
	require.NoError(finality.Verify(tx.ID(), notaryKey.Address()))

	stored, err := u.Finality(context.Background(), tx.ID())
	require.NoError(err)
	require.Equal(finality, stored)

	require.Equal(float64(2), testutil.ToFloat64(u.metrics.numNotarized))
}

func TestNotarizeSpendsNotarizedOutputs(t *testing.T) {
	require := require.New(t)

	u := newUniqueness(t)
	transfer := newTransferTx(t, issue(t, u, 10), u.ID())
	_, err := u.Notarize(context.Background(), transfer)
	require.NoError(err)

	// The recipient returns the cash it received.
	received := transfer.Outputs()[0]
	back, err := txs.NewTx(txs.UnsignedTx{
		Salt:    ids.GenerateTestID(),
		Ins:     []*states.Output{received},
		Outs:    []states.State{&states.Cash{Amount: 10, Owner: authority}},
		Command: &txs.Transfer{},
		Signers: []ids.ShortID{authority, recipient},
		Notary:  u.ID(),
	})
	require.NoError(err)
	require.NoError(back.Sign(authorityKey))
	require.NoError(back.Sign(recipientKey))

	_, err = u.Notarize(context.Background(), back)
	require.NoError(err)
}

func TestNotarizeDoubleSpend(t *testing.T) {
	require := require.New(t)

	u := newUniqueness(t)
	cash := issue(t, u, 10)

	first := newTransferTx(t, cash, u.ID())
	_, err := u.Notarize(context.Background(), first)
	require.NoError(err)

	second := newTransferTx(t, cash, u.ID())
	_, err = u.Notarize(context.Background(), second)
	require.ErrorIs(err, ErrDoubleSpend)

	var conflict *DoubleSpendError
	require.ErrorAs(err, &conflict)
	require.Equal(cash.Ref, *conflict.Ref)
	require.Equal(first.ID(), conflict.ConflictingTxID)

	_, err = u.Finality(context.Background(), second.ID())
	require.ErrorIs(err, ErrNotNotarized)

	// The refused transaction's outputs can't be spent.
	has, err := u.db.Has(producedKey(second.Outputs()[0].Ref))
	require.NoError(err)
	require.False(has)

	require.Equal(float64(1), testutil.ToFloat64(u.metrics.numConflicts))
}

func TestNotarizeTwiceIsConflict(t *testing.T) {
	require := require.New(t)

	u := newUniqueness(t)
	tx := newTransferTx(t, issue(t, u, 10), u.ID())

	_, err := u.Notarize(context.Background(), tx)
	require.NoError(err)

	_, err = u.Notarize(context.Background(), tx)
	var conflict *DoubleSpendError
	require.ErrorAs(err, &conflict)
	require.Equal(tx.ID(), conflict.ConflictingTxID)
}

func TestNotarizeIssueTwiceIsConflict(t *testing.T) {
	require := require.New(t)

	u := newUniqueness(t)
	tx := newIssueTx(t, 10, u.ID())

	_, err := u.Notarize(context.Background(), tx)
	require.NoError(err)

	_, err = u.Notarize(context.Background(), tx)
	var conflict *DoubleSpendError
	require.ErrorAs(err, &conflict)
	require.Nil(conflict.Ref)
	require.Equal(tx.ID(), conflict.ConflictingTxID)
}

func TestNotarizeRefusesInvalid(t *testing.T) {
	tests := []struct {
		name        string
		txF         func(*testing.T, *Uniqueness) *txs.Tx
		expectedErr error
	}{
		{
			name: "wrong notary",
			txF: func(t *testing.T, u *Uniqueness) *txs.Tx {
				return newTransferTx(t, issue(t, u, 10), keys[3].Address())
			},
			expectedErr: ErrWrongNotary,
		},
		{
			name: "missing signature",
			txF: func(t *testing.T, u *Uniqueness) *txs.Tx {
				tx := newTransferTx(t, issue(t, u, 10), u.ID())
				tx.Sigs = tx.Sigs[:1]
				return tx
			},
			expectedErr: txs.ErrMissingSignature,
		},
		{
			name: "unknown input",
			txF: func(t *testing.T, u *Uniqueness) *txs.Tx {
				return newTransferTx(t, unknownCash(10), u.ID())
			},
			expectedErr: ErrUnknownInput,
		},
		{
			name: "inflated input",
			txF: func(t *testing.T, u *Uniqueness) *txs.Tx {
				cash := issue(t, u, 10)
				inflated := &states.Output{
					Ref:   cash.Ref,
					State: &states.Cash{Amount: 1000, Owner: authority},
				}
				return newTransferTx(t, inflated, u.ID())
			},
			expectedErr: ErrUnknownInput,
		},
		{
			name: "issued by another party",
			txF: func(t *testing.T, u *Uniqueness) *txs.Tx {
				tx, err := txs.NewTx(txs.UnsignedTx{
					Salt:    ids.GenerateTestID(),
					Outs:    []states.State{&states.Cash{Amount: 1000, Owner: recipient}},
					Command: &txs.Issue{},
					Signers: []ids.ShortID{recipient},
					Notary:  u.ID(),
				})
				require.NoError(t, err)
				require.NoError(t, tx.Sign(recipientKey))
				return tx
			},
			expectedErr: executor.ErrValidation,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			u := newUniqueness(t)
			tx := test.txF(t, u)

			_, err := u.Notarize(context.Background(), tx)
			require.ErrorIs(err, test.expectedErr)
			require.Equal(float64(1), testutil.ToFloat64(u.metrics.numRejected))

			// A refused transaction consumes and produces nothing.
			for _, in := range tx.Unsigned.Ins {
				has, err := u.db.Has(consumedKey(in.Ref))
				require.NoError(err)
				require.False(has)
			}
			for _, out := range tx.Outputs() {
				has, err := u.db.Has(producedKey(out.Ref))
				require.NoError(err)
				require.False(has)
			}
		})
	}
}

func TestNotarizeCanceledContext(t *testing.T) {
	u := newUniqueness(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := u.Notarize(ctx, newIssueTx(t, 10, u.ID()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestFinalityPersists(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	u := newUniquenessWithDB(t, db)

	cash := issue(t, u, 10)
	tx := newTransferTx(t, cash, u.ID())
	finality, err := u.Notarize(context.Background(), tx)
	require.NoError(err)

	restarted := newUniquenessWithDB(t, db)

	stored, err := restarted.Finality(context.Background(), tx.ID())
	require.NoError(err)
	require.Equal(finality, stored)

	_, err = restarted.Notarize(context.Background(), newTransferTx(t, cash, u.ID()))
	require.ErrorIs(err, ErrDoubleSpend)

	// Outputs notarized before the restart remain spendable.
	_, err = restarted.Notarize(context.Background(), newTransferTx(t, issue(t, restarted, 5), u.ID()))
	require.NoError(err)
}
