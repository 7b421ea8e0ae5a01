// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prefixdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/database/dbtest"
	"github.com/ava-labs/iouledger/database/memdb"
)

func TestInterface(t *testing.T) {
	for name, test := range dbtest.Tests {
		t.Run(name, func(t *testing.T) {
			db := memdb.New()
			test(t, New([]byte("hello"), db))
			test(t, New([]byte("world"), db))
			test(t, New([]byte("wor"), New([]byte("ld"), db)))
			test(t, New([]byte("ld"), New([]byte("wor"), db)))
			test(t, NewNested([]byte("wor"), New([]byte("ld"), db)))
			test(t, NewNested([]byte("ld"), New([]byte("wor"), db)))
		})
	}
}

func TestPrefixesAreIsolated(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	cash := New([]byte("cash"), base)
	debt := New([]byte("debt"), base)

	require.NoError(cash.Put([]byte("k"), []byte("cash")))
	require.NoError(debt.Put([]byte("k"), []byte("debt")))

	v, err := cash.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("cash"), v)

	v, err = debt.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("debt"), v)

	require.NoError(cash.Delete([]byte("k")))
	_, err = cash.Get([]byte("k"))
	require.ErrorIs(err, database.ErrNotFound)

	has, err := debt.Has([]byte("k"))
	require.NoError(err)
	require.True(has)
}

func TestBatchSpansPrefixes(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	cash := New([]byte("cash"), base)
	debt := New([]byte("debt"), base)

	outer := base.NewBatch()
	cashBatch := cash.NewBatch()
	require.NoError(cashBatch.Put([]byte("a"), []byte{1}))
	require.NoError(cashBatch.Replay(prefixWriter{db: cash, batch: outer}))

	debtBatch := debt.NewBatch()
	require.NoError(debtBatch.Put([]byte("b"), []byte{2}))
	require.NoError(debtBatch.Replay(prefixWriter{db: debt, batch: outer}))

	has, err := cash.Has([]byte("a"))
	require.NoError(err)
	require.False(has)

	require.NoError(outer.Write())

	has, err = cash.Has([]byte("a"))
	require.NoError(err)
	require.True(has)

	has, err = debt.Has([]byte("b"))
	require.NoError(err)
	require.True(has)
}

type prefixWriter struct {
	db    *Database
	batch database.Batch
}

func (w prefixWriter) Put(key, value []byte) error {
	return w.batch.Put(w.db.prefix(key), value)
}

func (w prefixWriter) Delete(key []byte) error {
	return w.batch.Delete(w.db.prefix(key))
}
