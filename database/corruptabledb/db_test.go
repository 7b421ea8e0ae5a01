// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package corruptabledb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/database/dbtest"
	"github.com/ava-labs/iouledger/database/memdb"
)

var errTest = errors.New("non-nil error")

func TestInterface(t *testing.T) {
	for name, test := range dbtest.Tests {
		t.Run(name, func(t *testing.T) {
			test(t, New(memdb.New()))
		})
	}
}

func TestCorruption(t *testing.T) {
	key := []byte("hello")
	value := []byte("world")
	tests := map[string]func(db database.Database) error{
		"corrupted has": func(db database.Database) error {
			_, err := db.Has(key)
			return err
		},
		"corrupted get": func(db database.Database) error {
			_, err := db.Get(key)
			return err
		},
		"corrupted put": func(db database.Database) error {
			return db.Put(key, value)
		},
		"corrupted delete": func(db database.Database) error {
			return db.Delete(key)
		},
		"corrupted batch": func(db database.Database) error {
			b := db.NewBatch()
			require.NoError(t, b.Put(key, value))
			return b.Write()
		},
		"corrupted healthcheck": func(db database.Database) error {
			_, err := db.HealthCheck(context.Background())
			return err
		},
	}

	db := New(memdb.New())
	require.ErrorIs(t, db.handleError(errTest), errTest)
	for name, testFn := range tests {
		t.Run(name, func(t *testing.T) {
			err := testFn(db)
			require.ErrorIs(t, err, errTest)
			require.ErrorIs(t, err, database.ErrAvoidCorruption)
		})
	}
}

func TestNotFoundIsNotCorruption(t *testing.T) {
	require := require.New(t)

	db := New(memdb.New())
	_, err := db.Get([]byte("missing"))
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(db.Put([]byte("k"), []byte("v")))
	_, err = db.HealthCheck(context.Background())
	require.NoError(err)
}
