// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package factory

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/database/leveldb"
	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/utils/logging"
)

func TestNewDatabase(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{
			name: memdb.Name,
		},
		{
			name: leveldb.Name,
			path: filepath.Join(t.TempDir(), "db"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			db, err := NewDatabase(DatabaseConfig{
				Name: test.name,
				Path: test.path,
			}, logging.NoLog{}, "db", prometheus.NewRegistry())
			require.NoError(err)

			require.NoError(db.Put([]byte("key"), []byte("value")))
			value, err := db.Get([]byte("key"))
			require.NoError(err)
			require.Equal([]byte("value"), value)
			require.NoError(db.Close())
		})
	}
}

func TestNewDatabaseUnknownType(t *testing.T) {
	_, err := NewDatabase(DatabaseConfig{Name: "rocksdb"}, logging.NoLog{}, "db", prometheus.NewRegistry())
	require.ErrorContains(t, err, `db-type was "rocksdb"`)
}
