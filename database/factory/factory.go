// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package factory

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/database/corruptabledb"
	"github.com/ava-labs/iouledger/database/leveldb"
	"github.com/ava-labs/iouledger/database/memdb"
	"github.com/ava-labs/iouledger/database/meterdb"
	"github.com/ava-labs/iouledger/utils/logging"
)

type DatabaseConfig struct {
	// Name of the database type to use
	Name string `json:"name"`

	// Path to database
	Path string `json:"path"`

	LevelDB leveldb.Config `json:"leveldb"`
}

// NewDatabase opens the database described by [dbConfig]. The returned
// database refuses further use after an unexpected error and reports its
// calls on [registerer] under [namespace].
func NewDatabase(
	dbConfig DatabaseConfig,
	logger logging.Logger,
	namespace string,
	registerer prometheus.Registerer,
) (database.Database, error) {
	var (
		db  database.Database
		err error
	)
	switch dbConfig.Name {
	case leveldb.Name:
		db, err = leveldb.New(dbConfig.Path, logger, dbConfig.LevelDB)
		if err != nil {
			return nil, fmt.Errorf("couldn't create %s at %s: %w", leveldb.Name, dbConfig.Path, err)
		}
	case memdb.Name:
		db = memdb.New()
	default:
		return nil, fmt.Errorf(
			"db-type was %q but should have been one of {%s, %s}",
			dbConfig.Name,
			leveldb.Name,
			memdb.Name,
		)
	}

	db = corruptabledb.New(db)
	meterDB, err := meterdb.New(namespace, registerer, db)
	if err != nil {
		return nil, fmt.Errorf("couldn't create meterdb: %w", err)
	}
	return meterDB, nil
}
