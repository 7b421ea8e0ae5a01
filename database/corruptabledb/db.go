// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package corruptabledb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/iouledger/database"
)

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
)

// Database is a wrapper around a database.Database. Once the wrapped
// database reports an error other than "not found" or "closed", every
// further call fails, so a vault never keeps building on a store that may
// have lost writes.
type Database struct {
	database.Database

	lock sync.RWMutex
	// the first unexpected error, if any
	initialErr error
}

func New(db database.Database) *Database {
	return &Database{Database: db}
}

func (db *Database) Has(key []byte) (bool, error) {
	if err := db.corrupted(); err != nil {
		return false, err
	}
	has, err := db.Database.Has(key)
	return has, db.handleError(err)
}

func (db *Database) Get(key []byte) ([]byte, error) {
	if err := db.corrupted(); err != nil {
		return nil, err
	}
	value, err := db.Database.Get(key)
	return value, db.handleError(err)
}

func (db *Database) Put(key []byte, value []byte) error {
	if err := db.corrupted(); err != nil {
		return err
	}
	return db.handleError(db.Database.Put(key, value))
}

func (db *Database) Delete(key []byte) error {
	if err := db.corrupted(); err != nil {
		return err
	}
	return db.handleError(db.Database.Delete(key))
}

func (db *Database) Close() error {
	return db.handleError(db.Database.Close())
}

func (db *Database) HealthCheck(ctx context.Context) (interface{}, error) {
	if err := db.corrupted(); err != nil {
		return nil, err
	}
	return db.Database.HealthCheck(ctx)
}

func (db *Database) NewBatch() database.Batch {
	return &batch{
		Batch: db.Database.NewBatch(),
		db:    db,
	}
}

func (db *Database) corrupted() error {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.initialErr == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", database.ErrAvoidCorruption, db.initialErr)
}

func (db *Database) handleError(err error) error {
	if err == nil || errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrClosed) {
		return err
	}

	db.lock.Lock()
	defer db.lock.Unlock()

	if db.initialErr == nil {
		db.initialErr = err
	}
	return err
}

type batch struct {
	database.Batch
	db *Database
}

func (b *batch) Write() error {
	if err := b.db.corrupted(); err != nil {
		return err
	}
	return b.db.handleError(b.Batch.Write())
}
