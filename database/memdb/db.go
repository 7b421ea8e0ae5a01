// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memdb

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/iouledger/database"
)

// Name is the name of this database for database switches
const Name = "memdb"

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
	_ database.Iterator = (*iterator)(nil)
)

// Database keeps every entry in memory. It backs tests and the in-process
// demo ledger, where nothing needs to outlive the process.
type Database struct {
	lock sync.RWMutex
	// nil once closed
	entries map[string][]byte
}

func New() *Database {
	return &Database{entries: make(map[string][]byte)}
}

func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.entries == nil {
		return database.ErrClosed
	}
	db.entries = nil
	return nil
}

func (db *Database) closed() bool {
	db.lock.RLock()
	defer db.lock.RUnlock()

	return db.entries == nil
}

func (db *Database) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.entries == nil {
		return false, database.ErrClosed
	}
	_, ok := db.entries[string(key)]
	return ok, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.entries == nil {
		return nil, database.ErrClosed
	}
	value, ok := db.entries[string(key)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return slices.Clone(value), nil
}

func (db *Database) Put(key []byte, value []byte) error {
	return db.apply([]database.BatchOp{{
		Key:   key,
		Value: slices.Clone(value),
	}})
}

func (db *Database) Delete(key []byte) error {
	return db.apply([]database.BatchOp{{
		Key:    key,
		Delete: true,
	}})
}

// apply performs [ops] atomically.
func (db *Database) apply(ops []database.BatchOp) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.entries == nil {
		return database.ErrClosed
	}
	for _, op := range ops {
		if op.Delete {
			delete(db.entries, string(op.Key))
			continue
		}
		db.entries[string(op.Key)] = op.Value
	}
	return nil
}

func (db *Database) NewBatch() database.Batch {
	return &batch{db: db}
}

func (db *Database) NewIterator() database.Iterator {
	return db.NewIteratorWithStartAndPrefix(nil, nil)
}

func (db *Database) NewIteratorWithStart(start []byte) database.Iterator {
	return db.NewIteratorWithStartAndPrefix(start, nil)
}

func (db *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	return db.NewIteratorWithStartAndPrefix(nil, prefix)
}

// NewIteratorWithStartAndPrefix iterates over a snapshot of the keys taken
// when it is created. Writes made afterwards are not observed.
func (db *Database) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.entries == nil {
		return &database.IteratorError{Err: database.ErrClosed}
	}

	keys := maps.Keys(db.entries)
	matching := keys[:0]
	for _, key := range keys {
		if strings.HasPrefix(key, string(prefix)) && key >= string(start) {
			matching = append(matching, key)
		}
	}
	keys = matching
	slices.Sort(keys)

	snapshot := make([]database.BatchOp, len(keys))
	for i, key := range keys {
		snapshot[i] = database.BatchOp{
			Key:   []byte(key),
			Value: db.entries[key],
		}
	}
	return &iterator{
		db:      db,
		entries: snapshot,
		index:   -1,
	}
}

func (db *Database) HealthCheck(context.Context) (interface{}, error) {
	if db.closed() {
		return nil, database.ErrClosed
	}
	return nil, nil
}

type batch struct {
	database.BatchOps

	db *Database
}

func (b *batch) Write() error {
	return b.db.apply(b.Ops)
}

func (b *batch) Inner() database.Batch {
	return b
}

type iterator struct {
	db      *Database
	entries []database.BatchOp
	index   int
	err     error
}

func (it *iterator) Next() bool {
	if it.db.closed() {
		it.entries = nil
		it.err = database.ErrClosed
		return false
	}
	if it.index < len(it.entries) {
		it.index++
	}
	return it.index < len(it.entries)
}

func (it *iterator) Error() error {
	return it.err
}

func (it *iterator) current() (database.BatchOp, bool) {
	if it.index < 0 || it.index >= len(it.entries) {
		return database.BatchOp{}, false
	}
	return it.entries[it.index], true
}

func (it *iterator) Key() []byte {
	entry, ok := it.current()
	if !ok {
		return nil
	}
	return slices.Clone(entry.Key)
}

func (it *iterator) Value() []byte {
	entry, ok := it.current()
	if !ok {
		return nil
	}
	return slices.Clone(entry.Value)
}

func (it *iterator) Release() {
	it.entries = nil
}
