// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package meterdb

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/utils/wrappers"
)

const methodLabel = "method"

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
	_ database.Iterator = (*iterator)(nil)

	methodLabels = []string{methodLabel}

	hasLabels      = prometheus.Labels{methodLabel: "has"}
	getLabels      = prometheus.Labels{methodLabel: "get"}
	putLabels      = prometheus.Labels{methodLabel: "put"}
	delLabels      = prometheus.Labels{methodLabel: "delete"}
	newBatchLabels = prometheus.Labels{methodLabel: "new_batch"}
	newIterLabels  = prometheus.Labels{methodLabel: "new_iterator"}
	closeLabels    = prometheus.Labels{methodLabel: "close"}
	healthLabels   = prometheus.Labels{methodLabel: "health_check"}

	batchPutLabels    = prometheus.Labels{methodLabel: "batch_put"}
	batchDeleteLabels = prometheus.Labels{methodLabel: "batch_delete"}
	batchWriteLabels  = prometheus.Labels{methodLabel: "batch_write"}
	batchResetLabels  = prometheus.Labels{methodLabel: "batch_reset"}
	batchReplayLabels = prometheus.Labels{methodLabel: "batch_replay"}

	iterNextLabels    = prometheus.Labels{methodLabel: "iterator_next"}
	iterReleaseLabels = prometheus.Labels{methodLabel: "iterator_release"}
)

// Database tracks the number of calls, the time spent in them and the bytes
// moved through every method of the wrapped database.
type Database struct {
	db database.Database

	calls    *prometheus.CounterVec
	duration *prometheus.CounterVec
	size     *prometheus.CounterVec
}

// New returns a database that meters [db], with its metrics registered on
// [reg] under [namespace].
func New(namespace string, reg prometheus.Registerer, db database.Database) (*Database, error) {
	meterDB := &Database{
		db: db,
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls",
				Help:      "number of calls to the database",
			},
			methodLabels,
		),
		duration: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duration",
				Help:      "time spent in database calls (ns)",
			},
			methodLabels,
		),
		size: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "size",
				Help:      "size of data passed in database calls",
			},
			methodLabels,
		),
	}

	errs := wrappers.Errs{}
	errs.Add(
		reg.Register(meterDB.calls),
		reg.Register(meterDB.duration),
		reg.Register(meterDB.size),
	)
	return meterDB, errs.Err
}

func (db *Database) Has(key []byte) (bool, error) {
	start := time.Now()
	exists, err := db.db.Has(key)
	db.observe(hasLabels, start, len(key))
	return exists, err
}

func (db *Database) Get(key []byte) ([]byte, error) {
	start := time.Now()
	value, err := db.db.Get(key)
	db.observe(getLabels, start, len(key)+len(value))
	return value, err
}

func (db *Database) Put(key, value []byte) error {
	start := time.Now()
	err := db.db.Put(key, value)
	db.observe(putLabels, start, len(key)+len(value))
	return err
}

func (db *Database) Delete(key []byte) error {
	start := time.Now()
	err := db.db.Delete(key)
	db.observe(delLabels, start, len(key))
	return err
}

func (db *Database) NewBatch() database.Batch {
	start := time.Now()
	b := &batch{
		batch: db.db.NewBatch(),
		db:    db,
	}
	db.observe(newBatchLabels, start, 0)
	return b
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

func (db *Database) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator {
	startTime := time.Now()
	it := &iterator{
		iterator: db.db.NewIteratorWithStartAndPrefix(start, prefix),
		db:       db,
	}
	db.observe(newIterLabels, startTime, len(start)+len(prefix))
	return it
}

func (db *Database) Close() error {
	start := time.Now()
	err := db.db.Close()
	db.observe(closeLabels, start, 0)
	return err
}

func (db *Database) HealthCheck(ctx context.Context) (interface{}, error) {
	start := time.Now()
	result, err := db.db.HealthCheck(ctx)
	db.observe(healthLabels, start, 0)
	return result, err
}

func (db *Database) observe(labels prometheus.Labels, start time.Time, size int) {
	db.calls.With(labels).Inc()
	db.duration.With(labels).Add(float64(time.Since(start)))
	db.size.With(labels).Add(float64(size))
}

type batch struct {
	batch database.Batch
	db    *Database
}

func (b *batch) Put(key, value []byte) error {
	start := time.Now()
	err := b.batch.Put(key, value)
	b.db.observe(batchPutLabels, start, len(key)+len(value))
	return err
}

func (b *batch) Delete(key []byte) error {
	start := time.Now()
	err := b.batch.Delete(key)
	b.db.observe(batchDeleteLabels, start, len(key))
	return err
}

func (b *batch) Size() int {
	return b.batch.Size()
}

func (b *batch) Write() error {
	start := time.Now()
	err := b.batch.Write()
	b.db.observe(batchWriteLabels, start, b.batch.Size())
	return err
}

func (b *batch) Reset() {
	start := time.Now()
	b.batch.Reset()
	b.db.observe(batchResetLabels, start, 0)
}

func (b *batch) Replay(w database.KeyValueWriterDeleter) error {
	start := time.Now()
	err := b.batch.Replay(w)
	b.db.observe(batchReplayLabels, start, 0)
	return err
}

func (b *batch) Inner() database.Batch {
	return b.batch.Inner()
}

type iterator struct {
	iterator database.Iterator
	db       *Database
}

func (it *iterator) Next() bool {
	start := time.Now()
	next := it.iterator.Next()
	it.db.observe(iterNextLabels, start, len(it.iterator.Key())+len(it.iterator.Value()))
	return next
}

func (it *iterator) Error() error {
	return it.iterator.Error()
}

func (it *iterator) Key() []byte {
	return it.iterator.Key()
}

func (it *iterator) Value() []byte {
	return it.iterator.Value()
}

func (it *iterator) Release() {
	start := time.Now()
	it.iterator.Release()
	it.db.observe(iterReleaseLabels, start, 0)
}
