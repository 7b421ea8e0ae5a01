// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/iouledger/database"
)

// Tests is a list of all database tests
var Tests = map[string]func(t *testing.T, db database.Database){
	"SimpleKeyValue":         TestSimpleKeyValue,
	"KeyEmptyValue":          TestKeyEmptyValue,
	"SimpleKeyValueClosed":   TestSimpleKeyValueClosed,
	"MemorySafetyDatabase":   TestMemorySafetyDatabase,
	"BatchPut":               TestBatchPut,
	"BatchDelete":            TestBatchDelete,
	"BatchReset":             TestBatchReset,
	"BatchReplay":            TestBatchReplay,
	"BatchInner":             TestBatchInner,
	"Iterator":               TestIterator,
	"IteratorStart":          TestIteratorStart,
	"IteratorPrefix":         TestIteratorPrefix,
	"IteratorStartPrefix":    TestIteratorStartPrefix,
	"IteratorClosed":         TestIteratorClosed,
	"HealthCheck":            TestHealthCheck,
	"ClearPrefix":            TestClearPrefix,
	"CountAndDefaultHelpers": TestCountAndDefaultHelpers,
}

// TestSimpleKeyValue tests to make sure that simple Put + Get + Delete + Has
// calls return the expected values.
func TestSimpleKeyValue(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)

	_, err = db.Get(key)
	require.Equal(database.ErrNotFound, err)

	require.NoError(db.Delete(key))
	require.NoError(db.Put(key, value))

	has, err = db.Has(key)
	require.NoError(err)
	require.True(has)

	v, err := db.Get(key)
	require.NoError(err)
	require.Equal(value, v)

	require.NoError(db.Delete(key))

	has, err = db.Has(key)
	require.NoError(err)
	require.False(has)

	_, err = db.Get(key)
	require.Equal(database.ErrNotFound, err)

	require.NoError(db.Delete(key))
}

func TestKeyEmptyValue(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	val := []byte(nil)

	_, err := db.Get(key)
	require.Equal(database.ErrNotFound, err)

	require.NoError(db.Put(key, val))

	value, err := db.Get(key)
	require.NoError(err)
	require.Empty(value)
}

// TestSimpleKeyValueClosed tests to make sure that Put + Get + Delete + Has
// calls return the correct error when the database has been closed.
func TestSimpleKeyValueClosed(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	require.NoError(db.Put(key, value))
	require.NoError(db.Close())

	_, err := db.Has(key)
	require.Equal(database.ErrClosed, err)

	_, err = db.Get(key)
	require.Equal(database.ErrClosed, err)

	require.Equal(database.ErrClosed, db.Put(key, value))
	require.Equal(database.ErrClosed, db.Delete(key))
	require.Equal(database.ErrClosed, db.Close())
}

// TestMemorySafetyDatabase ensures it is safe to modify a key after passing it
// to Database.Put and Database.Get.
func TestMemorySafetyDatabase(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("1key")
	keyCopy := []byte("1key")
	value := []byte("value")
	key2 := []byte("2key")
	value2 := []byte("value2")

	require.NoError(db.Put(key, value))
	key[0] = '2'
	gotVal, err := db.Get(keyCopy)
	require.NoError(err)
	require.Equal(value, gotVal)

	require.NoError(db.Put(key2, value2))
	gotVal, err = db.Get(key)
	require.NoError(err)
	require.Equal(value2, gotVal)
}

// TestBatchPut tests to make sure that batched writes work as expected.
func TestBatchPut(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	batch := db.NewBatch()
	require.NotNil(batch)

	require.NoError(batch.Put(key, value))
	require.Positive(batch.Size())

	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)

	require.NoError(batch.Write())

	v, err := db.Get(key)
	require.NoError(err)
	require.Equal(value, v)

	require.NoError(db.Close())
	batch = db.NewBatch()
	require.NoError(batch.Put(key, value))
	require.Equal(database.ErrClosed, batch.Write())
}

// TestBatchDelete tests to make sure that batched deletes work as expected.
func TestBatchDelete(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	require.NoError(db.Put(key, value))

	batch := db.NewBatch()
	require.NoError(batch.Delete(key))
	require.NoError(batch.Write())

	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)

	_, err = db.Get(key)
	require.Equal(database.ErrNotFound, err)
}

// TestBatchReset tests to make sure that a batch drops un-written operations
// when it is reset.
func TestBatchReset(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	require.NoError(db.Put(key, value))

	batch := db.NewBatch()
	require.NoError(batch.Delete(key))

	batch.Reset()
	require.Zero(batch.Size())
	require.NoError(batch.Write())

	v, err := db.Get(key)
	require.NoError(err)
	require.Equal(value, v)
}

// TestBatchReplay tests to make sure that batches will correctly replay their
// contents in order.
func TestBatchReplay(t *testing.T, db database.Database) {
	require := require.New(t)

	key1 := []byte("hello1")
	value1 := []byte("world1")

	key2 := []byte("hello2")
	value2 := []byte("world2")

	batch := db.NewBatch()
	require.NoError(batch.Put(key1, value1))
	require.NoError(batch.Put(key2, value2))
	require.NoError(batch.Delete(key1))

	replayed := &database.BatchOps{}
	require.NoError(batch.Replay(replayed))
	require.Equal([]database.BatchOp{
		{Key: key1, Value: value1},
		{Key: key2, Value: value2},
		{Key: key1, Delete: true},
	}, replayed.Ops)
}

// TestBatchInner tests to make sure that inner can be used to write to the
// database.
func TestBatchInner(t *testing.T, db database.Database) {
	require := require.New(t)

	key := []byte("hello")
	value := []byte("world")

	batch := db.NewBatch()
	require.NoError(batch.Put(key, value))

	inner := batch.Inner()
	require.NotNil(inner)
	require.NoError(inner.Write())

	has, err := db.Has(key)
	require.NoError(err)
	require.True(has)
}

func putAll(t *testing.T, db database.KeyValueWriter, kvs map[string]string) {
	for k, v := range kvs {
		require.NoError(t, db.Put([]byte(k), []byte(v)))
	}
}

func iterateAll(t *testing.T, it database.Iterator) ([]string, []string) {
	defer it.Release()

	var keys, values []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
		values = append(values, string(it.Value()))
	}
	require.NoError(t, it.Error())
	return keys, values
}

// TestIterator tests to make sure the database iterates over the database
// contents lexicographically.
func TestIterator(t *testing.T, db database.Database) {
	require := require.New(t)

	putAll(t, db, map[string]string{
		"hello2": "world2",
		"hello1": "world1",
	})

	keys, values := iterateAll(t, db.NewIterator())
	require.Equal([]string{"hello1", "hello2"}, keys)
	require.Equal([]string{"world1", "world2"}, values)
}

// TestIteratorStart tests to make sure the the iterator can be configured to
// start mid way through the database.
func TestIteratorStart(t *testing.T, db database.Database) {
	require := require.New(t)

	putAll(t, db, map[string]string{
		"hello1": "world1",
		"hello2": "world2",
	})

	keys, _ := iterateAll(t, db.NewIteratorWithStart([]byte("hello2")))
	require.Equal([]string{"hello2"}, keys)
}

// TestIteratorPrefix tests to make sure the iterator can be configured to skip
// keys missing the provided prefix.
func TestIteratorPrefix(t *testing.T, db database.Database) {
	require := require.New(t)

	putAll(t, db, map[string]string{
		"hello":   "world1",
		"goodbye": "world2",
		"joy":     "world3",
	})

	keys, values := iterateAll(t, db.NewIteratorWithPrefix([]byte("h")))
	require.Equal([]string{"hello"}, keys)
	require.Equal([]string{"world1"}, values)
}

// TestIteratorStartPrefix tests to make sure that the iterator can start mid
// way through the database while skipping a prefix.
func TestIteratorStartPrefix(t *testing.T, db database.Database) {
	require := require.New(t)

	putAll(t, db, map[string]string{
		"hello1": "world1",
		"z":      "world2",
		"hello3": "world3",
	})

	keys, _ := iterateAll(t, db.NewIteratorWithStartAndPrefix([]byte("hello1"), []byte("h")))
	require.Equal([]string{"hello1", "hello3"}, keys)

	keys, _ = iterateAll(t, db.NewIteratorWithStartAndPrefix([]byte("hello2"), []byte("h")))
	require.Equal([]string{"hello3"}, keys)
}

// TestIteratorClosed tests to make sure that an iterator that was created with
// a closed database will report a closed error correctly.
func TestIteratorClosed(t *testing.T, db database.Database) {
	require := require.New(t)

	require.NoError(db.Put([]byte("hello1"), []byte("world1")))

	it := db.NewIterator()
	require.NoError(db.Close())

	require.False(it.Next())
	require.Nil(it.Key())
	require.Nil(it.Value())
	require.Equal(database.ErrClosed, it.Error())
	it.Release()

	it = db.NewIterator()
	defer it.Release()

	require.False(it.Next())
	require.Equal(database.ErrClosed, it.Error())
}

func TestHealthCheck(t *testing.T, db database.Database) {
	require := require.New(t)

	_, err := db.HealthCheck(context.Background())
	require.NoError(err)

	require.NoError(db.Close())

	_, err = db.HealthCheck(context.Background())
	require.Equal(database.ErrClosed, err)
}

func TestClearPrefix(t *testing.T, db database.Database) {
	require := require.New(t)

	putAll(t, db, map[string]string{
		"cash1": "a",
		"cash2": "b",
		"debt1": "c",
	})

	require.NoError(database.ClearPrefix(db, []byte("cash"), 1))

	keys, _ := iterateAll(t, db.NewIterator())
	require.Equal([]string{"debt1"}, keys)
}

func TestCountAndDefaultHelpers(t *testing.T, db database.Database) {
	require := require.New(t)

	kvs := map[string]string{
		"a": "1",
		"b": "2",
		"c": "3",
	}
	putAll(t, db, kvs)

	count, err := database.Count(db)
	require.NoError(err)
	require.Equal(len(kvs), count)

	require.NoError(database.PutUInt64(db, []byte("height"), 7))
	height, err := database.WithDefault(database.GetUInt64, db, []byte("height"), 0)
	require.NoError(err)
	require.Equal(uint64(7), height)

	missing, err := database.WithDefault(database.GetUInt64, db, []byte("missing"), 42)
	require.NoError(err)
	require.Equal(uint64(42), missing)
}
