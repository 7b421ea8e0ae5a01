// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/wrappers"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

/*
 * VaultDB
 * |-. states
 * | '-- ref -> state bytes
 * |-. spent
 * | '-- ref -> consuming txID
 * '-. txs
 *   '-- txID -> tx bytes
 */

const refLen = ids.IDLen + wrappers.IntLen

var (
	statePrefix = []byte{0x00}
	spentPrefix = []byte{0x01}
	txPrefix    = []byte{0x02}

	errMalformedRefKey = errors.New("malformed ref key")
)

func Flatten[T any](slices ...[]T) []T {
	var size int
	for _, slice := range slices {
		size += len(slice)
	}

	result := make([]T, 0, size)
	for _, slice := range slices {
		result = append(result, slice...)
	}
	return result
}

func refKey(ref states.Ref) []byte {
	p := wrappers.Packer{Bytes: make([]byte, refLen)}
	states.PackRef(&p, ref)
	return p.Bytes
}

func parseRefKey(key []byte) (states.Ref, error) {
	if len(key) != refLen {
		return states.Ref{}, fmt.Errorf("%w: length %d", errMalformedRefKey, len(key))
	}
	p := wrappers.Packer{Bytes: key}
	return states.UnpackRef(&p), p.Err
}

// State storage

func GetState(db database.KeyValueReader, ref states.Ref) (states.State, error) {
	b, err := db.Get(Flatten(statePrefix, refKey(ref)))
	if err != nil {
		return nil, err
	}
	return states.Unmarshal(b)
}

func PutState(db database.KeyValueWriter, ref states.Ref, st states.State) error {
	b, err := states.Marshal(st)
	if err != nil {
		return err
	}
	return db.Put(Flatten(statePrefix, refKey(ref)), b)
}

func DeleteState(db database.KeyValueDeleter, ref states.Ref) error {
	return db.Delete(Flatten(statePrefix, refKey(ref)))
}

// Spent storage

func GetSpentBy(db database.KeyValueReader, ref states.Ref) (ids.ID, error) {
	return database.GetID(db, Flatten(spentPrefix, refKey(ref)))
}

func SetSpent(db database.KeyValueWriter, ref states.Ref, txID ids.ID) error {
	return database.PutID(db, Flatten(spentPrefix, refKey(ref)), txID)
}

// Transaction storage

func HasTx(db database.KeyValueReader, txID ids.ID) (bool, error) {
	return db.Has(Flatten(txPrefix, txID[:]))
}

func GetTx(db database.KeyValueReader, txID ids.ID) (*txs.Tx, error) {
	b, err := db.Get(Flatten(txPrefix, txID[:]))
	if err != nil {
		return nil, err
	}
	return txs.Parse(b)
}

func PutTx(db database.KeyValueWriter, tx *txs.Tx) error {
	b, err := tx.Bytes()
	if err != nil {
		return err
	}
	txID := tx.ID()
	return db.Put(Flatten(txPrefix, txID[:]), b)
}
