// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package database

var _ Iterator = (*IteratorError)(nil)

// IteratorError does nothing and returns the provided error
type IteratorError struct {
	Err error
}

func (*IteratorError) Next() bool {
	return false
}

func (i *IteratorError) Error() error {
	return i.Err
}

func (*IteratorError) Key() []byte {
	return nil
}

func (*IteratorError) Value() []byte {
	return nil
}

func (*IteratorError) Release() {}
