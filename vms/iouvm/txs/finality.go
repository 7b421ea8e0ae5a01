// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"fmt"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/wrappers"
)

var (
	ErrMissingFinality = errors.New("transaction has not been notarized")
	ErrInvalidFinality = errors.New("invalid finality signature")
)

// Finality is the notary's attestation that a transaction's inputs were
// consumed by it.
type Finality struct {
	// Timestamp is the unix time at which the notary accepted the tx.
	Timestamp int64
	Sig       [secp256k1.SignatureLen]byte
}

// FinalityMessage returns the bytes a notary signs to finalize [txID].
func FinalityMessage(txID ids.ID, timestamp int64) []byte {
	p := wrappers.Packer{Bytes: make([]byte, ids.IDLen+wrappers.LongLen)}
	p.PackFixedBytes(txID[:])
	p.PackLong(uint64(timestamp))
	return p.Bytes
}

// NewFinality signs the finality of [txID] at [timestamp] with [key].
func NewFinality(key *secp256k1.PrivateKey, txID ids.ID, timestamp int64) (*Finality, error) {
	sig, err := key.Sign(FinalityMessage(txID, timestamp))
	if err != nil {
		return nil, err
	}
	f := &Finality{Timestamp: timestamp}
	copy(f.Sig[:], sig)
	return f, nil
}

// Verify checks that [notary] signed the finality of [txID].
func (f *Finality) Verify(txID ids.ID, notary ids.ShortID) error {
	if f == nil {
		return ErrMissingFinality
	}
	pk, err := secp256k1.RecoverPublicKey(FinalityMessage(txID, f.Timestamp), f.Sig[:])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFinality, err)
	}
	if signer := pk.Address(); signer != notary {
		return fmt.Errorf("%w: signed by %s, expected %s", ErrInvalidFinality, signer, notary)
	}
	return nil
}
