// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/cb58"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/hashing"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/utils/wrappers"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
)

var (
	ErrMissingSignature = errors.New("missing signature")

	errUnexpectedSigner   = errors.New("signature from a party that is not a required signer")
	errDuplicateSignature = errors.New("duplicate signature")
	errUninitialized      = errors.New("transaction has not been initialized")
)

// Tx is an UnsignedTx together with the signatures collected so far and, once
// notarized, the notary's finality attestation.
type Tx struct {
	Unsigned UnsignedTx
	Sigs     [][secp256k1.SignatureLen]byte
	Finality *Finality

	id            ids.ID
	unsignedBytes []byte
}

// NewTx returns an initialized transaction with no signatures.
func NewTx(utx UnsignedTx) (*Tx, error) {
	tx := &Tx{Unsigned: utx}
	return tx, tx.Initialize()
}

// Parse decodes a transaction produced by Bytes.
func Parse(b []byte) (*Tx, error) {
	if len(b) > MaxTxSize {
		return nil, fmt.Errorf("%w: %d > %d", wrappers.ErrInsufficientLength, len(b), MaxTxSize)
	}

	tx := &Tx{}
	p := wrappers.Packer{Bytes: b}
	unpackUnsigned(&p, &tx.Unsigned)
	unsignedLen := p.Offset
	tx.Sigs = unpackSigs(&p)
	tx.Finality = unpackFinality(&p)
	if p.Errored() {
		return nil, p.Err
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: %d", errTrailingBytes, len(b)-p.Offset)
	}

	tx.unsignedBytes = slices.Clone(b[:unsignedLen])
	tx.id = hashing.ComputeHash256Array(tx.unsignedBytes)
	return tx, nil
}

// Initialize caches the canonical unsigned bytes and the ID. It must be
// called again if Unsigned is modified.
func (tx *Tx) Initialize() error {
	unsignedBytes, err := tx.Unsigned.Bytes()
	if err != nil {
		return fmt.Errorf("couldn't marshal unsigned tx: %w", err)
	}
	tx.unsignedBytes = unsignedBytes
	tx.id = hashing.ComputeHash256Array(unsignedBytes)
	return nil
}

// ID returns the hash of the unsigned bytes. Signatures and finality do not
// change the ID.
func (tx *Tx) ID() ids.ID {
	return tx.id
}

func (tx *Tx) UnsignedBytes() []byte {
	return tx.unsignedBytes
}

// Bytes returns the full encoding, including signatures and finality.
func (tx *Tx) Bytes() ([]byte, error) {
	if tx.unsignedBytes == nil {
		return nil, errUninitialized
	}
	p := wrappers.Packer{
		MaxSize: MaxTxSize,
		Bytes:   make([]byte, len(tx.unsignedBytes), len(tx.unsignedBytes)+wrappers.ShortLen+len(tx.Sigs)*secp256k1.SignatureLen),
	}
	copy(p.Bytes, tx.unsignedBytes)
	p.Offset = len(tx.unsignedBytes)
	packSigs(&p, tx.Sigs)
	packFinality(&p, tx.Finality)
	return p.Bytes, p.Err
}

// Outputs returns the produced states paired with the refs they will have
// once the transaction is finalized.
func (tx *Tx) Outputs() []*states.Output {
	outs := make([]*states.Output, len(tx.Unsigned.Outs))
	for i, st := range tx.Unsigned.Outs {
		outs[i] = &states.Output{
			Ref: states.Ref{
				TxID:        tx.id,
				OutputIndex: uint32(i),
			},
			State: st,
		}
	}
	return outs
}

// Sign appends [key]'s signature. Signing twice with the same key is a no-op.
func (tx *Tx) Sign(key *secp256k1.PrivateKey) error {
	if tx.unsignedBytes == nil {
		return errUninitialized
	}
	sigBytes, err := key.Sign(tx.unsignedBytes)
	if err != nil {
		return fmt.Errorf("problem signing tx: %w", err)
	}

	var sig [secp256k1.SignatureLen]byte
	copy(sig[:], sigBytes)
	return tx.AddSignature(sig)
}

// AddSignature appends [sig] if it is not already present.
func (tx *Tx) AddSignature(sig [secp256k1.SignatureLen]byte) error {
	for _, existing := range tx.Sigs {
		if existing == sig {
			return nil
		}
	}
	if len(tx.Sigs) >= MaxSigners {
		return fmt.Errorf("%w: %d", errTooManySigners, len(tx.Sigs)+1)
	}
	tx.Sigs = append(tx.Sigs, sig)
	return nil
}

// SignerSet recovers the address behind every attached signature.
func (tx *Tx) SignerSet() (set.Set[ids.ShortID], error) {
	if tx.unsignedBytes == nil {
		return nil, errUninitialized
	}
	signers := set.NewSet[ids.ShortID](len(tx.Sigs))
	for _, sig := range tx.Sigs {
		pk, err := secp256k1.RecoverPublicKey(tx.unsignedBytes, sig[:])
		if err != nil {
			return nil, err
		}
		addr := pk.Address()
		if signers.Contains(addr) {
			return nil, fmt.Errorf("%w: %s", errDuplicateSignature, addr)
		}
		signers.Add(addr)
	}
	return signers, nil
}

// VerifyPartialSignatures checks that every attached signature is valid and
// belongs to a declared signer. Declared signers may still be missing.
func (tx *Tx) VerifyPartialSignatures() (set.Set[ids.ShortID], error) {
	signers, err := tx.SignerSet()
	if err != nil {
		return nil, err
	}
	declared := tx.Unsigned.SignerSet()
	for signer := range signers {
		if !declared.Contains(signer) {
			return nil, fmt.Errorf("%w: %s", errUnexpectedSigner, signer)
		}
	}
	return signers, nil
}

// VerifySignatures checks that every declared signer, and no one else, has
// signed.
func (tx *Tx) VerifySignatures() error {
	signers, err := tx.VerifyPartialSignatures()
	if err != nil {
		return err
	}
	for _, signer := range tx.Unsigned.Signers {
		if !signers.Contains(signer) {
			return fmt.Errorf("%w: %s", ErrMissingSignature, signer)
		}
	}
	return nil
}

// MissingSigners returns the declared signers that have not yet signed.
func (tx *Tx) MissingSigners() ([]ids.ShortID, error) {
	signers, err := tx.SignerSet()
	if err != nil {
		return nil, err
	}
	var missing []ids.ShortID
	for _, signer := range tx.Unsigned.Signers {
		if !signers.Contains(signer) {
			missing = append(missing, signer)
		}
	}
	return missing, nil
}

// MarshalText encodes the full transaction as cb58.
func (tx *Tx) MarshalText() ([]byte, error) {
	b, err := tx.Bytes()
	if err != nil {
		return nil, err
	}
	str, err := cb58.Encode(b)
	return []byte(str), err
}

func (tx *Tx) UnmarshalText(text []byte) error {
	b, err := cb58.Decode(string(text))
	if err != nil {
		return err
	}
	parsed, err := Parse(b)
	if err != nil {
		return err
	}
	*tx = *parsed
	return nil
}
