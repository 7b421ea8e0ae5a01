// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/timer/mockable"
	"github.com/ava-labs/iouledger/utils/wrappers"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
)

/*
 * NotaryDB
 * |-. consumed
 * | '-- ref -> consuming txID
 * |-. finality
 * | '-- txID -> timestamp + signature
 * '-. produced
 *   '-- ref -> state
 */

var (
	consumedPrefix = []byte{0x00}
	finalityPrefix = []byte{0x01}
	producedPrefix = []byte{0x02}

	_ Notary = (*Uniqueness)(nil)
)

// Uniqueness is a single process notary. Requests are serialized, so of any
// set of transactions sharing an input exactly one is notarized.
//
// Every input must be an output of a transaction this notary notarized,
// carrying the state that transaction produced, and every transaction must
// satisfy its command's rules. Cash therefore only enters the ledger through
// issuance by the issuing authority.
type Uniqueness struct {
	log     logging.Logger
	cfg     executor.Config
	key     *secp256k1.PrivateKey
	id      ids.ShortID
	clock   mockable.Clock
	metrics *metrics

	lock sync.Mutex
	db   database.Database
}

func NewUniqueness(
	log logging.Logger,
	cfg executor.Config,
	key *secp256k1.PrivateKey,
	db database.Database,
	namespace string,
	registerer prometheus.Registerer,
) (*Uniqueness, error) {
	m, err := newMetrics(namespace, registerer)
	if err != nil {
		return nil, fmt.Errorf("couldn't register notary metrics: %w", err)
	}
	return &Uniqueness{
		log:     log,
		cfg:     cfg,
		key:     key,
		id:      key.Address(),
		metrics: m,
		db:      db,
	}, nil
}

// ID is the address whose signature finalizes transactions.
func (u *Uniqueness) ID() ids.ShortID {
	return u.id
}

func (u *Uniqueness) Notarize(ctx context.Context, tx *txs.Tx) (*txs.Finality, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txID := tx.ID()
	if err := u.verify(tx); err != nil {
		u.metrics.numRejected.Inc()
		u.log.Debug("refusing transaction",
			zap.Stringer("txID", txID),
			zap.Error(err),
		)
		return nil, err
	}

	u.lock.Lock()
	defer u.lock.Unlock()

	if err := u.checkInputs(tx); err != nil {
		var conflict *DoubleSpendError
		if errors.As(err, &conflict) {
			u.metrics.numConflicts.Inc()
			u.log.Info("refusing double spend",
				zap.Stringer("txID", txID),
				zap.Error(err),
			)
		} else {
			u.metrics.numRejected.Inc()
			u.log.Info("refusing unknown input",
				zap.Stringer("txID", txID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	finality, err := txs.NewFinality(u.key, txID, int64(u.clock.Unix()))
	if err != nil {
		return nil, err
	}

	batch := u.db.NewBatch()
	for _, in := range tx.Unsigned.Ins {
		if err := database.PutID(batch, consumedKey(in.Ref), txID); err != nil {
			return nil, err
		}
	}
	for i, out := range tx.Unsigned.Outs {
		stateBytes, err := states.Marshal(out)
		if err != nil {
			return nil, err
		}
		ref := states.Ref{TxID: txID, OutputIndex: uint32(i)}
		if err := batch.Put(producedKey(ref), stateBytes); err != nil {
			return nil, err
		}
	}
	if err := batch.Put(finalityKey(txID), marshalFinality(finality)); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, fmt.Errorf("couldn't persist notarization of %s: %w", txID, err)
	}

	u.metrics.numNotarized.Inc()
	u.log.Info("notarized transaction",
		zap.Stringer("txID", txID),
		zap.Stringer("command", tx.Unsigned.Command),
		zap.Int("numInputs", len(tx.Unsigned.Ins)),
		zap.Int64("timestamp", finality.Timestamp),
	)
	return finality, nil
}

func (u *Uniqueness) Finality(ctx context.Context, txID ids.ID) (*txs.Finality, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u.lock.Lock()
	defer u.lock.Unlock()

	b, err := u.db.Get(finalityKey(txID))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotNotarized, txID)
	}
	if err != nil {
		return nil, err
	}
	return parseFinality(b)
}

// verify performs the checks that do not depend on notary state.
func (u *Uniqueness) verify(tx *txs.Tx) error {
	if tx.Unsigned.Notary != u.id {
		return fmt.Errorf("%w: %s", ErrWrongNotary, tx.Unsigned.Notary)
	}
	if err := executor.VerifyTx(u.cfg, tx); err != nil {
		return err
	}
	return tx.VerifySignatures()
}

// checkInputs assumes the lock is held.
func (u *Uniqueness) checkInputs(tx *txs.Tx) error {
	txID := tx.ID()
	notarized, err := u.db.Has(finalityKey(txID))
	if err != nil {
		return err
	}
	if notarized {
		conflict := &DoubleSpendError{ConflictingTxID: txID}
		if len(tx.Unsigned.Ins) > 0 {
			conflict.Ref = &tx.Unsigned.Ins[0].Ref
		}
		return conflict
	}

	for _, in := range tx.Unsigned.Ins {
		consumedBy, err := database.GetID(u.db, consumedKey(in.Ref))
		switch {
		case err == nil:
			ref := in.Ref
			return &DoubleSpendError{
				Ref:             &ref,
				ConflictingTxID: consumedBy,
			}
		case !errors.Is(err, database.ErrNotFound):
			return err
		}
	}

	for _, in := range tx.Unsigned.Ins {
		produced, err := u.db.Get(producedKey(in.Ref))
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %s was never produced", ErrUnknownInput, in.Ref)
		}
		if err != nil {
			return err
		}
		claimed, err := states.Marshal(in.State)
		if err != nil {
			return err
		}
		if !bytes.Equal(produced, claimed) {
			return fmt.Errorf("%w: %s differs from the produced state", ErrUnknownInput, in.Ref)
		}
	}
	return nil
}

func consumedKey(ref states.Ref) []byte {
	p := wrappers.Packer{MaxSize: len(consumedPrefix) + ids.IDLen + wrappers.IntLen}
	p.PackFixedBytes(consumedPrefix)
	states.PackRef(&p, ref)
	return p.Bytes
}

func producedKey(ref states.Ref) []byte {
	p := wrappers.Packer{MaxSize: len(producedPrefix) + ids.IDLen + wrappers.IntLen}
	p.PackFixedBytes(producedPrefix)
	states.PackRef(&p, ref)
	return p.Bytes
}

func finalityKey(txID ids.ID) []byte {
	return append(append([]byte{}, finalityPrefix...), txID[:]...)
}

func marshalFinality(f *txs.Finality) []byte {
	p := wrappers.Packer{Bytes: make([]byte, wrappers.LongLen+secp256k1.SignatureLen)}
	p.PackLong(uint64(f.Timestamp))
	p.PackFixedBytes(f.Sig[:])
	return p.Bytes
}

func parseFinality(b []byte) (*txs.Finality, error) {
	p := wrappers.Packer{Bytes: b}
	f := &txs.Finality{
		Timestamp: int64(p.UnpackLong()),
	}
	copy(f.Sig[:], p.UnpackFixedBytes(secp256k1.SignatureLen))
	return f, p.Err
}
