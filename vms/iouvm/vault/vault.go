// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/database"
	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/math"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
)

const btreeDegree = 16

var (
	ErrNoCash = errors.New("no cash available")

	errNotFinalized = errors.New("transaction has no finality")
)

// Vault is a party's view of the ledger: the current version of every state
// the party participates in.
type Vault struct {
	log     logging.Logger
	parties set.Set[ids.ShortID]
	metrics *metrics

	lock sync.RWMutex
	db   database.Database
	// current states ordered by ref
	index *btree.BTreeG[*states.Output]
}

// New opens a vault over [db] tracking the states that any of [parties]
// participates in. The in-memory index is rebuilt from [db].
func New(
	log logging.Logger,
	db database.Database,
	parties []ids.ShortID,
	namespace string,
	registerer prometheus.Registerer,
) (*Vault, error) {
	m, err := newMetrics(namespace, registerer)
	if err != nil {
		return nil, fmt.Errorf("couldn't register vault metrics: %w", err)
	}

	v := &Vault{
		log:     log,
		parties: set.Of(parties...),
		metrics: m,
		db:      db,
		index: btree.NewG[*states.Output](btreeDegree, func(a, b *states.Output) bool {
			return a.Ref.Compare(b.Ref) < 0
		}),
	}
	if err := v.load(); err != nil {
		return nil, err
	}
	v.updateGauges()
	return v, nil
}

func (v *Vault) load() error {
	it := v.db.NewIteratorWithPrefix(statePrefix)
	defer it.Release()

	for it.Next() {
		ref, err := parseRefKey(it.Key()[len(statePrefix):])
		if err != nil {
			return err
		}
		st, err := states.Unmarshal(it.Value())
		if err != nil {
			return fmt.Errorf("couldn't parse state %s: %w", ref, err)
		}
		v.index.ReplaceOrInsert(&states.Output{
			Ref:   ref,
			State: st,
		})
	}
	if err := it.Error(); err != nil {
		return err
	}

	v.log.Info("loaded vault",
		zap.Int("numStates", v.index.Len()),
	)
	return nil
}

// LoadCurrentState returns the state [ref] points at if it has not been
// consumed.
func (v *Vault) LoadCurrentState(ref states.Ref) (states.State, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	if out, ok := v.index.Get(&states.Output{Ref: ref}); ok {
		return out.State, nil
	}

	spentBy, err := GetSpentBy(v.db, ref)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s consumed by %s", states.ErrStaleReference, ref, spentBy)
	case errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", states.ErrReferenceNotFound, ref)
	default:
		return nil, err
	}
}

// IsCurrent reports whether [ref] is held by the vault and unconsumed.
func (v *Vault) IsCurrent(ref states.Ref) bool {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return v.index.Has(&states.Output{Ref: ref})
}

// HasTx reports whether [txID] has been recorded.
func (v *Vault) HasTx(txID ids.ID) (bool, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return HasTx(v.db, txID)
}

// GetTx returns a recorded transaction.
func (v *Vault) GetTx(txID ids.ID) (*txs.Tx, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return GetTx(v.db, txID)
}

// RecordFinalized retires every ref [tx] consumes and installs every output a
// tracked party participates in. Either all of it is applied or none of it.
// Recording the same transaction twice is a no-op.
func (v *Vault) RecordFinalized(tx *txs.Tx) error {
	if tx.Finality == nil {
		return errNotFinalized
	}

	txID := tx.ID()

	v.lock.Lock()
	defer v.lock.Unlock()

	recorded, err := HasTx(v.db, txID)
	if err != nil {
		return err
	}
	if recorded {
		v.log.Debug("transaction already recorded",
			zap.Stringer("txID", txID),
		)
		return nil
	}

	var (
		batch    = v.db.NewBatch()
		consumed []states.Ref
		produced []*states.Output
	)
	for _, in := range tx.Unsigned.Ins {
		if err := SetSpent(batch, in.Ref, txID); err != nil {
			return err
		}
		if v.index.Has(&states.Output{Ref: in.Ref}) {
			if err := DeleteState(batch, in.Ref); err != nil {
				return err
			}
			consumed = append(consumed, in.Ref)
		}
	}
	for _, out := range tx.Outputs() {
		if !v.isRelevant(out.State) {
			continue
		}
		if err := PutState(batch, out.Ref, out.State); err != nil {
			return err
		}
		produced = append(produced, out)
	}
	if err := PutTx(batch, tx); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("couldn't record %s: %w", txID, err)
	}

	for _, ref := range consumed {
		v.index.Delete(&states.Output{Ref: ref})
	}
	for _, out := range produced {
		v.index.ReplaceOrInsert(out)
	}
	v.metrics.numRecordedTxs.Inc()
	v.updateGauges()

	v.log.Debug("recorded transaction",
		zap.Stringer("txID", txID),
		zap.Stringer("command", tx.Unsigned.Command),
		zap.Int("numConsumed", len(consumed)),
		zap.Int("numProduced", len(produced)),
	)
	return nil
}

// Cash returns the current cash states owned by [owner], ordered by ref.
func (v *Vault) Cash(owner ids.ShortID) []*states.Output {
	return v.filter(func(st states.State) bool {
		cash, ok := st.(*states.Cash)
		return ok && cash.Owner == owner
	})
}

// Debts returns the current debts in which [party] is lender or borrower.
func (v *Vault) Debts(party ids.ShortID) []*states.Output {
	return v.filter(func(st states.State) bool {
		debt, ok := st.(*states.Debt)
		return ok && (debt.Lender == party || debt.Borrower == party)
	})
}

// DebtByID returns the current version of the debt with linear ID [id].
func (v *Vault) DebtByID(id uuid.UUID) (*states.Output, error) {
	debts := v.filter(func(st states.State) bool {
		debt, ok := st.(*states.Debt)
		return ok && debt.ID == id
	})
	if len(debts) == 0 {
		return nil, fmt.Errorf("%w: debt %s", states.ErrReferenceNotFound, id)
	}
	return debts[0], nil
}

// Balance returns the sum of the current cash owned by [owner].
func (v *Vault) Balance(owner ids.ShortID) (uint64, error) {
	var balance uint64
	for _, out := range v.Cash(owner) {
		var err error
		balance, err = math.Add(balance, out.State.(*states.Cash).Amount)
		if err != nil {
			return 0, err
		}
	}
	return balance, nil
}

// SelectCash returns the smallest cash state of [owner] worth at least
// [amount]. If none is large enough the largest one is returned, so that the
// caller reports the shortfall.
func (v *Vault) SelectCash(owner ids.ShortID, amount uint64) (*states.Output, error) {
	var (
		best    *states.Output
		largest *states.Output
	)
	for _, out := range v.Cash(owner) {
		value := out.State.(*states.Cash).Amount
		if largest == nil || value > largest.State.(*states.Cash).Amount {
			largest = out
		}
		if value >= amount && (best == nil || value < best.State.(*states.Cash).Amount) {
			best = out
		}
	}
	switch {
	case best != nil:
		return best, nil
	case largest != nil:
		return largest, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoCash, owner)
	}
}

func (v *Vault) filter(keep func(states.State) bool) []*states.Output {
	v.lock.RLock()
	defer v.lock.RUnlock()

	var outs []*states.Output
	v.index.Ascend(func(out *states.Output) bool {
		if keep(out.State) {
			outs = append(outs, out)
		}
		return true
	})
	return outs
}

func (v *Vault) isRelevant(st states.State) bool {
	for _, p := range st.Participants() {
		if v.parties.Contains(p) {
			return true
		}
	}
	return false
}

// updateGauges assumes the lock is held or the vault is not yet shared.
func (v *Vault) updateGauges() {
	var numCash, numDebts int
	v.index.Ascend(func(out *states.Output) bool {
		switch out.State.(type) {
		case *states.Cash:
			numCash++
		case *states.Debt:
			numDebts++
		}
		return true
	})
	v.metrics.numCash.Set(float64(numCash))
	v.metrics.numDebts.Set(float64(numDebts))
}
