// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/vms/iouvm/notary"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
)

const (
	opPropose  = "propose"
	opNotarize = "notarize"
	opFinality = "finality lookup"
	opFinalize = "finalize"
)

var errMissingBuild = errors.New("instance has nothing to build")

// Instance is one run of the agreement protocol driven by an Initiator.
//
// Only one goroutine may step an instance at a time. Status, TxID, Done and
// Err may be called concurrently with a running instance.
type Instance struct {
	initiator *Initiator
	build     BuildFunc
	started   time.Time
	running   atomic.Bool

	lock   sync.RWMutex
	status Status
	tx     *txs.Tx
	err    error

	// submitted is set once the notary may have seen the transaction.
	submitted bool
	// pending are the parties that have not acknowledged the finalized
	// transaction.
	pending set.Set[ids.ShortID]
}

func (in *Instance) Status() Status {
	in.lock.RLock()
	defer in.lock.RUnlock()

	return in.status
}

// Tx returns the transaction being agreed on. It is nil while Building and
// must not be modified.
func (in *Instance) Tx() *txs.Tx {
	in.lock.RLock()
	defer in.lock.RUnlock()

	return in.tx
}

// Err returns the reason the instance was rejected.
func (in *Instance) Err() error {
	in.lock.RLock()
	defer in.lock.RUnlock()

	return in.err
}

// TxID returns the ID of the transaction being agreed on, or ids.Empty
// while Building.
func (in *Instance) TxID() ids.ID {
	if tx := in.Tx(); tx != nil {
		return tx.ID()
	}
	return ids.Empty
}

// Done reports whether the instance is rejected, or finalized and
// acknowledged by every other party.
func (in *Instance) Done() bool {
	in.lock.RLock()
	defer in.lock.RUnlock()

	return in.done()
}

func (in *Instance) done() bool {
	return in.status == Rejected || (in.status == Finalized && in.pending.Len() == 0)
}

// Step performs the work of the current status and, if it succeeds, moves to
// the next status.
func (in *Instance) Step(ctx context.Context) error {
	if !in.running.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}
	defer in.running.Store(false)

	return in.step(ctx)
}

// Run steps the instance until it is done or a step fails. A
// *CommunicationError leaves the instance resumable by calling Run again.
func (in *Instance) Run(ctx context.Context) (ids.ID, error) {
	if !in.running.CompareAndSwap(false, true) {
		return ids.Empty, errAlreadyRunning
	}
	defer in.running.Store(false)

	for !in.Done() {
		if err := in.step(ctx); err != nil {
			return in.TxID(), err
		}
	}
	return in.TxID(), in.Err()
}

func (in *Instance) step(ctx context.Context) error {
	switch status := in.Status(); status {
	case Building:
		return in.buildAndValidate()
	case LocallyValidated:
		return in.sign()
	case LocallySigned:
		return in.requestCountersignatures()
	case AwaitingCountersignature:
		return in.collectCountersignatures(ctx)
	case Countersigned:
		return in.submit()
	case AwaitingFinality:
		return in.awaitFinality(ctx)
	case Finalized:
		return in.distribute(ctx)
	case Rejected:
		return in.Err()
	default:
		return fmt.Errorf("%w: %s", ErrIllegalTransition, status)
	}
}

func (in *Instance) buildAndValidate() error {
	if in.build == nil {
		return in.reject(errMissingBuild)
	}
	tx, err := in.build(in.initiator.builder)
	if err != nil {
		return in.reject(err)
	}

	in.lock.Lock()
	in.tx = tx
	in.lock.Unlock()

	if err := executor.VerifyTx(in.initiator.cfg.Config, tx); err != nil {
		return in.reject(err)
	}
	return in.advance(eventValidated)
}

func (in *Instance) sign() error {
	i := in.initiator
	if !in.tx.Unsigned.SignerSet().Contains(i.self) {
		return in.reject(fmt.Errorf("%w: %s", errNotASigner, i.self))
	}
	if err := in.tx.Sign(i.key); err != nil {
		return in.reject(err)
	}
	return in.advance(eventSigned)
}

func (in *Instance) requestCountersignatures() error {
	missing, err := in.tx.MissingSigners()
	if err != nil {
		return in.reject(err)
	}
	if len(missing) == 0 {
		return in.advance(eventSelfSigned)
	}
	return in.advance(eventProposed)
}

// collectCountersignatures keeps every signature it receives, so a resumed
// instance only contacts the parties that have not yet signed.
func (in *Instance) collectCountersignatures(ctx context.Context) error {
	i := in.initiator
	missing, err := in.tx.MissingSigners()
	if err != nil {
		return in.reject(err)
	}

	for _, party := range missing {
		proposeCtx, cancel := withTimeout(ctx, i.cfg.ProposeTimeout)
		resp, err := i.peers.Propose(proposeCtx, party, in.tx)
		cancel()
		if err != nil {
			return in.communicationFailure(opPropose, party, err)
		}
		if !resp.Accepted {
			return in.reject(&RejectedError{
				Party:  party,
				Reason: resp.Reason,
			})
		}
		if err := in.addCountersignature(party, resp.Sig); err != nil {
			return in.reject(&RejectedError{
				Party:  party,
				Reason: err.Error(),
			})
		}
	}
	return in.advance(eventCountersigned)
}

func (in *Instance) addCountersignature(party ids.ShortID, sig [secp256k1.SignatureLen]byte) error {
	pk, err := secp256k1.RecoverPublicKey(in.tx.UnsignedBytes(), sig[:])
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidCountersignature, err)
	}
	if signer := pk.Address(); signer != party {
		return fmt.Errorf("%w: signed by %s", errInvalidCountersignature, signer)
	}
	return in.tx.AddSignature(sig)
}

func (in *Instance) submit() error {
	if err := in.tx.VerifySignatures(); err != nil {
		return in.reject(err)
	}
	return in.advance(eventSubmitted)
}

func (in *Instance) awaitFinality(ctx context.Context) error {
	i := in.initiator
	if in.tx.Finality == nil && in.submitted {
		if err := in.reconcile(ctx); err != nil {
			return err
		}
	}
	if in.tx.Finality == nil {
		if err := in.notarize(ctx); err != nil {
			return err
		}
	}

	txID := in.tx.ID()
	if err := i.vault.RecordFinalized(in.tx); err != nil {
		return fmt.Errorf("couldn't record %s: %w", txID, err)
	}

	in.lock.Lock()
	in.pending = i.recipients(in.tx)
	in.lock.Unlock()

	i.log.Info("finalized transaction",
		zap.Stringer("txID", txID),
		zap.Stringer("command", in.tx.Unsigned.Command),
		zap.Int64("timestamp", in.tx.Finality.Timestamp),
	)
	return in.advance(eventNotarized)
}

// reconcile determines what became of a previous submission whose outcome
// was not observed.
func (in *Instance) reconcile(ctx context.Context) error {
	i := in.initiator
	txID := in.tx.ID()

	recorded, err := i.vault.HasTx(txID)
	if err != nil {
		return err
	}
	if recorded {
		stored, err := i.vault.GetTx(txID)
		if err != nil {
			return err
		}
		in.tx.Finality = stored.Finality
		return nil
	}

	finalityCtx, cancel := withTimeout(ctx, i.cfg.NotarizeTimeout)
	finality, err := i.notary.Finality(finalityCtx, txID)
	cancel()
	switch {
	case err == nil:
		return in.setFinality(finality)
	case !errors.Is(err, notary.ErrNotNotarized):
		return in.communicationFailure(opFinality, ids.ShortEmpty, err)
	}

	for _, input := range in.tx.Unsigned.Ins {
		if states.IsParticipant(input.State, i.self) && !i.vault.IsCurrent(input.Ref) {
			return in.reject(fmt.Errorf("%w: %s", states.ErrStaleReference, input.Ref))
		}
	}
	return nil
}

func (in *Instance) notarize(ctx context.Context) error {
	i := in.initiator

	in.submitted = true
	notarizeCtx, cancel := withTimeout(ctx, i.cfg.NotarizeTimeout)
	finality, err := i.notary.Notarize(notarizeCtx, in.tx)
	cancel()

	var conflict *notary.DoubleSpendError
	switch {
	case errors.As(err, &conflict):
		return in.reject(err)
	case err != nil && isCommunicationFailure(err):
		return in.communicationFailure(opNotarize, ids.ShortEmpty, err)
	case err != nil:
		return in.reject(err)
	}
	return in.setFinality(finality)
}

func (in *Instance) setFinality(finality *txs.Finality) error {
	if err := finality.Verify(in.tx.ID(), in.initiator.cfg.Notary); err != nil {
		return in.reject(err)
	}
	in.tx.Finality = finality
	return nil
}

// distribute delivers the finalized transaction to every party that has not
// acknowledged it. Failed deliveries are retried by the next step.
func (in *Instance) distribute(ctx context.Context) error {
	i := in.initiator

	in.lock.RLock()
	pending := in.pending.List()
	in.lock.RUnlock()

	var errs []error
	for _, party := range pending {
		finalizeCtx, cancel := withTimeout(ctx, i.cfg.ProposeTimeout)
		err := i.peers.Finalize(finalizeCtx, party, in.tx)
		cancel()
		if err != nil {
			errs = append(errs, in.communicationFailure(opFinalize, party, err))
			continue
		}

		in.lock.Lock()
		in.pending.Remove(party)
		in.lock.Unlock()
	}
	return errors.Join(errs...)
}

func (in *Instance) communicationFailure(op string, party ids.ShortID, err error) error {
	i := in.initiator
	i.metrics.communicationFailures.Inc()
	i.log.Warn("round trip failed",
		zap.String("op", op),
		zap.Stringer("party", party),
		zap.Stringer("txID", in.TxID()),
		zap.Stringer("status", in.Status()),
		zap.Error(err),
	)
	return &CommunicationError{
		Op:    op,
		Party: party,
		Err:   err,
	}
}

func (in *Instance) advance(e event) error {
	in.lock.Lock()
	from := in.status
	to, err := transition(from, e)
	if err != nil {
		in.lock.Unlock()
		return err
	}
	in.status = to
	in.lock.Unlock()

	i := in.initiator
	i.log.Debug("instance advanced",
		zap.Stringer("txID", in.TxID()),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	if to == Finalized {
		i.metrics.observe(outcomeFinalized, in.started)
	}
	return nil
}

// reject moves the instance to Rejected and returns [reason].
func (in *Instance) reject(reason error) error {
	in.lock.Lock()
	from := in.status
	to, err := transition(from, eventRejected)
	if err != nil {
		in.lock.Unlock()
		return err
	}
	in.status = to
	in.err = reason
	in.lock.Unlock()

	i := in.initiator
	i.metrics.observe(outcomeRejected, in.started)
	i.log.Info("instance rejected",
		zap.Stringer("txID", in.TxID()),
		zap.Stringer("from", from),
		zap.Error(reason),
	)
	return reason
}
