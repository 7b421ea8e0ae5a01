// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/vms/iouvm/states"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/executor"
)

var (
	_ Handler = (*Responder)(nil)

	errUntrustedNotary = errors.New("transaction names an untrusted notary")
	errNotASigner      = errors.New("party is not a required signer")
	errStateMismatch   = errors.New("input does not match the current state")
)

// Responder answers proposals and finalized transactions on behalf of one
// party.
type Responder struct {
	log    logging.Logger
	cfg    Config
	key    *secp256k1.PrivateKey
	self   ids.ShortID
	vault  Vault
	policy Policy
}

// NewResponder returns a responder signing with [key]. [policy] may be nil.
func NewResponder(
	log logging.Logger,
	cfg Config,
	key *secp256k1.PrivateKey,
	vault Vault,
	policy Policy,
) *Responder {
	return &Responder{
		log:    log,
		cfg:    cfg,
		key:    key,
		self:   key.Address(),
		vault:  vault,
		policy: policy,
	}
}

// Propose countersigns [tx] if it is valid, this party must sign it, every
// input this party tracks is current and the policy allows it. A refusal is
// reported in the response rather than as an error.
func (r *Responder) Propose(ctx context.Context, tx *txs.Tx) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txID := tx.ID()
	if err := r.check(tx); err != nil {
		r.log.Info("refusing proposal",
			zap.Stringer("txID", txID),
			zap.Error(err),
		)
		return &Response{Reason: err.Error()}, nil
	}

	sig, err := r.key.Sign(tx.UnsignedBytes())
	if err != nil {
		return nil, fmt.Errorf("couldn't sign %s: %w", txID, err)
	}

	r.log.Debug("countersigned proposal",
		zap.Stringer("txID", txID),
		zap.Stringer("command", tx.Unsigned.Command),
	)
	resp := &Response{Accepted: true}
	copy(resp.Sig[:], sig)
	return resp, nil
}

// Finalize records [tx] once it carries the trusted notary's finality and
// every declared signature.
func (r *Responder) Finalize(ctx context.Context, tx *txs.Tx) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txID := tx.ID()
	if tx.Unsigned.Notary != r.cfg.Notary {
		return fmt.Errorf("%w: %s", errUntrustedNotary, tx.Unsigned.Notary)
	}
	if err := tx.Finality.Verify(txID, r.cfg.Notary); err != nil {
		return err
	}
	if err := tx.VerifySignatures(); err != nil {
		return err
	}
	if err := executor.VerifyTx(r.cfg.Config, tx); err != nil {
		return err
	}
	if err := r.vault.RecordFinalized(tx); err != nil {
		return fmt.Errorf("couldn't record %s: %w", txID, err)
	}

	r.log.Info("recorded finalized transaction",
		zap.Stringer("txID", txID),
		zap.Stringer("command", tx.Unsigned.Command),
		zap.Int64("timestamp", tx.Finality.Timestamp),
	)
	return nil
}

func (r *Responder) check(tx *txs.Tx) error {
	if err := executor.VerifyTx(r.cfg.Config, tx); err != nil {
		return err
	}

	utx := &tx.Unsigned
	if utx.Notary != r.cfg.Notary {
		return fmt.Errorf("%w: %s", errUntrustedNotary, utx.Notary)
	}
	if !utx.SignerSet().Contains(r.self) {
		return fmt.Errorf("%w: %s", errNotASigner, r.self)
	}
	if _, err := tx.VerifyPartialSignatures(); err != nil {
		return err
	}

	for _, in := range utx.Ins {
		if !states.IsParticipant(in.State, r.self) {
			continue
		}
		current, err := r.vault.LoadCurrentState(in.Ref)
		if err != nil {
			return err
		}
		if !current.Equal(in.State) {
			return fmt.Errorf("%w: %s", errStateMismatch, in.Ref)
		}
	}

	if r.policy == nil {
		return nil
	}
	return r.policy.Check(tx)
}
