// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flow

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/iouledger/ids"
	"github.com/ava-labs/iouledger/utils/crypto/secp256k1"
	"github.com/ava-labs/iouledger/utils/logging"
	"github.com/ava-labs/iouledger/utils/set"
	"github.com/ava-labs/iouledger/utils/timer/mockable"
	"github.com/ava-labs/iouledger/vms/iouvm/notary"
	"github.com/ava-labs/iouledger/vms/iouvm/txs"
	"github.com/ava-labs/iouledger/vms/iouvm/txs/builder"
)

// BuildFunc produces the unsigned transaction an instance agrees on.
type BuildFunc func(builder.Builder) (*txs.Tx, error)

// Initiator starts agreement instances on behalf of one party.
type Initiator struct {
	log     logging.Logger
	cfg     Config
	key     *secp256k1.PrivateKey
	self    ids.ShortID
	clock   mockable.Clock
	metrics *metrics

	vault   Vault
	builder builder.Builder
	notary  notary.Notary
	peers   Counterparty
}

func NewInitiator(
	log logging.Logger,
	cfg Config,
	key *secp256k1.PrivateKey,
	vault Vault,
	notary notary.Notary,
	peers Counterparty,
	namespace string,
	registerer prometheus.Registerer,
) (*Initiator, error) {
	m, err := newMetrics(namespace, registerer)
	if err != nil {
		return nil, fmt.Errorf("couldn't register flow metrics: %w", err)
	}
	return &Initiator{
		log:     log,
		cfg:     cfg,
		key:     key,
		self:    key.Address(),
		metrics: m,
		vault:   vault,
		builder: builder.New(vault, cfg.Notary),
		notary:  notary,
		peers:   peers,
	}, nil
}

// Self is the party this initiator signs for.
func (i *Initiator) Self() ids.ShortID {
	return i.self
}

// NewInstance returns an instance in the Building status. Nothing happens
// until it is stepped or run.
func (i *Initiator) NewInstance(build BuildFunc) *Instance {
	return &Instance{
		initiator: i,
		build:     build,
		status:    Building,
		started:   i.clock.Time(),
		pending:   set.Set[ids.ShortID]{},
	}
}

// Resume returns an instance continuing the agreement on [tx] from
// [status]. It is used to pick up instances that outlived their process.
func (i *Initiator) Resume(tx *txs.Tx, status Status) *Instance {
	inst := i.NewInstance(nil)
	inst.tx = tx
	inst.status = status
	// The notary may already have seen [tx].
	inst.submitted = status == AwaitingFinality
	if status == Finalized {
		inst.pending = i.recipients(tx)
	}
	return inst
}

// recipients are the parties, other than this one, that must learn about
// the finalized [tx].
func (i *Initiator) recipients(tx *txs.Tx) set.Set[ids.ShortID] {
	parties := tx.Unsigned.Participants()
	parties.Union(tx.Unsigned.SignerSet())
	parties.Remove(i.self)
	return parties
}
